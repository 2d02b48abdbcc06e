package client

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aeolun/superirc/pkg/protocol"
)

// TOMLConfig represents the structure of the client config file
type TOMLConfig struct {
	Servers      []ServerSection     `toml:"servers"`
	UI           UISection           `toml:"ui"`
	Transmission TransmissionSection `toml:"transmission"`
	Local        LocalSection        `toml:"local"`
	Logging      LoggingSection      `toml:"logging"`
	Metrics      MetricsSection      `toml:"metrics"`
}

type ServerSection struct {
	ID       string   `toml:"id"`
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	TLS      bool     `toml:"tls"`
	Nick     string   `toml:"nick"`
	User     string   `toml:"user"`
	RealName string   `toml:"real_name"`
	Channels []string `toml:"channels"`
}

type UISection struct {
	ShowTimestamps    bool   `toml:"show_timestamps"`
	ShowUserPane      bool   `toml:"show_user_pane"`
	ShowServerPane    bool   `toml:"show_server_pane"`
	TimestampFormat   string `toml:"timestamp_format"`
	NotifyOnHighlight bool   `toml:"notify_on_highlight"`
}

type TransmissionSection struct {
	MaxLineLength int `toml:"max_line_length"`
}

type LocalSection struct {
	StateDB string `toml:"state_db"`
}

type LoggingSection struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type MetricsSection struct {
	// Listen is the address for the /metrics endpoint; empty disables it
	Listen string `toml:"listen"`
}

// ConfigError represents a structured configuration error
type ConfigError struct {
	Path       string
	Message    string
	LineNumber int // 0 if not a parse error
}

func (e *ConfigError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("%s (line %d)", e.Message, e.LineNumber)
	}
	return e.Message
}

func getXDGConfigHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

func getXDGDataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// DefaultConfigPath returns the XDG location of the config file
func DefaultConfigPath() string {
	return filepath.Join(getXDGConfigHome(), "superirc", "config.toml")
}

// DefaultTOMLConfig returns the default TOML configuration
func DefaultTOMLConfig() TOMLConfig {
	dataHome := getXDGDataHome()

	return TOMLConfig{
		Servers: []ServerSection{
			{
				ID:       "libera",
				Host:     "irc.libera.chat",
				Port:     6697,
				TLS:      true,
				Nick:     "superirc",
				Channels: []string{"#superirc"},
			},
		},
		UI: UISection{
			ShowTimestamps:    true,
			ShowUserPane:      true,
			ShowServerPane:    true,
			TimestampFormat:   "15:04",
			NotifyOnHighlight: true,
		},
		Transmission: TransmissionSection{
			MaxLineLength: protocol.MaxLineLength,
		},
		Local: LocalSection{
			StateDB: filepath.Join(dataHome, "superirc", "state.db"),
		},
		Logging: LoggingSection{
			Level:      "info",
			File:       filepath.Join(dataHome, "superirc", "client.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadClientConfig loads configuration from a TOML file, creates default if not found
func LoadClientConfig(path string) (TOMLConfig, error) {
	path, err := expandHome(path)
	if err != nil {
		return TOMLConfig{}, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := DefaultTOMLConfig()
		// Unwritable location still runs with defaults
		_ = writeDefaultConfig(path, config)
		return config, nil
	}

	// Start from defaults so omitted sections keep sane values
	config := DefaultTOMLConfig()
	config.Servers = nil
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return TOMLConfig{}, &ConfigError{
			Path:       path,
			Message:    cleanErrorMessage(err.Error()),
			LineNumber: extractLineNumber(err.Error()),
		}
	}

	if err := validateConfig(&config); err != nil {
		return TOMLConfig{}, &ConfigError{
			Path:    path,
			Message: err.Error(),
		}
	}

	return config, nil
}

// extractLineNumber tries to extract a line number from a TOML parse error
func extractLineNumber(errMsg string) int {
	re := regexp.MustCompile(`line (\d+)`)
	matches := re.FindStringSubmatch(errMsg)
	if len(matches) > 1 {
		if num, err := strconv.Atoi(matches[1]); err == nil {
			return num
		}
	}
	return 0
}

func cleanErrorMessage(errMsg string) string {
	return strings.TrimPrefix(errMsg, "toml: ")
}

// validateConfig validates configuration values
func validateConfig(config *TOMLConfig) error {
	var errors []string

	if len(config.Servers) == 0 {
		errors = append(errors, "At least one [[servers]] entry is required")
	}

	seen := make(map[string]bool)
	for i, srv := range config.Servers {
		label := srv.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			errors = append(errors, fmt.Sprintf("Server %s has no id", label))
		} else if seen[srv.ID] {
			errors = append(errors, fmt.Sprintf("Duplicate server id: %q", srv.ID))
		}
		seen[srv.ID] = true

		if strings.TrimSpace(srv.Host) == "" {
			errors = append(errors, fmt.Sprintf("Server %s has no host", label))
		}
		if srv.Port < 1 || srv.Port > 65535 {
			errors = append(errors, fmt.Sprintf("Invalid port number for server %s: %d (must be 1-65535)", label, srv.Port))
		}
		if strings.TrimSpace(srv.Nick) == "" {
			errors = append(errors, fmt.Sprintf("Server %s has no nick", label))
		}
		for _, ch := range srv.Channels {
			if !protocol.IsChannel(ch) {
				errors = append(errors, fmt.Sprintf("Server %s: %q is not a channel name", label, ch))
			}
		}
	}

	if config.Transmission.MaxLineLength < 16 || config.Transmission.MaxLineLength > 510 {
		errors = append(errors, fmt.Sprintf("Invalid max_line_length: %d (must be 16-510)", config.Transmission.MaxLineLength))
	}

	switch strings.ToLower(config.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("Invalid log level: %q (must be debug, info, warn or error)", config.Logging.Level))
	}

	if strings.TrimSpace(config.Local.StateDB) == "" {
		errors = append(errors, "State database path cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("Configuration validation failed:\n  • %s", strings.Join(errors, "\n  • "))
	}

	return nil
}

func writeDefaultConfig(path string, config TOMLConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	header := `# superirc client configuration
# This file was auto-generated with default values
# Edit as needed - changes take effect on next client start

`
	if _, err := f.WriteString(header); err != nil {
		return err
	}

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func expandHome(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}
	return path, nil
}

// GetStateDBPath returns the state database path with ~ expanded
func (c *TOMLConfig) GetStateDBPath() (string, error) {
	return expandHome(c.Local.StateDB)
}

// ServerByID returns the server section with the given id
func (c *TOMLConfig) ServerByID(id string) (ServerSection, bool) {
	for _, srv := range c.Servers {
		if srv.ID == id {
			return srv, true
		}
	}
	return ServerSection{}, false
}

// Address returns host:port for a server section
func (s ServerSection) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ResetConfigToDefault resets the config file to default values
// If backup is true, creates a backup with timestamp
func ResetConfigToDefault(path string, backup bool) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	if backup {
		backupPath := fmt.Sprintf("%s.backup-%s", path, time.Now().Format("2006-01-02"))
		if err := copyFile(path, backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if err := writeDefaultConfig(path, DefaultTOMLConfig()); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
