package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lrstanley/girc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aeolun/superirc/pkg/client"
	"github.com/aeolun/superirc/pkg/client/actions"
	"github.com/aeolun/superirc/pkg/client/commands"
	"github.com/aeolun/superirc/pkg/client/ui"
	"github.com/aeolun/superirc/pkg/protocol"
)

var (
	configPath  string
	serverID    string
	verbose     bool
	resetConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "superirc",
	Short: "Terminal IRC client with multiline messages and whispers",
	Long: `superirc connects to the servers in its config file and opens a chat view.

Type a message and press Enter to send it to the active channel, or start
the line with / to run a command (/help lists them). Tab completes nicks,
channels and commands; ctrl+k searches every action.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", client.DefaultConfigPath(), "Path to config file")
	rootCmd.Flags().StringVarP(&serverID, "server", "s", "", "Only connect to the server with this id")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&resetConfig, "reset-config", false, "Back up the config file and replace it with defaults")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if resetConfig {
		if err := client.ResetConfigToDefault(configPath, true); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config reset to defaults: %s\n", configPath)
		return nil
	}

	cfg, err := client.LoadClientConfig(configPath)
	if err != nil {
		var cfgErr *client.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.LineNumber > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s line %d: %s\n", configPath, cfgErr.LineNumber, cfgErr.Message)
		}
		return err
	}

	dbPath, err := cfg.GetStateDBPath()
	if err != nil {
		return err
	}
	state, err := client.OpenState(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer state.Close()

	if verbose && cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(state.GetStateDir(), "superirc.log")
	}
	logger, err := client.NewLogger(cfg.Logging, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	servers := cfg.Servers
	if serverID != "" {
		srv, ok := cfg.ServerByID(serverID)
		if !ok {
			return fmt.Errorf("%w: %s", client.ErrUnknownServer, serverID)
		}
		servers = []client.ServerSection{srv}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg := prometheus.NewRegistry()
	metrics := client.NewMetrics(reg)
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, reg, logger)
		defer srv.Close()
	}

	store := client.NewMemoryStore(client.PaneFlags{
		UserPane:   cfg.UI.ShowUserPane,
		ServerPane: cfg.UI.ShowServerPane,
		Timestamps: cfg.UI.ShowTimestamps,
	}, state)

	var notifier client.Notifier
	if cfg.UI.NotifyOnHighlight {
		notifier = client.DesktopNotifier{}
	}

	renderer := &ui.ProgramRenderer{}
	transport := client.NewIRCTransport(logger)
	defer transport.Close()

	for _, srv := range servers {
		store.AddServer(client.Server{ID: srv.ID, Name: srv.ID, Nick: srv.Nick})

		c := client.NewGircClient(srv)
		bridge := &client.EventBridge{
			ServerID: srv.ID,
			Store:    store,
			Renderer: renderer,
			Notifier: notifier,
			Logger:   logger.With(zap.String("server", srv.ID)),
			AutoJoin: mergeChannels(srv.Channels, state.GetLastChannels(srv.ID)),
		}
		bridge.Attach(c)
		transport.Add(srv.ID, c)

		go connectLoop(ctx, c, srv, logger)
	}
	store.Select(servers[0].ID, "")

	registry := actions.NewRegistry()
	actions.RegisterDefaults(registry)

	sender := client.NewSender(transport, store, logger, metrics)
	sender.MaxLineLength = cfg.Transmission.MaxLineLength
	parser := commands.NewParser(registry, sender, logger)

	model := ui.NewModel(ui.Options{
		Store:           store,
		Transport:       transport,
		Registry:        registry,
		Parser:          parser,
		Renderer:        renderer,
		Logger:          logger,
		TimestampFormat: cfg.UI.TimestampFormat,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	renderer.Attach(p)

	_, runErr := p.Run()

	for _, srv := range servers {
		var open []string
		for _, name := range store.Channels(srv.ID) {
			if protocol.IsChannel(name) {
				open = append(open, name)
			}
		}
		if err := state.SetLastChannels(srv.ID, open); err != nil {
			logger.Warn("failed to save open channels", zap.String("server", srv.ID), zap.Error(err))
		}
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", runErr)
	}
	return nil
}

// connectLoop keeps one server connected until ctx is cancelled, backing off
// between attempts
func connectLoop(ctx context.Context, c *girc.Client, srv client.ServerSection, logger *zap.Logger) {
	delay := time.Second
	for {
		logger.Info("connecting", zap.String("server", srv.ID), zap.String("addr", srv.Address()))
		err := c.Connect()
		if ctx.Err() != nil {
			return
		}
		logger.Warn("disconnected", zap.String("server", srv.ID), zap.Error(err), zap.Duration("retry_in", delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay < time.Minute {
			delay *= 2
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return srv
}

// mergeChannels combines configured and previously open channels, keeping
// the first spelling of each name
func mergeChannels(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, name := range list {
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}
