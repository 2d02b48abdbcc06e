package protocol

import "strings"

// Capabilities is the set of IRCv3 capabilities enabled on a connection.
// A nil or empty set means no capability is present.
type Capabilities map[string]struct{}

// NewCapabilities builds a set from a capability list. Blank entries are
// ignored and "name=value" entries are keyed by name.
func NewCapabilities(names ...string) Capabilities {
	caps := make(Capabilities, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if i := strings.IndexByte(n, '='); i >= 0 {
			n = n[:i]
		}
		if n == "" {
			continue
		}
		caps[strings.ToLower(n)] = struct{}{}
	}
	return caps
}

// Has reports whether the named capability is enabled
func (c Capabilities) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c[strings.ToLower(name)]
	return ok
}
