// Package env resolves the base address of the parsing service.
package env

import (
	"net/netip"
	"strings"
)

// LocalBase is the parsing service address used for local and development contexts.
const LocalBase = "http://localhost:8000"

// Snapshot is the ambient environment a resolution is computed from.
type Snapshot struct {
	// ConfiguredBase is an explicit base address from configuration.
	ConfiguredBase string
	// Development is set for development builds.
	Development bool
	// Hostname is the host the viewer is running on or was reached through.
	Hostname string
	// Origin is scheme://host[:port] of the viewer, empty when there is none (CLI).
	Origin string
}

// Source yields a fresh Snapshot on every call.
type Source func() Snapshot

// Static returns a Source that always yields s.
func Static(s Snapshot) Source {
	return func() Snapshot { return s }
}

// Resolve picks the base address. First match wins: configured base, development build,
// loopback or private-network hostname, viewer origin, then LocalBase.
func Resolve(s Snapshot) string {
	if base := strings.TrimSpace(s.ConfiguredBase); base != "" {
		return strings.TrimRight(base, "/")
	}
	if s.Development {
		return LocalBase
	}
	if IsLocalHost(s.Hostname) {
		return LocalBase
	}
	if origin := strings.TrimSpace(s.Origin); origin != "" {
		return strings.TrimRight(origin, "/")
	}
	return LocalBase
}

// IsLocalHost reports whether host (optionally with port) is loopback or on a private network.
func IsLocalHost(host string) bool {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return false
	}
	if h, _, ok := splitPort(host); ok {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate()
}

func splitPort(host string) (string, string, bool) {
	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		if end < 0 {
			return "", "", false
		}
		if len(host) > end+1 && host[end+1] == ':' {
			return host[:end+1], host[end+2:], true
		}
		return "", "", false
	}
	if strings.Count(host, ":") != 1 {
		return "", "", false
	}
	i := strings.LastIndex(host, ":")
	return host[:i], host[i+1:], true
}
