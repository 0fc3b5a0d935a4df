package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docdesk/internal/env"
)

func TestResolve_ConfiguredBaseWins(t *testing.T) {
	got := env.Resolve(env.Snapshot{
		ConfiguredBase: "https://api.example.com/",
		Development:    true,
		Hostname:       "localhost",
		Origin:         "https://app.example.com",
	})
	assert.Equal(t, "https://api.example.com", got)
}

func TestResolve_DevelopmentUsesLocal(t *testing.T) {
	got := env.Resolve(env.Snapshot{Development: true, Hostname: "app.example.com", Origin: "https://app.example.com"})
	assert.Equal(t, env.LocalBase, got)
}

func TestResolve_LocalHostnames(t *testing.T) {
	hosts := []string{
		"localhost",
		"localhost:3000",
		"127.0.0.1",
		"127.0.0.1:3000",
		"192.168.1.20",
		"10.0.0.4:8080",
		"172.16.5.1",
		"[::1]:3000",
	}
	for _, h := range hosts {
		t.Run(h, func(t *testing.T) {
			got := env.Resolve(env.Snapshot{Hostname: h, Origin: "http://" + h})
			assert.Equal(t, env.LocalBase, got)
		})
	}
}

func TestResolve_PublicHostUsesOrigin(t *testing.T) {
	got := env.Resolve(env.Snapshot{Hostname: "app.example.com", Origin: "https://app.example.com/"})
	assert.Equal(t, "https://app.example.com", got)
}

func TestResolve_NoOriginFallsBackToLocal(t *testing.T) {
	got := env.Resolve(env.Snapshot{Hostname: "build-runner-7"})
	assert.Equal(t, env.LocalBase, got)
}

func TestResolve_SourceIsReevaluated(t *testing.T) {
	host := "localhost"
	src := env.Source(func() env.Snapshot {
		return env.Snapshot{Hostname: host, Origin: "https://" + host}
	})

	assert.Equal(t, env.LocalBase, env.Resolve(src()))
	host = "docs.example.in"
	assert.Equal(t, "https://docs.example.in", env.Resolve(src()))
}

func TestIsLocalHost(t *testing.T) {
	assert.True(t, env.IsLocalHost("LOCALHOST"))
	assert.True(t, env.IsLocalHost("dash.localhost"))
	assert.False(t, env.IsLocalHost(""))
	assert.False(t, env.IsLocalHost("8.8.8.8"))
	assert.False(t, env.IsLocalHost("example.com:443"))
}
