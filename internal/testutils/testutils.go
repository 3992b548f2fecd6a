// Package testutils holds helpers shared by package tests.
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/config"
	"github.com/nfrund/shellbus/internal/transport"
)

// ConfigForTests loads the .env.test file at the project root into the test
// environment and returns the validated config. overrides are applied on top.
func ConfigForTests(t *testing.T, overrides map[string]string) *config.Config {
	t.Helper()

	// Find project root by looking for go.mod to reliably locate .env.test
	path, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			break
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}

	env, err := godotenv.Read(filepath.Join(path, ".env.test"))
	if err != nil {
		t.Fatalf("failed to load .env.test file: %v", err)
	}
	for key, value := range env {
		t.Setenv(key, value)
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	return cfg
}

// RegistryPair returns two registries standing for two script contexts
// joined by one in-memory relay. Both are closed when the test ends.
func RegistryPair(t *testing.T, opts ...channel.Option) (a, b *channel.Registry) {
	t.Helper()

	relay := transport.NewMemory()
	a = channel.NewRegistry(append([]channel.Option{channel.WithRelay(relay), channel.WithOrigin("context-a")}, opts...)...)
	b = channel.NewRegistry(append([]channel.Option{channel.WithRelay(relay), channel.WithOrigin("context-b")}, opts...)...)
	t.Cleanup(func() {
		a.Close()
		b.Close()
		_ = relay.Close()
	})
	return a, b
}

// Flush waits until every registry has delivered what was posted to it.
func Flush(t *testing.T, regs ...*channel.Registry) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, r := range regs {
		require.NoError(t, r.Flush(ctx))
	}
}
