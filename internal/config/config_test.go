package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDefaults_AutoDriver(t *testing.T) {
	cfg := &Config{DBDriver: "auto"}
	require.NoError(t, cfg.ResolveDefaults())
	require.Equal(t, "sqlite", cfg.DBDriver)

	cfg = &Config{DBDriver: "auto", PostgresDSN: "postgres://localhost/searchsync"}
	require.NoError(t, cfg.ResolveDefaults())
	require.Equal(t, "postgres", cfg.DBDriver)
}

func TestResolveDefaults_RejectsUnknownDriver(t *testing.T) {
	cfg := &Config{DBDriver: "dynamo"}
	require.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_PostgresRequiresDSN(t *testing.T) {
	cfg := &Config{DBDriver: "postgres"}
	require.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_BoundsFallbacks(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", SearchLimit: -1, FanoutConcurrency: 0, FullPageMaxChars: 0}
	require.NoError(t, cfg.ResolveDefaults())
	require.Equal(t, 20, cfg.SearchLimit)
	require.Equal(t, 8, cfg.FanoutConcurrency)
	require.Equal(t, 13000, cfg.FullPageMaxChars)
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	require.True(t, cfg.IsTesting())
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, ":memory:", cfg.SQLitePath)
}
