package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/pixelwatch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
chain:
  rpc_url: "ws://localhost:8545"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000), cfg.Chain.BackfillWindow)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	// sin default: vacío = sin persistencia
	assert.Empty(t, cfg.Storage.DSN)
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
chain:
  rpc_url: "wss://rpc.example.org"
  contract_address: "0x00000000000000000000000000000000000000cc"
  backfill_window: 500
storage:
  dsn: ":memory:"
server:
  addr: ":9000"
log:
  level: "debug"
  format: "json"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://rpc.example.org", cfg.Chain.RPCURL)
	assert.Equal(t, uint64(500), cfg.Chain.BackfillWindow)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RPC_URL", "ws://override:8545")
	t.Setenv("CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000dd")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeConfig(t, `
chain:
  rpc_url: "ws://yaml:8545"
log:
  level: "info"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://override:8545", cfg.Chain.RPCURL)
	assert.Equal(t, "0x00000000000000000000000000000000000000dd", cfg.Chain.ContractAddress)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "chain: [not a map")
	_, err := config.Load(path)
	assert.Error(t, err)
}
