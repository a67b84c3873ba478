package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del indexer.
type Config struct {
	Chain   ChainConfig   `yaml:"chain"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// ChainConfig apunta al RPC y al contrato PixelGrid desplegado.
type ChainConfig struct {
	RPCURL          string `yaml:"rpc_url"`          // ws:// o wss:// para suscripción en vivo; http solo backfill
	ContractAddress string `yaml:"contract_address"` // vacío = indexer deshabilitado
	BackfillWindow  uint64 `yaml:"backfill_window"`  // bloques hacia atrás en el backfill
}

// StorageConfig controla dónde se persiste la cache.
type StorageConfig struct {
	// DSN es la ruta al archivo SQLite, o ":memory:". Vacío = sin
	// persistencia: el store degrada a no disponible (lecturas vacías,
	// escrituras no-op).
	DSN string `yaml:"dsn"`
}

// ServerConfig controla la API HTTP/websocket.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben el YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("CONTRACT_ADDRESS"); v != "" {
		cfg.Chain.ContractAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// El DSN NO tiene default: vacío significa "sin persistencia" a propósito.
func setDefaults(cfg *Config) {
	if cfg.Chain.BackfillWindow == 0 {
		cfg.Chain.BackfillWindow = 10_000
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
