package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/strata/internal/logger"
	"github.com/mesh-intelligence/strata/internal/paths"
	"github.com/mesh-intelligence/strata/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"
	cfgKeyDSN     = "dsn"
	cfgKeyLogMode = "log_mode"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# strata configuration

# Storage backend: sqlite or postgis
backend: sqlite

# SQLite data directory (optional; overridable by --data-dir)
# data_dir:

# PostGIS connection string, required when backend is postgis
# dsn: postgres://localhost/strata?sslmode=disable

# Logging: production, development (logs every SQL statement) or nop
log_mode: nop
`

// settings is the resolved configuration of one invocation.
type settings struct {
	configDir string
	backend   types.Config
	logMode   string
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. STRATA_BACKEND, STRATA_DSN and STRATA_LOG_MODE
// override file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogMode, logger.ModeNop)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	for key, env := range map[string]string{
		cfgKeyBackend: "STRATA_BACKEND",
		cfgKeyDSN:     "STRATA_DSN",
		cfgKeyLogMode: "STRATA_LOG_MODE",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// resolveSettings merges flags over the config file and validates the
// backend configuration.
func resolveSettings() (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}

	s := settings{
		configDir: configDir,
		backend: types.Config{
			Backend: firstNonEmpty(flags.backend, v.GetString(cfgKeyBackend)),
			DataDir: dataDir,
			DSN:     firstNonEmpty(flags.dsn, v.GetString(cfgKeyDSN)),
		},
		logMode: firstNonEmpty(flags.logMode, v.GetString(cfgKeyLogMode)),
	}
	if err := s.backend.Validate(); err != nil {
		return settings{}, fmt.Errorf("config %s: %w", filepath.Join(configDir, configFileExt), err)
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
