package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/strata/internal/paths"
)

// configFile is the structure init writes to config.yaml when flags are
// given on the first run.
type configFile struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir,omitempty"`
	DSN     string `yaml:"dsn,omitempty"`
	LogMode string `yaml:"log_mode,omitempty"`
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize strata storage",
		Long:  "Create the configuration directory, record the chosen backend and apply all schema migrations.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	version, _, err := s.backend.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "strata initialized (%s, schema version %d)\n", s.backend.Name(), version)
	return nil
}

// writeConfigIfMissing records the flag values in a new config.yaml. With
// no flags set the default file is left to loadConfig.
func writeConfigIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if flags.backend == "" && flags.dataDir == "" && flags.dsn == "" && flags.logMode == "" {
		return nil
	}

	cfg := configFile{
		Backend: firstNonEmpty(flags.backend, "sqlite"),
		DataDir: flags.dataDir,
		DSN:     flags.dsn,
		LogMode: flags.logMode,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
