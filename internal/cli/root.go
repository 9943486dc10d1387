// Package cli implements the strata command-line interface.
package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/things"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("invalid usage")

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	dsn       string
	logMode   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "strata" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strata",
		Short: "Class-table inheritance mapper for geospatial things",
		Long: "Strata stores street lights, traffic signs and gardens across one table\n" +
			"per type, sharing ids along each hierarchy chain, on SQLite or PostGIS.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (env STRATA_CONFIG_DIR)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "SQLite data directory (env STRATA_DATA_DIR)")
	pf.StringVar(&flags.backend, "backend", "", "storage backend: sqlite or postgis")
	pf.StringVar(&flags.dsn, "dsn", "", "database connection string")
	pf.StringVar(&flags.logMode, "log-mode", "", "logging: production, development or nop")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newExportCmd())

	return root
}

// Execute runs the root command and exits with the code matching the
// error, if any.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps an error to exitUserError when the input was at fault and
// exitSysError otherwise.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	for _, target := range []error{
		errUsage,
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrDSNRequired,
		types.ErrUnknownType,
		types.ErrUnknownAttribute,
		types.ErrNotFound,
		types.ErrInvalidID,
		types.ErrInvalidGeometry,
		things.ErrNameRequired,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
