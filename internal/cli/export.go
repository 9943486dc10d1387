package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/things"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [type] <file>",
		Short: "Write things to a JSON Lines file",
		Long: `Export fetches every thing of the given type (default: thing) and writes
one JSON object per line. The file is replaced atomically.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName, path := things.TypeThing, args[0]
			if len(args) == 2 {
				typeName, path = resolveType(args[0]), args[1]
			}
			return withSession(true, func(s *session) error {
				records, err := s.loader.Fetch(context.Background(), typeName, cti.OrderBy("id"))
				if err != nil {
					return err
				}
				if err := writeJSONL(path, records); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d things to %s\n", len(records), path)
				return nil
			})
		},
	}
}

// writeJSONL writes records to path through a temporary file in the same
// directory that is synced and renamed over path.
func writeJSONL(path string, records []*cti.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".strata-*.jsonl.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			return fail(fmt.Errorf("encoding %s %d: %w", r.Model().Name(), r.ID(), err))
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
