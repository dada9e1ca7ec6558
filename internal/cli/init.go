package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cabinet/pkg/cabinet"
)

// starterSchema is written when init finds no declaration file.
const starterSchema = `# Entity declarations for cabinet.
# kind: field, string, integer, float, boolean, text, blob or version
# default_func: next_id, now or unix_time
entities:
  - name: Note
    table: notes
    fields:
      - {name: id, kind: string, primary_key: true, ddl: "varchar(50)", default_func: next_id}
      - {name: title, kind: string}
      - {name: body, kind: text}
      - {name: created_at, kind: float, updatable: false, default_func: unix_time}
`

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and create tables",
		Long: "Create the configuration directory with a default config.yaml and, when\n" +
			"missing, a starter schema.yaml. Then create a table for every declared\n" +
			"entity that does not have one yet.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}
}

func runInit(cmd *cobra.Command, flags *rootFlags) error {
	pre, err := prepare(cmd, flags)
	if err != nil {
		return err
	}
	wrote, err := writeStarterSchema(pre.schemaPath)
	pre.close()
	if err != nil {
		return sysErrorf("write schema file: %w", err)
	}

	s, err := openSession(cmd, flags, true)
	if err != nil {
		return err
	}
	defer s.close()

	created, err := cabinet.CreateTables(cmd.Context(), s.store, s.schemas)
	if err != nil {
		return sysErrorf("create tables: %w", err)
	}

	if flags.jsonMode {
		if created == nil {
			created = []string{}
		}
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"config_dir":     s.configDir,
			"schema":         s.schemaPath,
			"schema_created": wrote,
			"tables_created": created,
		})
	}

	out := cmd.OutOrStdout()
	if wrote {
		fmt.Fprintf(out, "Wrote starter schema to %s\n", s.schemaPath)
	}
	if len(created) > 0 {
		fmt.Fprintf(out, "Created tables: %s\n", strings.Join(created, ", "))
	}
	fmt.Fprintln(out, "Cabinet initialized successfully")
	return nil
}

// writeStarterSchema writes starterSchema to path if no file exists there
// and reports whether it did.
func writeStarterSchema(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(starterSchema), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
