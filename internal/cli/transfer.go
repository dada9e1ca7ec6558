package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cabinet/internal/jsonl"
	"github.com/mesh-intelligence/cabinet/internal/logging"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <entity> [file]",
		Short: "Write every record as JSON lines",
		Long: `Export writes every record of the entity as one JSON object per line, to
file or to stdout when file is omitted or -. An existing file is replaced
atomically.

Example:
  cabinet export User users.jsonl`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, true)
			if err != nil {
				return err
			}
			defer s.close()

			tb, err := s.table(args[0])
			if err != nil {
				return err
			}
			records, err := tb.FindAll(cmd.Context())
			if err != nil {
				return sysErrorf("export %s: %w", args[0], err)
			}
			lines := make([]json.RawMessage, 0, len(records))
			for _, r := range records {
				data, err := json.Marshal(r)
				if err != nil {
					return sysErrorf("encode %s: %w", args[0], err)
				}
				lines = append(lines, data)
			}

			if len(args) < 2 || args[1] == "-" {
				if err := jsonl.Write(cmd.OutOrStdout(), lines); err != nil {
					return sysErrorf("export %s: %w", args[0], err)
				}
				return nil
			}
			if err := jsonl.WriteFile(args[1], lines); err != nil {
				return sysErrorf("export %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d %s records to %s\n", len(lines), args[0], args[1])
			return nil
		},
	}
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <entity> <file>",
		Short: "Insert records from JSON lines",
		Long: `Import inserts one record per JSON line of file, or of stdin for -.
Malformed lines and keys that are not declared fields are skipped with a
warning. Import stops at the first record the database rejects.

Example:
  cabinet import User users.jsonl`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, true)
			if err != nil {
				return err
			}
			defer s.close()

			tb, err := s.table(args[0])
			if err != nil {
				return err
			}

			var (
				lines   []json.RawMessage
				skipped int
			)
			if args[1] == "-" {
				lines, skipped, err = jsonl.Read(cmd.InOrStdin())
			} else {
				lines, skipped, err = jsonl.ReadFile(args[1])
			}
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return userErrorf("import %s: %w", args[0], err)
				}
				return sysErrorf("import %s: %w", args[0], err)
			}
			if skipped > 0 {
				logging.Warn("skipped malformed lines", "entity", args[0], "count", skipped)
			}

			imported := 0
			for i, line := range lines {
				in, err := parseObject(line)
				if err != nil {
					return userErrorf("record %d: not a JSON object: %w", i+1, err)
				}
				values, unknown, err := convertValues(tb.Schema(), in)
				if err != nil {
					return userErrorf("record %d: %w", i+1, err)
				}
				if len(unknown) > 0 {
					logging.Warn("ignored undeclared fields", "entity", args[0], "record", i+1, "fields", unknown)
				}
				if _, err := tb.Insert(cmd.Context(), tb.New(values)); err != nil {
					return sysErrorf("record %d: %w (%d imported)", i+1, err, imported)
				}
				imported++
			}

			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"imported": imported, "skipped": skipped})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s records\n", imported, args[0])
			return nil
		},
	}
}
