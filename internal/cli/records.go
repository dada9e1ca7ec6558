package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cabinet/pkg/orm"
	"github.com/mesh-intelligence/cabinet/pkg/types"
)

func newGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Get a record by primary key",
		Long: `Get loads the record of the given entity whose primary key equals id.

Example:
  cabinet get User 0190c7a4-7d1e-7c3a-9b1e-2f4f6a1c9d20
  cabinet get Post 12 --json`,
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
			r, err := load(cmd, tb, args[1])
			if err != nil {
				return err
			}
			return printRecord(cmd, flags, r)
		},
	}
}

func newListCmd(flags *rootFlags) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "list <entity> [arg...]",
		Short: "List records, optionally filtered",
		Long: `List loads every record of the entity. With --where, the fragment is
appended to the query and the remaining arguments are bound to its
placeholders in order.

Example:
  cabinet list User
  cabinet list User --where "where name=? order by email" Ann`,
		Args: cobra.MinimumNArgs(1),
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
			binds, err := whereArgs(where, args[1:])
			if err != nil {
				return err
			}
			var records []*orm.Record
			if where == "" {
				records, err = tb.FindAll(cmd.Context())
			} else {
				records, err = tb.FindBy(cmd.Context(), where, binds...)
			}
			if err != nil {
				return sysErrorf("list %s: %w", args[0], err)
			}

			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			return writeRecords(cmd.OutOrStdout(), tb.Schema(), records)
		},
	}
	cmd.Flags().StringVar(&where, "where", "", `SQL fragment appended to the query, e.g. "where id>?"`)
	return cmd
}

func newCountCmd(flags *rootFlags) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "count <entity> [arg...]",
		Short: "Count records, optionally filtered",
		Args:  cobra.MinimumNArgs(1),
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
			binds, err := whereArgs(where, args[1:])
			if err != nil {
				return err
			}
			n, err := tb.CountBy(cmd.Context(), where, binds...)
			if err != nil {
				return sysErrorf("count %s: %w", args[0], err)
			}

			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]int64{"count": n})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", `SQL fragment appended to the query, e.g. "where id>?"`)
	return cmd
}

func newInsertCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <entity> <json>",
		Short: "Insert a record",
		Long: `Insert writes a new record built from a JSON object. Fields left out take
their declared defaults. Blob values are base64 strings, as export writes
them. Pass - to read the object from stdin.

Example:
  cabinet insert User '{"email":"ann@example.com","name":"Ann"}'`,
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
			values, err := decodeValues(cmd, tb.Schema(), args[1])
			if err != nil {
				return err
			}
			r, err := tb.Insert(cmd.Context(), tb.New(values))
			if err != nil {
				return sysErrorf("insert %s: %w", args[0], err)
			}
			return printRecord(cmd, flags, r)
		},
	}
}

func newUpdateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update <entity> <json>",
		Short: "Update a record",
		Long: `Update loads the record named by the primary key in the JSON object,
applies the other values in the object to it and writes every updatable
field back. Pass - to read the object from stdin.

Example:
  cabinet update User '{"id":"0190c7a4-...","name":"Annie"}'`,
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
			values, err := decodeValues(cmd, tb.Schema(), args[1])
			if err != nil {
				return err
			}
			pkName := tb.Schema().PrimaryKey().Name()
			pk, ok := values[pkName]
			if !ok {
				return userErrorf("update %s: %q is required", args[0], pkName)
			}

			r, err := tb.Get(cmd.Context(), pk)
			if err != nil {
				return lookupError(args[0], pk, err)
			}
			for k, v := range values {
				r.Set(k, v)
			}
			if _, err := tb.Update(cmd.Context(), r); err != nil {
				return sysErrorf("update %s: %w", args[0], err)
			}
			return printRecord(cmd, flags, r)
		},
	}
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete a record by primary key",
		Args:  cobra.ExactArgs(2),
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
			r, err := load(cmd, tb, args[1])
			if err != nil {
				return err
			}
			if _, err := tb.Delete(cmd.Context(), r); err != nil {
				return sysErrorf("delete %s: %w", args[0], err)
			}

			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
}

// load fetches the record whose primary key is the command-line value raw.
func load(cmd *cobra.Command, tb *orm.Table[*orm.Record], raw string) (*orm.Record, error) {
	pkField := tb.Schema().PrimaryKey()
	pk, err := orm.ConvertValue(pkField, raw)
	if err != nil {
		return nil, userErrorf("invalid %s: %w", pkField.Name(), err)
	}
	r, err := tb.Get(cmd.Context(), pk)
	if err != nil {
		return nil, lookupError(tb.Schema().Entity(), pk, err)
	}
	return r, nil
}

func lookupError(entity string, pk any, err error) error {
	if errors.Is(err, types.ErrNotFound) {
		return userErrorf("%s %v not found", entity, pk)
	}
	return sysErrorf("get %s: %w", entity, err)
}

// whereArgs checks that positional bind arguments come with a fragment.
func whereArgs(where string, args []string) ([]any, error) {
	if where == "" && len(args) > 0 {
		return nil, userErrorf("arguments %q given without --where", args)
	}
	binds := make([]any, len(args))
	for i, a := range args {
		binds[i] = a
	}
	return binds, nil
}

// decodeValues parses a JSON object, or stdin for "-", into values typed
// for schema's fields. Keys that are not declared fields are rejected.
func decodeValues(cmd *cobra.Command, schema *orm.Schema, raw string) (map[string]any, error) {
	data := []byte(raw)
	if raw == "-" {
		var err error
		if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
			return nil, sysErrorf("read stdin: %w", err)
		}
	}

	in, err := parseObject(data)
	if err != nil {
		return nil, userErrorf("invalid JSON object: %w", err)
	}
	values, unknown, err := convertValues(schema, in)
	if err != nil {
		return nil, userErrorf("%w", err)
	}
	if len(unknown) > 0 {
		return nil, userErrorf("unknown fields for %s: %s", schema.Entity(), strings.Join(unknown, ", "))
	}
	return values, nil
}

// parseObject parses a JSON object, keeping numbers as json.Number so that
// large integers are not rounded through float64.
func parseObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var in map[string]any
	if err := dec.Decode(&in); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, errors.New("expected an object, got null")
	}
	return in, nil
}

// convertValues types the declared keys of in for their fields and returns
// the undeclared keys, sorted.
func convertValues(schema *orm.Schema, in map[string]any) (map[string]any, []string, error) {
	values := make(map[string]any, len(in))
	var unknown []string
	for k, v := range in {
		f, ok := schema.Field(k)
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		cv, err := orm.ConvertJSONValue(f, v)
		if err != nil {
			return nil, nil, err
		}
		values[k] = cv
	}
	sort.Strings(unknown)
	return values, unknown, nil
}

func printRecord(cmd *cobra.Command, flags *rootFlags, r *orm.Record) error {
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), r)
	}
	writeRecord(cmd.OutOrStdout(), r)
	return nil
}
