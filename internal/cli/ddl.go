package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cabinet/pkg/orm"
)

func newDDLCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ddl [entity...]",
		Short: "Print create table statements",
		Long: `Print the create table statement of every declared entity, or of the
named entities, in declaration order.

Example:
  cabinet ddl
  cabinet ddl User Post`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(cmd, flags, args)
		},
	}
}

// ddlOutput is the JSON form of one generated statement.
type ddlOutput struct {
	Entity string `json:"entity"`
	Table  string `json:"table"`
	SQL    string `json:"sql"`
}

func runDDL(cmd *cobra.Command, flags *rootFlags, args []string) error {
	s, err := openSession(cmd, flags, false)
	if err != nil {
		return err
	}
	defer s.close()

	schemas := s.schemas
	if len(args) > 0 {
		schemas = make([]*orm.Schema, 0, len(args))
		for _, name := range args {
			schema, ok := s.registry.Lookup(name)
			if !ok {
				return userErrorf("unknown entity %q (declared: %s)", name, strings.Join(s.registry.Names(), ", "))
			}
			schemas = append(schemas, schema)
		}
	}

	out := make([]ddlOutput, 0, len(schemas))
	for _, schema := range schemas {
		sql, err := schema.SQL()
		if err != nil {
			return userErrorf("%w", err)
		}
		out = append(out, ddlOutput{Entity: schema.Entity(), Table: schema.Table(), SQL: sql})
	}

	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	for i, d := range out {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.SQL)
	}
	return nil
}
