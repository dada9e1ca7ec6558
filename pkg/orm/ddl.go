package orm

import (
	"fmt"
	"strings"
)

// quote wraps an identifier in backticks. Every generated statement quotes
// table and column names this way.
func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// CreateTableSQL renders the CREATE TABLE statement for s:
//
//	--generating SQL for user:
//	create table `user` (
//	 `id` bigint not null,
//	 `note` text,
//	 primary key(`id`)
//	);
//
// Columns appear in declaration order. Non-nullable columns end in
// "not null, " (with a trailing space); nullable columns end in ",".
// The output depends only on s.
func CreateTableSQL(s *Schema) (string, error) {
	lines := make([]string, 0, len(s.fields)+4)
	lines = append(lines,
		fmt.Sprintf("--generating SQL for %s:", s.table),
		fmt.Sprintf("create table %s (", quote(s.table)),
	)
	for _, f := range s.fields {
		if f.ddl == "" {
			return "", &DDLError{Table: s.table, Field: f.name, Err: ErrMissingDDL}
		}
		if f.nullable {
			lines = append(lines, fmt.Sprintf(" %s %s,", quote(f.name), f.ddl))
		} else {
			lines = append(lines, fmt.Sprintf(" %s %s not null, ", quote(f.name), f.ddl))
		}
	}
	lines = append(lines,
		fmt.Sprintf(" primary key(%s)", quote(s.pk.name)),
		");",
	)
	return strings.Join(lines, "\n"), nil
}
