package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/cabinet/pkg/orm"
)

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErrorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// formatValue renders a column value for text output.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// writeRecord prints one record as "name: value" lines in declaration order.
func writeRecord(w io.Writer, r *orm.Record) {
	for _, f := range r.Schema().Fields() {
		v, ok := r.Get(f.Name())
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", f.Name(), formatValue(v))
	}
}

// writeRecords prints records as an aligned table with a header row.
func writeRecords(w io.Writer, schema *orm.Schema, records []*orm.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fields := schema.Fields()

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = strings.ToUpper(f.Name())
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range records {
		cells := make([]string, len(fields))
		for i, f := range fields {
			v, _ := r.Get(f.Name())
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
