package orm

import (
	"context"

	"github.com/mesh-intelligence/cabinet/pkg/types"
)

// call records one primitive invocation on fakeDB.
type call struct {
	op    string
	query string
	table string
	row   types.Row
	args  []any
}

// fakeDB records every call and replays canned results.
type fakeDB struct {
	calls []call

	one   types.Row
	many  []types.Row
	count int64
	n     int64
	err   error
}

func (f *fakeDB) SelectOne(_ context.Context, query string, args ...any) (types.Row, error) {
	f.calls = append(f.calls, call{op: "selectOne", query: query, args: args})
	if f.err != nil {
		return nil, f.err
	}
	if f.one == nil {
		return nil, types.ErrNotFound
	}
	return f.one, nil
}

func (f *fakeDB) Select(_ context.Context, query string, args ...any) ([]types.Row, error) {
	f.calls = append(f.calls, call{op: "select", query: query, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return f.many, nil
}

func (f *fakeDB) SelectInt(_ context.Context, query string, args ...any) (int64, error) {
	f.calls = append(f.calls, call{op: "selectInt", query: query, args: args})
	return f.count, f.err
}

func (f *fakeDB) Insert(_ context.Context, table string, row types.Row) error {
	cp := make(types.Row, len(row))
	for k, v := range row {
		cp[k] = v
	}
	f.calls = append(f.calls, call{op: "insert", table: table, row: cp})
	return f.err
}

func (f *fakeDB) Update(_ context.Context, query string, args ...any) (int64, error) {
	f.calls = append(f.calls, call{op: "update", query: query, args: args})
	return f.n, f.err
}

func (f *fakeDB) last() call {
	return f.calls[len(f.calls)-1]
}
