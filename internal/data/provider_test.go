package data

import (
	"path/filepath"
	"testing"
)

func TestGetDialector(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "data.db")
	cases := []struct {
		dsn    string
		name   string
		sqlite bool
	}{
		{dsn: "postgres://u:p@127.0.0.1:5432/pothole", name: "postgres"},
		{dsn: "mysql://u:p@tcp(127.0.0.1:3306)/pothole", name: "mysql"},
		{dsn: "configs/data.db", name: "sqlite", sqlite: true},
		{dsn: abs, name: "sqlite", sqlite: true},
	}
	for _, tc := range cases {
		dial, path := getDialector(tc.dsn)
		if dial.Name() != tc.name {
			t.Errorf("%s: dialect = %s", tc.dsn, dial.Name())
		}
		if (path != "") != tc.sqlite {
			t.Errorf("%s: path = %q", tc.dsn, path)
		}
	}
	if _, path := getDialector(abs); path != abs {
		t.Errorf("absolute path rewritten to %s", path)
	}
}
