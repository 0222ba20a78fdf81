package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestDBQuerySQLiteRoundTrip(t *testing.T) {
	k := newTestToolkit(t)
	ctx := context.Background()
	dbPath := filepath.Join(k.Workdir, "test.db")

	out, err := k.DBQuery(ctx, dbPath, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Query OK") {
		t.Errorf("unexpected DDL output: %q", out)
	}

	if _, err := k.DBQuery(ctx, dbPath, "INSERT INTO users (name) VALUES (?), (?)",
		[]interface{}{"alice", "bob"}); err != nil {
		t.Fatal(err)
	}

	out, err = k.DBQuery(ctx, dbPath, "SELECT id, name FROM users ORDER BY id", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "id | name") {
		t.Errorf("header missing: %q", out)
	}
	if !strings.Contains(out, "alice") || !strings.Contains(out, "bob") {
		t.Errorf("rows missing: %q", out)
	}
}

func TestDBQueryRejectsPostgresAndMySQL(t *testing.T) {
	k := newTestToolkit(t)
	ctx := context.Background()

	_, err := k.DBQuery(ctx, "postgresql://u:p@host/db", "SELECT 1", nil)
	if err == nil || !strings.Contains(err.Error(), "psql") {
		t.Errorf("postgres rejection should point at psql: %v", err)
	}
	_, err = k.DBQuery(ctx, "mysql://u:p@host/db", "SELECT 1", nil)
	if err == nil || !strings.Contains(err.Error(), "mysql") {
		t.Errorf("mysql rejection should point at the mysql client: %v", err)
	}
}

func TestDBQueryBadSQL(t *testing.T) {
	k := newTestToolkit(t)
	if _, err := k.DBQuery(context.Background(), ":memory:", "SELEKT nonsense", nil); err == nil {
		t.Error("expected error for invalid SQL")
	}
}
