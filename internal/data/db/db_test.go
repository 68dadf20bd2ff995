package db

import (
	"strings"
	"testing"
)

func TestPostgresDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "pagecraft"}
	if got := cfg.postgresDSN(); got != "postgres://u:p@db:5432/pagecraft?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", got)
	}
	cfg.DSN = "postgres://override"
	if got := cfg.postgresDSN(); got != "postgres://override" {
		t.Fatalf("DSN should win, got %q", got)
	}
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	gdb, err := Open(nil, Config{Driver: "sqlite", SQLitePath: "file:db_open_test?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"page_template", "potential_page", "generated_page", "generation_run"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(nil, Config{Driver: "oracle"})
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}
