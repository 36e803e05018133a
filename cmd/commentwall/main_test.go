package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alphabot-ai/commentwall/internal/config"
	"github.com/alphabot-ai/commentwall/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StorageBackend: store.BackendSQLite,
		StorageKey:     store.DefaultKey,
		DatabasePath:   filepath.Join(t.TempDir(), "commentwall.db"),
	}
}

func seed(t *testing.T, cfg *config.Config) {
	t.Helper()
	s, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	err = s.SaveAll(context.Background(), []*store.Comment{{
		ID:         1,
		AuthorName: "Ada Lovelace",
		Text:       "hello",
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
}

func TestExport(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	if err := export(context.Background(), cfg, &out); err != nil {
		t.Fatalf("export empty: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "[]" {
		t.Errorf("empty export = %q, want []", got)
	}

	seed(t, cfg)
	out.Reset()
	if err := export(context.Background(), cfg, &out); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out.String(), `"authorName":"Ada Lovelace"`) {
		t.Errorf("export = %s, want seeded comment", out.String())
	}
}

func TestClearStore(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg)

	if err := clearStore(context.Background(), cfg); err != nil {
		t.Fatalf("clear: %v", err)
	}

	var out bytes.Buffer
	if err := export(context.Background(), cfg, &out); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "[]" {
		t.Errorf("export after clear = %q, want []", got)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = "postgres"

	if _, err := openStore(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	want := map[string]bool{"serve": false, "export": false, "clear": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	if root.PersistentFlags().Lookup("storage") == nil {
		t.Error("missing --storage flag")
	}
}
