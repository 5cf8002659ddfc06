package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	cachepkg "github.com/darkcaves/dragonites/pkg/cache/sqlite"
	"github.com/darkcaves/dragonites/pkg/resolver"
	"github.com/darkcaves/dragonites/pkg/roster"
	"github.com/darkcaves/dragonites/pkg/storage"
)

type testEnv struct {
	configPath string
	dbPath     string
	fetches    *atomic.Int64
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	var fetches atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/pokemon/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/pokemon/")
		if id != "1" && id != "4" {
			http.NotFound(w, r)
			return
		}
		fetches.Add(1)
		name := map[string]string{"1": "bulbasaur", "4": "charmander"}[id]
		fmt.Fprintf(w, `{"id":%s,"name":%q,"stats":[{"base_stat":45,"stat":{"name":"hp"}}],"types":[{"slot":1,"type":{"name":"grass"}}]}`, id, name)
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "dex.db")
	cfg := fmt.Sprintf(`db_path: %s
provider:
  base_url: %s
  retry_attempts: 1
bulk:
  delay: 1ms
log:
  level: error
`, dbPath, upstream.URL)
	configPath := filepath.Join(dir, "dragonites.yaml")
	if err := os.WriteFile(configPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return testEnv{configPath: configPath, dbPath: dbPath, fetches: &fetches}
}

func (e testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(append([]string{"-c", e.configPath}, args...))
	return root.ExecuteContext(context.Background())
}

func TestParseID(t *testing.T) {
	for _, arg := range []string{"0", "-3", "abc", ""} {
		if _, err := parseID(arg); err == nil {
			t.Errorf("parseID(%q) succeeded, want error", arg)
		}
	}
	if id, err := parseID("25"); err != nil || id != 25 {
		t.Errorf("parseID(25) = %d, %v", id, err)
	}
}

func TestFetchCachesRecord(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "fetch", "1"); err != nil {
		t.Fatal(err)
	}
	if err := env.run(t, "fetch", "1"); err != nil {
		t.Fatal(err)
	}
	if n := env.fetches.Load(); n != 1 {
		t.Errorf("upstream fetches = %d, want 1", n)
	}

	db, err := storage.Open(env.dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store, err := cachepkg.New(db)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := store.Get(context.Background(), 1)
	if !ok || rec.Name != "bulbasaur" || rec.BaseStats.HP != 45 {
		t.Errorf("cached record = %+v, %v", rec, ok)
	}
}

func TestFetchErrors(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "fetch", "0"); err == nil {
		t.Error("expected error for id 0")
	}
	if err := env.run(t, "fetch", "999"); err == nil {
		t.Error("expected error for unknown id")
	}
	if err := env.run(t, "fetch", "1", "--ttl", "soon"); err == nil {
		t.Error("expected error for bad ttl")
	}
}

func TestConvertRejectsUnknownFormat(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "convert", "1", "--format", "json"); err != nil {
		t.Fatal(err)
	}
	if err := env.run(t, "convert", "1", "--level", "256"); !errors.Is(err, resolver.ErrInvalidLevel) {
		t.Errorf("err = %v, want ErrInvalidLevel", err)
	}
	err := env.run(t, "convert", "1", "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("err = %v, want unsupported format", err)
	}
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{
		{"fetch", "4"},
		{"cache", "stats"},
		{"cache", "show", "4"},
		{"cache", "show", "5"},
		{"cache", "clear", "--expired"},
		{"cache", "clear"},
	} {
		if err := env.run(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	db, err := storage.Open(env.dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store, err := cachepkg.New(db)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("entries after clear = %d, want 0", stats.Entries)
	}
}

func TestInitRejectsBadGeneration(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(t, "init", "--generation", "9"); err == nil {
		t.Error("expected error for generation 9")
	}
}

func TestRosterFlow(t *testing.T) {
	env := newTestEnv(t)

	steps := [][]string{
		{"roster", "trainer", "create", "ash"},
		{"roster", "trainer", "show", "1"},
		{"roster", "capture", "4", "--trainer", "1", "--level", "12", "--nickname", "flame"},
		{"roster", "list", "1"},
		{"roster", "level", "1", "30"},
		{"roster", "convert", "1"},
	}
	for _, args := range steps {
		if err := env.run(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	db, err := storage.Open(env.dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	r, err := roster.New(db)
	if err != nil {
		t.Fatal(err)
	}
	c, err := r.GetCaptured(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Level != 30 || c.Nickname != "flame" || c.CreatureID != 4 {
		t.Errorf("captured = %+v", c)
	}

	if err := env.run(t, "roster", "level", "1", "101"); err == nil {
		t.Error("expected error for level 101")
	}
	if err := env.run(t, "roster", "release", "1"); err != nil {
		t.Fatal(err)
	}
	if err := env.run(t, "roster", "release", "1"); err == nil {
		t.Error("expected error releasing twice")
	}
	if err := env.run(t, "roster", "capture", "4", "--trainer", "7"); err == nil {
		t.Error("expected error for unknown trainer")
	}
}
