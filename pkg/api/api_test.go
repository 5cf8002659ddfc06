package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/darkcaves/dragonites/pkg/metrics"
	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
	"github.com/darkcaves/dragonites/pkg/resolver"
)

type fakeDex struct {
	records   map[int]models.CreatureRecord
	lastQuery models.ListQuery
	lastLevel int
	lastGen   int
	bulkErr   error
	cleared   bool
	fetchErr  error
}

func (f *fakeDex) Resolve(_ context.Context, id int, _ time.Duration) (models.CreatureRecord, error) {
	if id <= 0 {
		return models.CreatureRecord{}, resolver.ErrInvalidID
	}
	if f.fetchErr != nil {
		return models.CreatureRecord{}, f.fetchErr
	}
	rec, ok := f.records[id]
	if !ok {
		return models.CreatureRecord{}, &provider.TransportError{Op: "fetch creature", StatusCode: 404, Err: provider.ErrNotFound}
	}
	return rec, nil
}

func (f *fakeDex) Search(_ context.Context, query string) ([]models.CreatureRecord, error) {
	var out []models.CreatureRecord
	for _, rec := range f.records {
		if strings.Contains(rec.Name, query) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeDex) List(_ context.Context, q models.ListQuery) (models.ListResult, error) {
	f.lastQuery = q
	return models.ListResult{Creatures: []models.CreatureRecord{f.records[1]}, TotalCount: 1}, nil
}

func (f *fakeDex) ConvertByID(ctx context.Context, id, level int) (models.StatBlock, error) {
	f.lastLevel = level
	if _, err := f.Resolve(ctx, id, 0); err != nil {
		return models.StatBlock{}, err
	}
	return models.StatBlock{
		Abilities:       models.AbilityScores{Strength: 11, Dexterity: 11, Constitution: 11, Intelligence: 13, Wisdom: 13, Charisma: 12},
		ArmorClass:      12,
		HitPoints:       400,
		Speed:           34,
		Skills:          []models.Skill{},
		Resistances:     []models.DamageType{},
		Vulnerabilities: []models.DamageType{},
		Actions:         []models.Action{},
		ChallengeRating: 0.5,
	}, nil
}

func (f *fakeDex) Initialize(_ context.Context, generation int) (models.BulkSummary, error) {
	f.lastGen = generation
	return models.BulkSummary{RunID: "run-1", Requested: 2, Loaded: 1}, f.bulkErr
}

func (f *fakeDex) Stats(_ context.Context) (models.CacheStats, error) {
	return models.CacheStats{Entries: 2, Hits: 3}, nil
}

func (f *fakeDex) ClearAll(_ context.Context) error {
	f.cleared = true
	return nil
}

func (f *fakeDex) ClearExpired(_ context.Context) (int64, error) { return 4, nil }

func newTestServer(t *testing.T, dex *fakeDex) *httptest.Server {
	t.Helper()
	rec := metrics.NewRecorder()
	rec.RecordCacheHit()
	srv := httptest.NewServer(NewHandler(dex, rec.Handler(), nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func newFakeDex() *fakeDex {
	return &fakeDex{records: map[int]models.CreatureRecord{
		1: {ID: 1, Name: "bulbasaur", Types: []models.TypeTag{{Name: "grass", Slot: 1}}},
		4: {ID: 4, Name: "charmander", Types: []models.TypeTag{{Name: "fire", Slot: 1}}},
	}}
}

func do(t *testing.T, method, url string) (int, APIResponse) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s %s: %v", method, url, err)
	}
	return resp.StatusCode, body
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, newFakeDex())
	status, body := do(t, http.MethodGet, srv.URL+"/health")
	if status != http.StatusOK || !body.Success {
		t.Errorf("health = %d %+v", status, body)
	}
}

func TestGetCreature(t *testing.T) {
	srv := newTestServer(t, newFakeDex())

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/creatures/4")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", status, body.Error)
	}
	data, _ := json.Marshal(body.Data)
	var rec models.CreatureRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != 4 || rec.Name != "charmander" {
		t.Errorf("record = %+v", rec)
	}
}

func TestGetCreatureStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		fetchErr error
		want     int
	}{
		{"not found", "/api/v1/creatures/999", nil, http.StatusNotFound},
		{"non numeric", "/api/v1/creatures/abc", nil, http.StatusBadRequest},
		{"zero id", "/api/v1/creatures/0", nil, http.StatusBadRequest},
		{"upstream down", "/api/v1/creatures/1", &provider.TransportError{Op: "fetch creature", StatusCode: 503, Err: errors.New("unavailable")}, http.StatusBadGateway},
		{"bad payload", "/api/v1/creatures/1", &provider.SchemaError{Op: "fetch creature", Err: errors.New("missing id")}, http.StatusBadGateway},
		{"storage", "/api/v1/creatures/1", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dex := newFakeDex()
			dex.fetchErr = tt.fetchErr
			srv := newTestServer(t, dex)
			status, body := do(t, http.MethodGet, srv.URL+tt.path)
			if status != tt.want {
				t.Errorf("status = %d, want %d (%s)", status, tt.want, body.Error)
			}
			if body.Success || body.Error == "" {
				t.Errorf("expected error envelope, got %+v", body)
			}
		})
	}
}

func TestListCreatures(t *testing.T) {
	dex := newFakeDex()
	srv := newTestServer(t, dex)

	status, _ := do(t, http.MethodGet, srv.URL+"/api/v1/creatures?offset=5&limit=10&type=fire&name=char")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	want := models.ListQuery{Offset: 5, Limit: 10, Type: "fire", Name: "char"}
	if dex.lastQuery != want {
		t.Errorf("query = %+v, want %+v", dex.lastQuery, want)
	}

	status, _ = do(t, http.MethodGet, srv.URL+"/api/v1/creatures?limit=ten")
	if status != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", status)
	}
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, newFakeDex())

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/search?q=char")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	data, _ := json.Marshal(body.Data)
	var recs []models.CreatureRecord
	json.Unmarshal(data, &recs)
	if len(recs) != 1 || recs[0].ID != 4 {
		t.Errorf("search = %+v", recs)
	}

	status, _ = do(t, http.MethodGet, srv.URL+"/api/v1/search")
	if status != http.StatusBadRequest {
		t.Errorf("missing q status = %d, want 400", status)
	}
}

func TestStatBlock(t *testing.T) {
	dex := newFakeDex()
	srv := newTestServer(t, dex)

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/creatures/1/statblock?level=20")
	if status != http.StatusOK {
		t.Fatalf("status = %d (%s)", status, body.Error)
	}
	if dex.lastLevel != 20 {
		t.Errorf("level = %d, want 20", dex.lastLevel)
	}

	resp, err := http.Get(srv.URL + "/api/v1/creatures/1/statblock?format=text")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(resp.Body)
	if dex.lastLevel != defaultLevel {
		t.Errorf("default level = %d, want %d", dex.lastLevel, defaultLevel)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Errorf("content type = %s", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(text), "Hit Points: 400") {
		t.Errorf("unexpected text block: %s", text)
	}

	status, _ = do(t, http.MethodGet, srv.URL+"/api/v1/creatures/1/statblock?format=xml")
	if status != http.StatusBadRequest {
		t.Errorf("bad format status = %d, want 400", status)
	}

	dex.lastLevel = -1
	status, body = do(t, http.MethodGet, srv.URL+"/api/v1/creatures/1/statblock?level=4611686018427387903")
	if status != http.StatusBadRequest {
		t.Errorf("huge level status = %d, want 400 (%s)", status, body.Error)
	}
	if dex.lastLevel != -1 {
		t.Errorf("huge level reached the converter: %d", dex.lastLevel)
	}
}

func TestCacheEndpoints(t *testing.T) {
	dex := newFakeDex()
	srv := newTestServer(t, dex)

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/cache/stats")
	if status != http.StatusOK {
		t.Fatalf("stats status = %d", status)
	}
	data, _ := json.Marshal(body.Data)
	var stats models.CacheStats
	json.Unmarshal(data, &stats)
	if stats.Entries != 2 || stats.Hits != 3 {
		t.Errorf("stats = %+v", stats)
	}

	status, body = do(t, http.MethodDelete, srv.URL+"/api/v1/cache/expired")
	if status != http.StatusOK {
		t.Fatalf("expired status = %d", status)
	}
	if removed := body.Data.(map[string]any)["removed"]; removed != float64(4) {
		t.Errorf("removed = %v, want 4", removed)
	}

	status, _ = do(t, http.MethodDelete, srv.URL+"/api/v1/cache")
	if status != http.StatusOK || !dex.cleared {
		t.Errorf("clear status = %d cleared = %v", status, dex.cleared)
	}
}

func TestInitializeCache(t *testing.T) {
	dex := newFakeDex()
	srv := newTestServer(t, dex)

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/cache/initialize?generation=3")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("status = %d %+v", status, body)
	}
	if dex.lastGen != 3 {
		t.Errorf("generation = %d, want 3", dex.lastGen)
	}

	dex.bulkErr = context.Canceled
	status, body = do(t, http.MethodPost, srv.URL+"/api/v1/cache/initialize")
	if status != http.StatusServiceUnavailable {
		t.Errorf("interrupted status = %d, want 503", status)
	}
	if body.Data == nil {
		t.Error("expected partial summary in interrupted response")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, newFakeDex())

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "dragonites_cache_lookups_total") {
		t.Errorf("metrics body missing cache counter:\n%s", body)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler(), nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
