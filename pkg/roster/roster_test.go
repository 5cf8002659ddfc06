package roster

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/storage"
)

func newTestRoster(t *testing.T) *SQLiteRoster {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "roster_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	r, err := New(db)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestCreateAndGetTrainer(t *testing.T) {
	r := newTestRoster(t)
	ctx := context.Background()

	id, err := r.CreateTrainer(ctx, "  Red ")
	if err != nil {
		t.Fatal(err)
	}
	tr, err := r.GetTrainer(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Name != "Red" {
		t.Errorf("expected trimmed name, got %q", tr.Name)
	}
	if tr.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	if _, err := r.GetTrainer(ctx, id+100); !errors.Is(err, ErrTrainerNotFound) {
		t.Errorf("expected ErrTrainerNotFound, got %v", err)
	}
	if _, err := r.CreateTrainer(ctx, "   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestCaptureAndList(t *testing.T) {
	r := newTestRoster(t)
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	trainer, _ := r.CreateTrainer(ctx, "Blue")
	first, err := r.Capture(ctx, models.CaptureRequest{TrainerID: trainer, CreatureID: 133, Nickname: "Eevee", Level: 5})
	if err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(time.Minute)
	second, err := r.Capture(ctx, models.CaptureRequest{TrainerID: trainer, CreatureID: 6, Level: 36, Shiny: true})
	if err != nil {
		t.Fatal(err)
	}

	list, err := r.ListCaptured(ctx, trainer)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 captured, got %d", len(list))
	}
	if list[0].ID != second || list[1].ID != first {
		t.Errorf("expected newest first, got %d then %d", list[0].ID, list[1].ID)
	}
	if !list[0].Shiny || list[0].Level != 36 || list[0].CreatureID != 6 {
		t.Errorf("unexpected entry %+v", list[0])
	}
	if list[1].Nickname != "Eevee" || !list[1].CapturedAt.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected entry %+v", list[1])
	}

	empty, err := r.ListCaptured(ctx, trainer+1)
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty roster, got %#v", empty)
	}
}

func TestCaptureValidation(t *testing.T) {
	r := newTestRoster(t)
	ctx := context.Background()
	trainer, _ := r.CreateTrainer(ctx, "Green")

	if _, err := r.Capture(ctx, models.CaptureRequest{TrainerID: trainer + 9, CreatureID: 1, Level: 5}); !errors.Is(err, ErrTrainerNotFound) {
		t.Errorf("expected ErrTrainerNotFound, got %v", err)
	}
	for _, level := range []int{0, 101} {
		if _, err := r.Capture(ctx, models.CaptureRequest{TrainerID: trainer, CreatureID: 1, Level: level}); !errors.Is(err, ErrInvalidLevel) {
			t.Errorf("level %d: expected ErrInvalidLevel, got %v", level, err)
		}
	}
	if _, err := r.Capture(ctx, models.CaptureRequest{TrainerID: trainer, CreatureID: 0, Level: 5}); err == nil {
		t.Error("expected error for missing creature id")
	}
}

func TestUpdateLevelAndRelease(t *testing.T) {
	r := newTestRoster(t)
	ctx := context.Background()
	trainer, _ := r.CreateTrainer(ctx, "Ash")
	id, _ := r.Capture(ctx, models.CaptureRequest{TrainerID: trainer, CreatureID: 25, Level: 10})

	if err := r.UpdateLevel(ctx, id, 42); err != nil {
		t.Fatal(err)
	}
	got, err := r.GetCaptured(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != 42 {
		t.Errorf("expected level 42, got %d", got.Level)
	}
	if err := r.UpdateLevel(ctx, id, 200); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel, got %v", err)
	}
	if err := r.UpdateLevel(ctx, id+50, 20); !errors.Is(err, ErrCaptureNotFound) {
		t.Errorf("expected ErrCaptureNotFound, got %v", err)
	}

	if err := r.Release(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetCaptured(ctx, id); !errors.Is(err, ErrCaptureNotFound) {
		t.Errorf("expected released entry to be gone, got %v", err)
	}
	if err := r.Release(ctx, id); !errors.Is(err, ErrCaptureNotFound) {
		t.Errorf("expected second release to fail, got %v", err)
	}
}
