// Package roster keeps trainers and the creatures they have captured.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darkcaves/dragonites/pkg/models"
)

var (
	ErrTrainerNotFound = errors.New("trainer not found")
	ErrCaptureNotFound = errors.New("captured creature not found")
	ErrInvalidLevel    = errors.New("level must be between 1 and 100")
	ErrInvalidName     = errors.New("trainer name is required")
)

const (
	MinLevel = 1
	MaxLevel = 100
)

// timeLayout is fixed width so captured_at sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Roster records trainers and their captured creatures.
type Roster interface {
	// CreateTrainer stores a new trainer and returns its id.
	CreateTrainer(ctx context.Context, name string) (int64, error)
	// GetTrainer returns ErrTrainerNotFound for unknown ids.
	GetTrainer(ctx context.Context, id int64) (models.Trainer, error)
	// Capture adds a creature to a trainer's roster and returns the entry id.
	Capture(ctx context.Context, req models.CaptureRequest) (int64, error)
	// ListCaptured returns a trainer's roster, newest first.
	ListCaptured(ctx context.Context, trainerID int64) ([]models.CapturedCreature, error)
	// GetCaptured returns a single roster entry.
	GetCaptured(ctx context.Context, id int64) (models.CapturedCreature, error)
	// UpdateLevel changes the level of a roster entry.
	UpdateLevel(ctx context.Context, id int64, level int) error
	// Release removes a roster entry.
	Release(ctx context.Context, id int64) error
}

// SQLiteRoster implements Roster on the shared SQLite database.
type SQLiteRoster struct {
	db  *sql.DB
	now func() time.Time
}

const createTrainersTable = `
CREATE TABLE IF NOT EXISTS trainers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

const createCapturedTable = `
CREATE TABLE IF NOT EXISTS captured_creatures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	creature_id INTEGER NOT NULL,
	trainer_id INTEGER NOT NULL REFERENCES trainers(id),
	nickname TEXT NOT NULL DEFAULT '',
	level INTEGER NOT NULL,
	experience INTEGER NOT NULL DEFAULT 0,
	is_shiny INTEGER NOT NULL DEFAULT 0,
	captured_at TEXT NOT NULL
)`

const createCapturedIndex = `CREATE INDEX IF NOT EXISTS idx_captured_trainer ON captured_creatures(trainer_id, captured_at)`

// New runs the roster migrations on db. The caller owns db.
func New(db *sql.DB) (*SQLiteRoster, error) {
	for _, stmt := range []string{createTrainersTable, createCapturedTable, createCapturedIndex} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("migrate roster db: %w", err)
		}
	}
	return &SQLiteRoster{db: db, now: time.Now}, nil
}

func (r *SQLiteRoster) CreateTrainer(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidName
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trainers (name, created_at) VALUES (?, ?)`,
		name, formatTime(r.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("create trainer: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRoster) GetTrainer(ctx context.Context, id int64) (models.Trainer, error) {
	var t models.Trainer
	var created string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM trainers WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trainer{}, ErrTrainerNotFound
	}
	if err != nil {
		return models.Trainer{}, fmt.Errorf("get trainer: %w", err)
	}
	t.CreatedAt = parseTime(created)
	return t, nil
}

func (r *SQLiteRoster) Capture(ctx context.Context, req models.CaptureRequest) (int64, error) {
	if req.Level < MinLevel || req.Level > MaxLevel {
		return 0, ErrInvalidLevel
	}
	if req.CreatureID <= 0 {
		return 0, fmt.Errorf("capture: creature id must be positive")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("capture: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM trainers WHERE id = ?`, req.TrainerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTrainerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("capture: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO captured_creatures (creature_id, trainer_id, nickname, level, experience, is_shiny, captured_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		req.CreatureID, req.TrainerID, strings.TrimSpace(req.Nickname), req.Level, req.Shiny, formatTime(r.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("capture: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("capture: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("capture: %w", err)
	}
	return id, nil
}

func (r *SQLiteRoster) ListCaptured(ctx context.Context, trainerID int64) ([]models.CapturedCreature, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, creature_id, trainer_id, nickname, level, experience, is_shiny, captured_at
		 FROM captured_creatures WHERE trainer_id = ?
		 ORDER BY captured_at DESC, id DESC`, trainerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list captured: %w", err)
	}
	defer rows.Close()

	out := []models.CapturedCreature{}
	for rows.Next() {
		c, err := scanCaptured(rows)
		if err != nil {
			return nil, fmt.Errorf("list captured: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRoster) GetCaptured(ctx context.Context, id int64) (models.CapturedCreature, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, creature_id, trainer_id, nickname, level, experience, is_shiny, captured_at
		 FROM captured_creatures WHERE id = ?`, id,
	)
	c, err := scanCaptured(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CapturedCreature{}, ErrCaptureNotFound
	}
	if err != nil {
		return models.CapturedCreature{}, fmt.Errorf("get captured: %w", err)
	}
	return c, nil
}

func (r *SQLiteRoster) UpdateLevel(ctx context.Context, id int64, level int) error {
	if level < MinLevel || level > MaxLevel {
		return ErrInvalidLevel
	}
	res, err := r.db.ExecContext(ctx, `UPDATE captured_creatures SET level = ? WHERE id = ?`, level, id)
	if err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	return requireRow(res, ErrCaptureNotFound)
}

func (r *SQLiteRoster) Release(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM captured_creatures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	return requireRow(res, ErrCaptureNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCaptured(s scanner) (models.CapturedCreature, error) {
	var c models.CapturedCreature
	var captured string
	if err := s.Scan(&c.ID, &c.CreatureID, &c.TrainerID, &c.Nickname, &c.Level, &c.Experience, &c.Shiny, &captured); err != nil {
		return models.CapturedCreature{}, err
	}
	c.CapturedAt = parseTime(captured)
	return c, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, raw)
	return t
}
