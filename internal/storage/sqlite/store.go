// Package sqlite keeps archived games in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xtding233/doko-backend/internal/session"
	"github.com/xtding233/doko-backend/internal/storage/sqlite/migrations"
)

// Store implements session.Archive.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ session.Archive = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the archive database and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveGame inserts g, replacing an earlier archive of the same game.
func (s *Store) SaveGame(ctx context.Context, g session.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	players, err := json.Marshal(g.Participants)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	rounds, err := json.Marshal(g.Rounds)
	if err != nil {
		return fmt.Errorf("encode rounds: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO games (id, created_at, archived_at, ruleset, value_pair, solo_value, players, rounds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   archived_at = excluded.archived_at,
		   ruleset = excluded.ruleset,
		   value_pair = excluded.value_pair,
		   solo_value = excluded.solo_value,
		   players = excluded.players,
		   rounds = excluded.rounds`,
		g.ID,
		toMillis(g.CreatedAt),
		toMillis(s.now()),
		g.Ruleset,
		g.ValuePair,
		g.SoloValue,
		string(players),
		string(rounds),
	)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// GetGame loads one archived game.
func (s *Store) GetGame(ctx context.Context, id string) (session.Game, error) {
	if err := ctx.Err(); err != nil {
		return session.Game{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, created_at, ruleset, value_pair, solo_value, players, rounds
		 FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Game{}, fmt.Errorf("%w: %s", session.ErrGameNotFound, id)
	}
	if err != nil {
		return session.Game{}, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

// ListGames returns every archived game, most recently archived first.
func (s *Store) ListGames(ctx context.Context) ([]session.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, created_at, ruleset, value_pair, solo_value, players, rounds
		 FROM games ORDER BY archived_at DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := make([]session.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("list games: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// DeleteGame removes one archived game.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", session.ErrGameNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (session.Game, error) {
	var (
		g               session.Game
		createdAt       int64
		players, rounds string
	)
	if err := row.Scan(&g.ID, &createdAt, &g.Ruleset, &g.ValuePair, &g.SoloValue, &players, &rounds); err != nil {
		return session.Game{}, err
	}
	g.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(players), &g.Participants); err != nil {
		return session.Game{}, fmt.Errorf("decode players of %s: %w", g.ID, err)
	}
	if err := json.Unmarshal([]byte(rounds), &g.Rounds); err != nil {
		return session.Game{}, fmt.Errorf("decode rounds of %s: %w", g.ID, err)
	}
	return g, nil
}
