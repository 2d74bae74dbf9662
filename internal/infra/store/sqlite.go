package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tastemix/internal/domain/profile"
)

const schema = `
CREATE TABLE IF NOT EXISTS Profile (
  user_id TEXT PRIMARY KEY,
  party_readiness INTEGER NOT NULL,
  generated_at DATETIME NOT NULL,
  data TEXT NOT NULL
);
`

// SQLite stores profiles as JSON documents in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database at path and creates the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create tables")
	}

	return &SQLite{db: db}, nil
}

// Put replaces the stored profile of p.UserID.
func (s *SQLite) Put(ctx context.Context, p profile.Profile) error {
	data, err := encode(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO Profile (user_id, party_readiness, generated_at, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			party_readiness = excluded.party_readiness,
			generated_at = excluded.generated_at,
			data = excluded.data
	`, p.UserID, p.PartyReadiness, p.GeneratedAt.UTC(), string(data))
	if err != nil {
		return errors.Wrapf(err, "failed to write profile: user=%s", p.UserID)
	}

	zlog.Debug().Msgf("profile stored: user=%s bytes=%d", p.UserID, len(data))
	return nil
}

// Get returns the stored profile of userID or profile.ErrNotFound.
func (s *SQLite) Get(ctx context.Context, userID string) (profile.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM Profile WHERE user_id = ?", userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, errors.Wrapf(err, "failed to read profile: user=%s", userID)
	}
	return decode([]byte(data))
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
