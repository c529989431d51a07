package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/interstellar-mare/advisor/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL UNIQUE REFERENCES profiles(id),
	messages   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_profiles_session_id ON profiles(session_id);
CREATE INDEX IF NOT EXISTS idx_conversations_profile_id ON conversations(profile_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetProfileBySession(ctx context.Context, sessionID string) (*model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM profiles WHERE session_id = ?`,
		sessionID,
	)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get profile")
	}

	var p model.UserProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	return &p, nil
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, session_id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		profile.ID.String(), profile.SessionID, string(data), profile.CreatedAt, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save profile %s", profile.SessionID)
}

func (s *SQLiteStore) GetConversationByProfile(ctx context.Context, profileID uuid.UUID) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, messages, created_at, updated_at FROM conversations WHERE profile_id = ?`,
		profileID.String(),
	)

	var c model.Conversation
	var id, pid, messagesJSON string
	err := row.Scan(&id, &pid, &messagesJSON, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get conversation")
	}

	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrap(err, "sqlite: parse conversation id")
	}
	if c.ProfileID, err = uuid.Parse(pid); err != nil {
		return nil, eris.Wrap(err, "sqlite: parse profile id")
	}
	if err := json.Unmarshal([]byte(messagesJSON), &c.Messages); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal messages")
	}
	return &c, nil
}

func (s *SQLiteStore) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal messages")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, profile_id, messages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(profile_id) DO UPDATE SET messages = excluded.messages, updated_at = excluded.updated_at`,
		conv.ID.String(), conv.ProfileID.String(), string(messagesJSON), conv.CreatedAt, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save conversation %s", conv.ID)
}
