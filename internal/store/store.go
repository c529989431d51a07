// Package store persists profiles and conversations. Two implementations
// exist: SQLite for local/single-node deployments and Postgres for shared
// ones.
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/interstellar-mare/advisor/internal/model"
)

// ErrNotFound is returned when the requested entity does not exist. Callers
// use errors.Is to distinguish absence from failure.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for the advisor.
type Store interface {
	// Profiles
	GetProfileBySession(ctx context.Context, sessionID string) (*model.UserProfile, error)
	SaveProfile(ctx context.Context, profile *model.UserProfile) error

	// Conversations
	GetConversationByProfile(ctx context.Context, profileID uuid.UUID) (*model.Conversation, error)
	SaveConversation(ctx context.Context, conv *model.Conversation) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
