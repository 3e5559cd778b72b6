package ports

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hamidnorouzi/taskpilot/internal/domain"
)

// SessionStore persists session records keyed by session id.
type SessionStore interface {
	// Get returns the session by id, or domain errors.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Save writes the session durably (create or replace). The write must
	// complete before any redirect that depends on the stored state.
	Save(ctx context.Context, session *domain.Session) error
	// Destroy removes the session. Destroying an absent session is not an error.
	Destroy(ctx context.Context, id string) error
	// Touch extends the session expiry to a full TTL from now.
	Touch(ctx context.Context, id string) error
}

// IdentityStore persists user identities keyed by (socialId, platform).
type IdentityStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Identity, error)
	// Upsert creates the identity if absent, otherwise refreshes its
	// mutable profile fields and lastLogin. Returns the stored record.
	Upsert(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
}

// ProjectRepository defines persistence for projects. A nil owner means
// the caller is unauthenticated and no owner filter applies.
type ProjectRepository interface {
	Insert(ctx context.Context, project *domain.Project) error
	Find(ctx context.Context, owner *primitive.ObjectID) ([]domain.Project, error)
	FindByID(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*domain.Project, error)
	// Update applies a partial merge and returns the updated document,
	// or errors.ErrProjectNotFound when id/owner match nothing.
	Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update domain.ProjectUpdate) (*domain.Project, error)
	Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error
}

// TaskRepository defines persistence for tasks, owner-scoped like
// ProjectRepository. Find optionally filters by the referenced project.
type TaskRepository interface {
	Insert(ctx context.Context, task *domain.Task) error
	Find(ctx context.Context, owner *primitive.ObjectID, project *primitive.ObjectID) ([]domain.Task, error)
	FindByID(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*domain.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update domain.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error
	// DeleteByProject removes every task referencing the project and
	// returns the number deleted. Used by the project cascade delete.
	DeleteByProject(ctx context.Context, project primitive.ObjectID, owner *primitive.ObjectID) (int64, error)
}
