package auth

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hamidnorouzi/taskpilot/internal/application/ports"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
)

// Profile is the verified user info obtained from a provider after a
// successful authorization-code exchange.
type Profile struct {
	SubjectID string
	Name      string
	Email     string
	Picture   string
}

// Service binds provider-verified profiles to sessions and identities.
// Shared by the manual exchange flow and the library-delegated providers.
type Service struct {
	identities ports.IdentityStore
	sessions   ports.SessionStore
}

// NewService builds the login service.
func NewService(identities ports.IdentityStore, sessions ports.SessionStore) *Service {
	return &Service{identities: identities, sessions: sessions}
}

// CompleteLogin upserts the identity for (profile.SubjectID, platform),
// binds it to the session and persists the session. The pending OAuth
// state is consumed by the bind, so a replayed callback fails the state
// check on its next attempt.
func (s *Service) CompleteLogin(ctx context.Context, session *domain.Session, platform string, profile Profile) (*domain.Identity, error) {
	identity, err := s.identities.Upsert(ctx, &domain.Identity{
		SocialID:       profile.SubjectID,
		Platform:       platform,
		Name:           profile.Name,
		Email:          profile.Email,
		ProfilePicture: profile.Picture,
	})
	if err != nil {
		return nil, domerrors.NewFlowError(domerrors.ReasonLoginFailed, fmt.Errorf("upsert identity: %w", err))
	}

	*session = session.Bind(identity.ID)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, domerrors.NewFlowError(domerrors.ReasonSessionPersist, fmt.Errorf("persist session: %w", err))
	}
	return identity, nil
}

// Logout unbinds the identity and destroys the session record.
func (s *Service) Logout(ctx context.Context, session *domain.Session) error {
	*session = session.Unbind()
	return s.sessions.Destroy(ctx, session.ID)
}

// CurrentIdentity resolves the identity bound to the session, or
// errors.ErrIdentityNotFound when the session is unauthenticated.
func (s *Service) CurrentIdentity(ctx context.Context, session *domain.Session) (*domain.Identity, error) {
	if !session.Authenticated() {
		return nil, domerrors.ErrIdentityNotFound
	}
	return s.identities.FindByID(ctx, *session.UserID)
}

// Owner returns the access filter subject for the session: the bound
// identity id, or nil when unauthenticated.
func Owner(session *domain.Session) *primitive.ObjectID {
	if session.Authenticated() {
		return session.UserID
	}
	return nil
}
