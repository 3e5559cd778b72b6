package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
)

// Provider drives one OAuth provider's authorization-code flow.
type Provider interface {
	// Name returns the platform name ("linkedin").
	Name() string
	// AuthCodeURL builds the provider authorization URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades the single-use authorization code for an access token.
	Exchange(ctx context.Context, code string) (string, error)
	// FetchProfile loads the provider userinfo with the access token.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// CallbackQuery is the provider callback's query parameters.
type CallbackQuery struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Exchange converts an inbound authorization callback into a verified
// identity bound to the caller's session.
//
// The state nonce issued by Initiate is the CSRF defense: a callback is
// only honored when its state equals the nonce persisted on the victim's
// own session, and the bind consumes the nonce so it is single use.
type Exchange struct {
	provider Provider
	service  *Service
}

// NewExchange builds the exchange for one provider.
func NewExchange(provider Provider, service *Service) *Exchange {
	return &Exchange{provider: provider, service: service}
}

// Initiate stores a fresh state nonce on the session and returns the
// provider authorization URL. The session write must complete before the
// caller is redirected: the callback may land on another replica and can
// only trust persisted state. On a failed write no URL is returned.
func (e *Exchange) Initiate(ctx context.Context, session *domain.Session) (string, error) {
	state, err := newStateNonce()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	session.OAuthState = state
	if err := e.service.sessions.Save(ctx, session); err != nil {
		return "", domerrors.NewFlowError(domerrors.ReasonSessionPersist, fmt.Errorf("persist state: %w", err))
	}
	return e.provider.AuthCodeURL(state), nil
}

// Callback runs the full exchange: provider error passthrough, state
// verification against the persisted session, code-for-token exchange,
// profile fetch, identity upsert and session bind. Every failure is a
// FlowError; none are retried.
//
// The session is re-fetched from the store by id rather than trusted from
// request-local memory, guarding against stale in-memory copies on
// concurrent requests.
func (e *Exchange) Callback(ctx context.Context, sessionID string, query CallbackQuery) (*domain.Identity, error) {
	if query.Error != "" {
		// Provider-reported failure: no state check, the provider's own
		// code travels back to the frontend.
		return nil, domerrors.NewFlowError(query.Error, errors.New(query.ErrorDescription))
	}

	session, err := e.service.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, domerrors.NewFlowError(domerrors.ReasonNoSession, err)
	}

	if session.OAuthState == "" || session.OAuthState != query.State {
		return nil, domerrors.NewFlowError(domerrors.ReasonStateMismatch,
			errors.New("callback state does not match stored nonce"))
	}

	token, err := e.provider.Exchange(ctx, query.Code)
	if err != nil {
		// The authorization code is single use at the provider; a failed
		// exchange is terminal for this attempt.
		return nil, domerrors.NewFlowError(domerrors.ReasonTokenExchange, err)
	}

	profile, err := e.provider.FetchProfile(ctx, token)
	if err != nil {
		return nil, domerrors.NewFlowError(domerrors.ReasonProfileFetch, err)
	}

	return e.service.CompleteLogin(ctx, session, e.provider.Name(), *profile)
}

// newStateNonce returns a cryptographically random state value.
func newStateNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
