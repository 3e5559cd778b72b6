package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hamidnorouzi/taskpilot/internal/application/ports"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
)

// SessionCookieName is the browser session cookie.
const SessionCookieName = "sessionId"

// SessionConfig controls the session middleware and cookie attributes.
type SessionConfig struct {
	TTL    time.Duration
	Secure bool
}

// SessionManager loads the caller's session on every request, creating
// and persisting a fresh one when the cookie is absent or stale, and
// injects it into the request context. Known sessions get their expiry
// refreshed (rolling TTL).
type SessionManager struct {
	store  ports.SessionStore
	config SessionConfig
	log    zerolog.Logger
}

func NewSessionManager(store ports.SessionStore, config SessionConfig, log zerolog.Logger) *SessionManager {
	return &SessionManager{store: store, config: config, log: log}
}

func (m *SessionManager) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, fresh := m.loadOrCreate(w, r)
		if session == nil {
			return
		}
		if !fresh {
			if err := m.store.Touch(r.Context(), session.ID); err != nil {
				m.log.Warn().Err(err).Str("session_id", session.ID).Msg("touch session")
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// loadOrCreate resolves the request's session. A nil return means the
// response has already been written (store failure).
func (m *SessionManager) loadOrCreate(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		session, err := m.store.Get(r.Context(), cookie.Value)
		if err == nil {
			return session, false
		}
		if !errors.Is(err, domerrors.ErrSessionNotFound) {
			m.log.Error().Err(err).Msg("load session")
			writeStoreError(w)
			return nil, false
		}
		// Unknown or expired session id: fall through and mint a new one.
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.TTL),
	}
	if err := m.store.Save(r.Context(), session); err != nil {
		m.log.Error().Err(err).Msg("create session")
		writeStoreError(w)
		return nil, false
	}
	m.SetCookie(w, session.ID)
	return session, true
}

// SetCookie writes the session cookie with the contract attributes:
// secure, SameSite=None, max age equal to the store TTL.
func (m *SessionManager) SetCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(m.config.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

// ClearCookie expires the session cookie on logout.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func writeStoreError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
}
