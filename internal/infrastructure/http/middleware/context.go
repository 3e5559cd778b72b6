package middleware

import (
	"context"

	"github.com/hamidnorouzi/taskpilot/internal/domain"
)

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession injects the session into the context.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the session from the context, or nil.
func SessionFromContext(ctx context.Context) *domain.Session {
	v := ctx.Value(sessionContextKey)
	if v == nil {
		return nil
	}
	s, _ := v.(*domain.Session)
	return s
}
