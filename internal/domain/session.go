package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the server-side session record behind the sessionId cookie.
// UserID is set once an identity is bound; OAuthState holds the pending
// CSRF nonce of an in-flight OAuth handshake.
type Session struct {
	ID         string              `bson:"_id" json:"id"`
	UserID     *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	OAuthState string              `bson:"oauthState,omitempty" json:"oauthState,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	ExpiresAt  time.Time           `bson:"expiresAt" json:"expiresAt"`
}

// Authenticated reports whether an identity is bound to the session.
func (s *Session) Authenticated() bool { return s != nil && s.UserID != nil }

// Bind returns a copy of the session bound to the given identity.
// The pending OAuth state is consumed: a bound session carries no nonce.
func (s Session) Bind(userID primitive.ObjectID) Session {
	s.UserID = &userID
	s.OAuthState = ""
	return s
}

// Unbind returns a copy of the session with no identity bound.
func (s Session) Unbind() Session {
	s.UserID = nil
	return s
}
