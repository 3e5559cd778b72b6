package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Supported social login platforms.
const (
	PlatformGoogle   = "google"
	PlatformGitHub   = "github"
	PlatformLinkedIn = "linkedin"
)

// KnownPlatform reports whether p names a supported provider.
func KnownPlatform(p string) bool {
	switch p {
	case PlatformGoogle, PlatformGitHub, PlatformLinkedIn:
		return true
	}
	return false
}

// Identity is a user record established by a social login, unique per
// (SocialID, Platform). Mutable profile fields are refreshed on every
// successful login.
type Identity struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SocialID       string             `bson:"socialId" json:"socialId"`
	Platform       string             `bson:"platform" json:"platform"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	LastLogin      time.Time          `bson:"lastLogin" json:"lastLogin"`
}
