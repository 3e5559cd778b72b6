package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a tracked project, optionally owned by an Identity.
// Deleting a project cascades to every Task referencing it.
type Project struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name        string              `bson:"name" json:"name"`
	Description *string             `bson:"description,omitempty" json:"description,omitempty"`
	StartDate   *time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Owner       *primitive.ObjectID `bson:"owner,omitempty" json:"owner,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ProjectUpdate carries the fields of a partial project update.
// Nil fields are left unchanged.
type ProjectUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}
