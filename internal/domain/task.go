package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task belongs to exactly one Project. The project reference is validated
// when the task is created and not re-checked afterwards.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Project     primitive.ObjectID  `bson:"project" json:"project"`
	Name        string              `bson:"name" json:"name"`
	Description *string             `bson:"description,omitempty" json:"description,omitempty"`
	Duration    *int                `bson:"duration,omitempty" json:"duration,omitempty"`
	StartDate   *time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Owner       *primitive.ObjectID `bson:"owner,omitempty" json:"owner,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// TaskUpdate carries the fields of a partial task update.
// Nil fields are left unchanged.
type TaskUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Duration    *int       `json:"duration,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}
