package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hamidnorouzi/taskpilot/internal/application/ports"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
)

// IdentityRepository implements ports.IdentityStore on the identities
// collection.
type IdentityRepository struct {
	col *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{col: db.Collection("identities")}
}

// EnsureIndexes creates the unique (socialId, platform) index. Concurrent
// first logins for the same subject collapse onto one record.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "socialId", Value: 1}, {Key: "platform", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *IdentityRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Identity, error) {
	var identity domain.Identity
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&identity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domerrors.ErrIdentityNotFound
		}
		return nil, err
	}
	return &identity, nil
}

// Upsert is a single atomic find-and-modify keyed (socialId, platform):
// mutable profile fields and lastLogin are refreshed on every login,
// createdAt only on first insert.
func (r *IdentityRepository) Upsert(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	now := time.Now()
	filter := bson.M{"socialId": identity.SocialID, "platform": identity.Platform}
	update := bson.M{
		"$set": bson.M{
			"name":           identity.Name,
			"email":          identity.Email,
			"profilePicture": identity.ProfilePicture,
			"lastLogin":      now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored domain.Identity
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

var _ ports.IdentityStore = (*IdentityRepository)(nil)
