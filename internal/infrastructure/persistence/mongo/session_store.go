package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hamidnorouzi/taskpilot/internal/application/ports"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
)

// SessionStore implements ports.SessionStore on the sessions collection.
// Used when no Redis is configured. Mongo's TTL monitor reaps expired
// documents lazily, so Get also filters on expiresAt.
type SessionStore struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewSessionStore(db *mongo.Database, ttl time.Duration) *SessionStore {
	return &SessionStore{col: db.Collection("sessions"), ttl: ttl}
}

// EnsureIndexes creates the TTL index on expiresAt.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	filter := bson.M{"_id": id, "expiresAt": bson.M{"$gt": time.Now()}}
	if err := s.col.FindOne(ctx, filter).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domerrors.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(s.ttl)
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, opts)
	return err
}

func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *SessionStore) Touch(ctx context.Context, id string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"expiresAt": time.Now().Add(s.ttl)}})
	return err
}

var _ ports.SessionStore = (*SessionStore)(nil)
