package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hamidnorouzi/taskpilot/internal/application/ports"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
)

// ProjectRepository implements ports.ProjectRepository on the projects
// collection.
type ProjectRepository struct {
	col *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{col: db.Collection("projects")}
}

func (r *ProjectRepository) Insert(ctx context.Context, project *domain.Project) error {
	now := time.Now()
	project.ID = primitive.NewObjectID()
	project.CreatedAt = now
	project.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, project)
	return err
}

func (r *ProjectRepository) Find(ctx context.Context, owner *primitive.ObjectID) ([]domain.Project, error) {
	cur, err := r.col.Find(ctx, ownerFilter(owner))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	projects := []domain.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*domain.Project, error) {
	var project domain.Project
	err := r.col.FindOne(ctx, byID(id, owner)).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domerrors.ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update domain.ProjectUpdate) (*domain.Project, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.StartDate != nil {
		set["startDate"] = *update.StartDate
	}
	if update.EndDate != nil {
		set["endDate"] = *update.EndDate
	}

	res, err := r.col.UpdateOne(ctx, byID(id, owner), bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, domerrors.ErrProjectNotFound
	}
	return r.FindByID(ctx, id, owner)
}

func (r *ProjectRepository) Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, byID(id, owner))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domerrors.ErrProjectNotFound
	}
	return nil
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)
