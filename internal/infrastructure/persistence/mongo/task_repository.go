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

// TaskRepository implements ports.TaskRepository on the tasks collection.
type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection("tasks")}
}

func (r *TaskRepository) Insert(ctx context.Context, task *domain.Task) error {
	now := time.Now()
	task.ID = primitive.NewObjectID()
	task.CreatedAt = now
	task.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, task)
	return err
}

func (r *TaskRepository) Find(ctx context.Context, owner *primitive.ObjectID, project *primitive.ObjectID) ([]domain.Task, error) {
	filter := ownerFilter(owner)
	if project != nil {
		filter["project"] = *project
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := []domain.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*domain.Task, error) {
	var task domain.Task
	err := r.col.FindOne(ctx, byID(id, owner)).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domerrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update domain.TaskUpdate) (*domain.Task, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Duration != nil {
		set["duration"] = *update.Duration
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
		return nil, domerrors.ErrTaskNotFound
	}
	return r.FindByID(ctx, id, owner)
}

func (r *TaskRepository) Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, byID(id, owner))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domerrors.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteByProject(ctx context.Context, project primitive.ObjectID, owner *primitive.ObjectID) (int64, error) {
	filter := ownerFilter(owner)
	filter["project"] = project
	res, err := r.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

var _ ports.TaskRepository = (*TaskRepository)(nil)
