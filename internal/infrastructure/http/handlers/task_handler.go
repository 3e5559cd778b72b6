package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hamidnorouzi/taskpilot/internal/application/auth"
	"github.com/hamidnorouzi/taskpilot/internal/application/ports"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/middleware"
)

// TaskHandler serves /api/tasks.
type TaskHandler struct {
	tasks    ports.TaskRepository
	projects ports.ProjectRepository
	log      zerolog.Logger
}

func NewTaskHandler(tasks ports.TaskRepository, projects ports.ProjectRepository, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, projects: projects, log: log}
}

type createTaskRequest struct {
	Project     string     `json:"project" validate:"required"`
	Name        string     `json:"name" validate:"required"`
	Description *string    `json:"description"`
	Duration    *int       `json:"duration"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// Create validates the project reference before inserting: the project
// must exist and, when the caller is authenticated, belong to them. The
// reference is not re-checked on later updates.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	projectID, err := primitive.ObjectIDFromHex(req.Project)
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, domerrors.ErrInvalidID.Error())
		return
	}

	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	if _, err := h.projects.FindByID(r.Context(), projectID, owner); err != nil {
		if errors.Is(err, domerrors.ErrProjectNotFound) {
			writeErr(w, http.StatusNotFound, ErrCodeNotFound, "project not found")
			return
		}
		h.log.Error().Err(err).Msg("check task project")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}

	task := &domain.Task{
		Project:     projectID,
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Owner:       owner,
	}
	if err := h.tasks.Insert(r.Context(), task); err != nil {
		h.log.Error().Err(err).Msg("insert task")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// List returns the caller's tasks, optionally filtered by ?project=<id>.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var project *primitive.ObjectID
	if raw := r.URL.Query().Get("project"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, domerrors.ErrInvalidID.Error())
			return
		}
		project = &id
	}

	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	tasks, err := h.tasks.Find(r.Context(), owner, project)
	if err != nil {
		h.log.Error().Err(err).Msg("list tasks")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	task, err := h.tasks.FindByID(r.Context(), id, owner)
	if err != nil {
		h.writeTaskErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var update domain.TaskUpdate
	if !decodeAndValidate(w, r, &update) {
		return
	}
	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	task, err := h.tasks.Update(r.Context(), id, owner, update)
	if err != nil {
		h.writeTaskErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	if err := h.tasks.Delete(r.Context(), id, owner); err != nil {
		h.writeTaskErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) writeTaskErr(w http.ResponseWriter, err error) {
	if errors.Is(err, domerrors.ErrTaskNotFound) {
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "task not found")
		return
	}
	h.log.Error().Err(err).Msg("task operation")
	writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
}
