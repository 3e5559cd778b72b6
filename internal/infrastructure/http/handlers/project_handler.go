package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hamidnorouzi/taskpilot/internal/application/auth"
	"github.com/hamidnorouzi/taskpilot/internal/application/ports"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/middleware"
)

// ProjectHandler serves /api/projects. Every operation is scoped to the
// caller's identity when the session is authenticated.
type ProjectHandler struct {
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	log      zerolog.Logger
}

func NewProjectHandler(projects ports.ProjectRepository, tasks ports.TaskRepository, log zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, tasks: tasks, log: log}
}

type createProjectRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	project := &domain.Project{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Owner:       owner,
	}
	if err := h.projects.Insert(r.Context(), project); err != nil {
		h.log.Error().Err(err).Msg("insert project")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	projects, err := h.projects.Find(r.Context(), owner)
	if err != nil {
		h.log.Error().Err(err).Msg("list projects")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	project, err := h.projects.FindByID(r.Context(), id, owner)
	if err != nil {
		h.writeProjectErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var update domain.ProjectUpdate
	if !decodeAndValidate(w, r, &update) {
		return
	}
	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	project, err := h.projects.Update(r.Context(), id, owner, update)
	if err != nil {
		h.writeProjectErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Delete removes the project and cascades to its tasks. The cascade is
// not transactional: a crash between the two deletes leaves orphaned
// tasks rather than a resurrected project.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	owner := auth.Owner(middleware.SessionFromContext(r.Context()))
	if err := h.projects.Delete(r.Context(), id, owner); err != nil {
		h.writeProjectErr(w, err)
		return
	}
	deleted, err := h.tasks.DeleteByProject(r.Context(), id, owner)
	if err != nil {
		h.log.Error().Err(err).Str("project_id", id.Hex()).Msg("cascade delete tasks")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "failed to delete project tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Project deleted successfully",
		"deletedTasks": deleted,
	})
}

func (h *ProjectHandler) writeProjectErr(w http.ResponseWriter, err error) {
	if errors.Is(err, domerrors.ErrProjectNotFound) {
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "project not found")
		return
	}
	h.log.Error().Err(err).Msg("project operation")
	writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
}

// pathID parses the {id} URL parameter. A malformed id is a client
// error, not an internal one.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, domerrors.ErrInvalidID.Error())
		return primitive.NilObjectID, false
	}
	return id, true
}
