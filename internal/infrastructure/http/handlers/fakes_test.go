package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	appauth "github.com/hamidnorouzi/taskpilot/internal/application/auth"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
	infraauth "github.com/hamidnorouzi/taskpilot/internal/infrastructure/auth"
	httprouter "github.com/hamidnorouzi/taskpilot/internal/infrastructure/http"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/handlers"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/middleware"
)

// matchOwner mirrors the document-store access filter: a nil owner means
// no filter; otherwise only documents stamped with that owner match.
func matchOwner(docOwner, owner *primitive.ObjectID) bool {
	if owner == nil {
		return true
	}
	return docOwner != nil && *docOwner == *owner
}

type memSessionStore struct {
	mu      sync.Mutex
	records map[string]domain.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{records: make(map[string]domain.Session)}
}

func (m *memSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.records[id]
	if !ok {
		return nil, domerrors.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessionStore) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[s.ID] = *s
	return nil
}

func (m *memSessionStore) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memSessionStore) Touch(_ context.Context, _ string) error { return nil }

type memIdentityStore struct {
	mu      sync.Mutex
	records map[string]domain.Identity // keyed platform:socialId
}

func newMemIdentityStore() *memIdentityStore {
	return &memIdentityStore{records: make(map[string]domain.Identity)}
}

func (m *memIdentityStore) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ident := range m.records {
		if ident.ID == id {
			return &ident, nil
		}
	}
	return nil, domerrors.ErrIdentityNotFound
}

func (m *memIdentityStore) Upsert(_ context.Context, ident *domain.Identity) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := ident.Platform + ":" + ident.SocialID
	now := time.Now()
	existing, ok := m.records[k]
	if !ok {
		stored := *ident
		stored.ID = primitive.NewObjectID()
		stored.CreatedAt = now
		stored.LastLogin = now
		m.records[k] = stored
		return &stored, nil
	}
	existing.Name = ident.Name
	existing.Email = ident.Email
	existing.ProfilePicture = ident.ProfilePicture
	existing.LastLogin = now
	m.records[k] = existing
	return &existing, nil
}

type memProjectRepo struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]domain.Project
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{records: make(map[primitive.ObjectID]domain.Project)}
}

func (m *memProjectRepo) Insert(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.records[p.ID] = *p
	return nil
}

func (m *memProjectRepo) Find(_ context.Context, owner *primitive.ObjectID) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Project{}
	for _, p := range m.records {
		if matchOwner(p.Owner, owner) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProjectRepo) FindByID(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[id]
	if !ok || !matchOwner(p.Owner, owner) {
		return nil, domerrors.ErrProjectNotFound
	}
	return &p, nil
}

func (m *memProjectRepo) Update(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update domain.ProjectUpdate) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[id]
	if !ok || !matchOwner(p.Owner, owner) {
		return nil, domerrors.ErrProjectNotFound
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = update.Description
	}
	if update.StartDate != nil {
		p.StartDate = update.StartDate
	}
	if update.EndDate != nil {
		p.EndDate = update.EndDate
	}
	p.UpdatedAt = time.Now()
	m.records[id] = p
	return &p, nil
}

func (m *memProjectRepo) Delete(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[id]
	if !ok || !matchOwner(p.Owner, owner) {
		return domerrors.ErrProjectNotFound
	}
	delete(m.records, id)
	return nil
}

type memTaskRepo struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{records: make(map[primitive.ObjectID]domain.Task)}
}

func (m *memTaskRepo) Insert(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.records[t.ID] = *t
	return nil
}

func (m *memTaskRepo) Find(_ context.Context, owner *primitive.ObjectID, project *primitive.ObjectID) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Task{}
	for _, t := range m.records {
		if !matchOwner(t.Owner, owner) {
			continue
		}
		if project != nil && t.Project != *project {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memTaskRepo) FindByID(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.records[id]
	if !ok || !matchOwner(t.Owner, owner) {
		return nil, domerrors.ErrTaskNotFound
	}
	return &t, nil
}

func (m *memTaskRepo) Update(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update domain.TaskUpdate) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.records[id]
	if !ok || !matchOwner(t.Owner, owner) {
		return nil, domerrors.ErrTaskNotFound
	}
	if update.Name != nil {
		t.Name = *update.Name
	}
	if update.Description != nil {
		t.Description = update.Description
	}
	if update.Duration != nil {
		t.Duration = update.Duration
	}
	if update.StartDate != nil {
		t.StartDate = update.StartDate
	}
	if update.EndDate != nil {
		t.EndDate = update.EndDate
	}
	t.UpdatedAt = time.Now()
	m.records[id] = t
	return &t, nil
}

func (m *memTaskRepo) Delete(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.records[id]
	if !ok || !matchOwner(t.Owner, owner) {
		return domerrors.ErrTaskNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memTaskRepo) DeleteByProject(_ context.Context, project primitive.ObjectID, owner *primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, t := range m.records {
		if t.Project == project && matchOwner(t.Owner, owner) {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// testEnv is a full server wired like main: real router and session
// middleware over in-memory stores, plus a fake LinkedIn provider served
// by httptest endpoints.
type testEnv struct {
	server    *httptest.Server
	sessions  *memSessionStore
	projects  *memProjectRepo
	tasks     *memTaskRepo
	subjectID string // sub returned by the fake userinfo endpoint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		sessions:  newMemSessionStore(),
		projects:  newMemProjectRepo(),
		tasks:     newMemTaskRepo(),
		subjectID: "li-sub-1",
	}

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "test-token", "expires_in": 3600})
	}))
	t.Cleanup(tokenServer.Close)

	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":     env.subjectID,
			"name":    "Test User",
			"email":   "user@example.com",
			"picture": "https://media.example/u.png",
		})
	}))
	t.Cleanup(userInfoServer.Close)

	identities := newMemIdentityStore()
	service := appauth.NewService(identities, env.sessions)
	linkedin := infraauth.NewLinkedIn(infraauth.LinkedInConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost/auth/linkedin/callback",
		TokenURL:     tokenServer.URL,
		UserInfoURL:  userInfoServer.URL,
	})
	exchanges := map[string]*appauth.Exchange{
		linkedin.Name(): appauth.NewExchange(linkedin, service),
	}

	log := zerolog.Nop()
	sessions := middleware.NewSessionManager(env.sessions, middleware.SessionConfig{
		TTL:    24 * time.Hour,
		Secure: false,
	}, log)

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:    handlers.NewAuthHandler(service, exchanges, sessions, "http://frontend.example", log),
		ProjectHandler: handlers.NewProjectHandler(env.projects, env.tasks, log),
		TaskHandler:    handlers.NewTaskHandler(env.tasks, env.projects, log),
		Sessions:       sessions,
	})

	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

// newClient returns a browser-like client: cookie jar, no redirect
// following (tests assert on Location headers).
func (env *testEnv) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
