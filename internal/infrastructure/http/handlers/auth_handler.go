package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog"

	"github.com/hamidnorouzi/taskpilot/internal/application/auth"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
	domerrors "github.com/hamidnorouzi/taskpilot/internal/domain/errors"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/middleware"
)

// AuthHandler serves the social login routes. LinkedIn runs the manual
// exchange with a session-persisted state nonce; Google and GitHub
// delegate state handling to gothic and join at the identity bind.
type AuthHandler struct {
	service     *auth.Service
	exchanges   map[string]*auth.Exchange
	sessions    *middleware.SessionManager
	frontendURL string
	log         zerolog.Logger
}

func NewAuthHandler(service *auth.Service, exchanges map[string]*auth.Exchange, sessions *middleware.SessionManager, frontendURL string, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:     service,
		exchanges:   exchanges,
		sessions:    sessions,
		frontendURL: frontendURL,
		log:         log,
	}
}

// Begin redirects to the provider authorization URL. Provider from URL:
// GET /auth/{provider}.
func (h *AuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !domain.KnownPlatform(provider) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown provider")
		return
	}

	if ex, ok := h.exchanges[provider]; ok {
		session := middleware.SessionFromContext(r.Context())
		authURL, err := ex.Initiate(r.Context(), session)
		if err != nil {
			// No redirect to the provider on a failed state persist.
			h.log.Error().Err(err).Str("provider", provider).Msg("initiate oauth")
			h.redirectError(w, r, err)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
		return
	}

	if _, err := goth.GetProvider(provider); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "provider not configured")
		return
	}
	// Gothic expects provider in query.
	r2 := withProviderQuery(r, provider)
	authURL, err := gothic.GetAuthURL(w, r2)
	if err != nil {
		h.log.Error().Err(err).Str("provider", provider).Msg("gothic auth url")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the flow: verified profile in, bound session out.
// Every failure redirects to the frontend with a reason code; the
// browser never sees a raw 5xx here.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !domain.KnownPlatform(provider) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown provider")
		return
	}

	if ex, ok := h.exchanges[provider]; ok {
		h.manualCallback(w, r, provider, ex)
		return
	}
	h.gothicCallback(w, r, provider)
}

func (h *AuthHandler) manualCallback(w http.ResponseWriter, r *http.Request, provider string, ex *auth.Exchange) {
	// The session id comes from the request cookie, not the middleware
	// copy: the exchange re-fetches the record so the state check runs
	// against persisted data.
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		middleware.RecordLoginAttempt(provider, false)
		h.redirectError(w, r, domerrors.NewFlowError(domerrors.ReasonNoSession, nil))
		return
	}

	q := r.URL.Query()
	identity, err := ex.Callback(r.Context(), cookie.Value, auth.CallbackQuery{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	if err != nil {
		middleware.RecordLoginAttempt(provider, false)
		h.log.Warn().Err(err).Str("provider", provider).Msg("oauth callback failed")
		h.redirectError(w, r, err)
		return
	}

	middleware.RecordLoginAttempt(provider, true)
	h.log.Info().Str("provider", provider).Str("identity_id", identity.ID.Hex()).Msg("login")
	http.Redirect(w, r, h.frontendURL+"/profile", http.StatusFound)
}

func (h *AuthHandler) gothicCallback(w http.ResponseWriter, r *http.Request, provider string) {
	r2 := withProviderQuery(r, provider)
	gothUser, err := gothic.CompleteUserAuth(w, r2)
	if err != nil {
		middleware.RecordLoginAttempt(provider, false)
		h.log.Warn().Err(err).Str("provider", provider).Msg("gothic callback failed")
		h.redirectError(w, r, domerrors.NewFlowError(domerrors.ReasonLoginFailed, err))
		return
	}

	session := middleware.SessionFromContext(r.Context())
	identity, err := h.service.CompleteLogin(r.Context(), session, provider, auth.Profile{
		SubjectID: gothUser.UserID,
		Name:      gothUser.Name,
		Email:     gothUser.Email,
		Picture:   gothUser.AvatarURL,
	})
	if err != nil {
		middleware.RecordLoginAttempt(provider, false)
		h.log.Error().Err(err).Str("provider", provider).Msg("complete login")
		h.redirectError(w, r, err)
		return
	}

	middleware.RecordLoginAttempt(provider, true)
	h.log.Info().Str("provider", provider).Str("identity_id", identity.ID.Hex()).Msg("login")
	http.Redirect(w, r, h.frontendURL+"/profile", http.StatusFound)
}

// Profile returns the identity bound to the session.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if !session.Authenticated() {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Unauthorized")
		return
	}
	identity, err := h.service.CurrentIdentity(r.Context(), session)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":           identity.Name,
		"email":          identity.Email,
		"profilePicture": identity.ProfilePicture,
		"platform":       identity.Platform,
		"lastLogin":      identity.LastLogin,
	})
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session != nil {
		if err := h.service.Logout(r.Context(), session); err != nil {
			h.log.Error().Err(err).Msg("logout")
			writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
			return
		}
	}
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// redirectError sends the browser back to the frontend with a
// machine-readable reason code.
func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, err error) {
	code := domerrors.ReasonLoginFailed
	if fe := domerrors.AsFlowError(err); fe != nil {
		code = fe.Code
	}
	http.Redirect(w, r, h.frontendURL+"?error="+url.QueryEscape(code), http.StatusFound)
}

// withProviderQuery clones the request with the provider name in the
// query, where gothic looks for it.
func withProviderQuery(r *http.Request, provider string) *http.Request {
	r2 := r.Clone(r.Context())
	q := r2.URL.Query()
	q.Set("provider", provider)
	r2.URL.RawQuery = q.Encode()
	return r2
}
