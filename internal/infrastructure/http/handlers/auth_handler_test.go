package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// beginLogin starts the LinkedIn flow and returns the state nonce from
// the provider redirect.
func beginLogin(t *testing.T, env *testEnv, client *http.Client) string {
	t.Helper()
	resp, err := client.Get(env.server.URL + "/auth/linkedin")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("begin status = %d, want 302", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("provider redirect carries no state")
	}
	return state
}

// login runs the full LinkedIn flow for the client's session.
func login(t *testing.T, env *testEnv, client *http.Client) {
	t.Helper()
	state := beginLogin(t, env, client)
	resp, err := client.Get(env.server.URL + "/auth/linkedin/callback?code=test-code&state=" + state)
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("callback status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "http://frontend.example/profile" {
		t.Fatalf("callback redirect = %q, want frontend profile", loc)
	}
}

func assertErrorRedirect(t *testing.T, resp *http.Response, wantCode string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if !strings.HasPrefix(loc.String(), "http://frontend.example") {
		t.Fatalf("redirect %q should go to the frontend", loc)
	}
	if got := loc.Query().Get("error"); got != wantCode {
		t.Errorf("error code = %q, want %q", got, wantCode)
	}
}

func TestBeginSetsSessionCookieAndRedirects(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)

	resp, err := client.Get(env.server.URL + "/auth/linkedin")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.Contains(loc, "client_id=test-client-id") || !strings.Contains(loc, "response_type=code") {
		t.Errorf("provider URL missing authorization params: %q", loc)
	}

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "sessionId" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected sessionId cookie on first request")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if sessionCookie.MaxAge != 86400 {
		t.Errorf("cookie max age = %d, want 86400", sessionCookie.MaxAge)
	}
}

func TestBeginUnknownProvider(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)

	resp, err := client.Get(env.server.URL + "/auth/myspace")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCallbackSuccessThenProfile(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)
	login(t, env, client)

	resp, err := client.Get(env.server.URL + "/profile")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d, want 200", resp.StatusCode)
	}

	var profile map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile["name"] != "Test User" {
		t.Errorf("name = %v", profile["name"])
	}
	if profile["platform"] != "linkedin" {
		t.Errorf("platform = %v", profile["platform"])
	}
	if profile["lastLogin"] == nil {
		t.Error("profile should carry lastLogin")
	}
}

func TestProfileUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)

	resp, err := client.Get(env.server.URL + "/profile")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Unauthorized" {
		t.Errorf("error = %q, want Unauthorized", body["error"])
	}
}

func TestCallbackStateMismatchRedirectsWithError(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)
	beginLogin(t, env, client)

	resp, err := client.Get(env.server.URL + "/auth/linkedin/callback?code=test-code&state=forged")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	defer resp.Body.Close()
	assertErrorRedirect(t, resp, "state_mismatch")
}

func TestCallbackWithoutSessionRedirectsWithError(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)

	// No prior request: the browser holds no session cookie at all.
	resp, err := client.Get(env.server.URL + "/auth/linkedin/callback?code=c&state=s")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	defer resp.Body.Close()
	assertErrorRedirect(t, resp, "no_session")
}

func TestCallbackProviderErrorPassthrough(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)
	beginLogin(t, env, client)

	resp, err := client.Get(env.server.URL + "/auth/linkedin/callback?error=access_denied&error_description=user+cancelled")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	defer resp.Body.Close()
	assertErrorRedirect(t, resp, "access_denied")
}

func TestCallbackReplayFailsAfterSuccess(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)
	state := beginLogin(t, env, client)

	first, err := client.Get(env.server.URL + "/auth/linkedin/callback?code=test-code&state=" + state)
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	first.Body.Close()
	if first.StatusCode != http.StatusFound {
		t.Fatalf("first callback status = %d", first.StatusCode)
	}

	// The nonce was consumed by the successful bind.
	replay, err := client.Get(env.server.URL + "/auth/linkedin/callback?code=test-code&state=" + state)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	defer replay.Body.Close()
	assertErrorRedirect(t, replay, "state_mismatch")
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)
	login(t, env, client)

	resp, err := client.Get(env.server.URL + "/logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Logged out successfully" {
		t.Errorf("message = %q", body["message"])
	}

	after, err := client.Get(env.server.URL + "/profile")
	if err != nil {
		t.Fatalf("profile after logout: %v", err)
	}
	defer after.Body.Close()
	if after.StatusCode != http.StatusUnauthorized {
		t.Errorf("profile after logout = %d, want 401", after.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)

	resp, err := client.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}
