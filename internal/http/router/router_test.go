package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aromera/passport/internal/auth"
	authctrl "github.com/aromera/passport/internal/http/controllers/auth"
	healthctrl "github.com/aromera/passport/internal/http/controllers/health"
	"github.com/aromera/passport/internal/http/router"
	"github.com/aromera/passport/internal/identity/google"
	"github.com/aromera/passport/internal/security/password"
	"github.com/aromera/passport/internal/store/memory"
	"github.com/aromera/passport/internal/token"
)

type fakeVerifier struct {
	claims *google.Claims
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, idToken, audience string) (*google.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func newHandler(t *testing.T, verifier auth.ExternalVerifier) http.Handler {
	t.Helper()
	st := memory.New()
	codec, err := token.New("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	svc := auth.New(auth.Deps{
		Users:    st.Users(),
		Sessions: st.Sessions(),
		Codec:    codec,
		Google:   verifier,
		Hashing:  password.Params{Cost: 4},
	})
	return router.New(router.Deps{
		Auth:     authctrl.NewControllers(svc, st.Sessions()),
		Health:   healthctrl.NewController(healthctrl.Deps{}),
		Resolver: svc,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHandler(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"email":     "a@x.com",
		"password":  "secret123",
		"full_name": "Ana",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["email"] != "a@x.com" || body["provider"] != "email" {
		t.Fatalf("register body = %v", body)
	}
	if _, leaked := body["password_hash"]; leaked {
		t.Fatal("response leaks password hash")
	}

	rec = doJSON(t, h, http.MethodPost, "/login", map[string]string{
		"email":    "a@x.com",
		"password": "secret123",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control = %q", cc)
	}
	body = decode(t, rec)
	if body["access_token"] == "" || body["token_type"] != "bearer" {
		t.Fatalf("login body = %v", body)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newHandler(t, nil)

	payload := map[string]string{"email": "dup@x.com", "password": "pw123456"}
	if rec := doJSON(t, h, http.MethodPost, "/register", payload, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/register", payload, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second register status = %d", rec.Code)
	}
	if body := decode(t, rec); body["code"] != "email_taken" {
		t.Fatalf("error code = %v", body["code"])
	}
}

func TestRegisterMissingFields(t *testing.T) {
	h := newHandler(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/register", map[string]string{"email": "a@x.com"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

// Password incorrecto y email inexistente deben ser indistinguibles para
// el cliente.
func TestLoginUniformFailure(t *testing.T) {
	h := newHandler(t, nil)

	doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"email": "u@x.com", "password": "correct-pw",
	}, "")

	wrongPw := doJSON(t, h, http.MethodPost, "/login", map[string]string{
		"email": "u@x.com", "password": "wrong-pw",
	}, "")
	unknown := doJSON(t, h, http.MethodPost, "/login", map[string]string{
		"email": "ghost@x.com", "password": "whatever",
	}, "")

	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d / %d", wrongPw.Code, unknown.Code)
	}
	if wrongPw.Body.String() != unknown.Body.String() {
		t.Fatalf("failure responses differ:\n%s\n%s", wrongPw.Body.String(), unknown.Body.String())
	}
}

func TestGoogleLoginClockSkewDetail(t *testing.T) {
	skew := &google.ClockSkewError{ServerTime: time.Now().UTC()}
	h := newHandler(t, &fakeVerifier{err: skew})

	rec := doJSON(t, h, http.MethodPost, "/login/google", map[string]string{"id_token": "whatever"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	detail, _ := body["detail"].(string)
	if !bytes.Contains([]byte(detail), []byte("server time UTC")) {
		t.Fatalf("detail should carry server time, got %q", detail)
	}
}

func TestGoogleLoginGenericFailure(t *testing.T) {
	h := newHandler(t, &fakeVerifier{err: google.ErrInvalidExternalToken})

	rec := doJSON(t, h, http.MethodPost, "/login/google", map[string]string{"id_token": "whatever"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["code"] != "invalid_google_token" {
		t.Fatalf("code = %v", body["code"])
	}
	if _, hasDetail := body["detail"]; hasDetail {
		t.Fatalf("generic failure must not carry detail: %v", body)
	}
}

func TestGoogleLoginSuccess(t *testing.T) {
	h := newHandler(t, &fakeVerifier{claims: &google.Claims{
		Sub:   "g-123",
		Email: "fed@x.com",
		Name:  "Fede",
	}})

	rec := doJSON(t, h, http.MethodPost, "/login/google", map[string]string{"id_token": "ok-token"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	tok, _ := body["access_token"].(string)
	if tok == "" {
		t.Fatalf("missing access_token: %v", body)
	}

	// El token propio debe resolver al usuario federado
	me := doJSON(t, h, http.MethodGet, "/me", nil, tok)
	if me.Code != http.StatusOK {
		t.Fatalf("me status = %d", me.Code)
	}
	if meBody := decode(t, me); meBody["email"] != "fed@x.com" || meBody["provider"] != "google" {
		t.Fatalf("me body = %v", meBody)
	}
}

func TestMeRequiresBearer(t *testing.T) {
	h := newHandler(t, nil)

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodGet, "/me", nil, header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rec.Code)
			}
			if body := decode(t, rec); body["code"] != "unauthorized" {
				t.Fatalf("code = %v", body["code"])
			}
		})
	}
}

func TestSessionsCreate(t *testing.T) {
	h := newHandler(t, nil)

	doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"email": "s@x.com", "password": "pw123456",
	}, "")
	login := doJSON(t, h, http.MethodPost, "/login", map[string]string{
		"email": "s@x.com", "password": "pw123456",
	}, "")
	tok, _ := decode(t, login)["access_token"].(string)

	rec := doJSON(t, h, http.MethodPost, "/sessions", map[string]any{
		"session_data": map[string]any{"device": "cli"},
	}, tok)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["id"] == "" || body["user_id"] == "" {
		t.Fatalf("session body = %v", body)
	}
	data, _ := body["session_data"].(map[string]any)
	if data["device"] != "cli" {
		t.Fatalf("session data = %v", data)
	}
}

func TestHealthz(t *testing.T) {
	h := newHandler(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestHealthzDegraded(t *testing.T) {
	st := memory.New()
	codec, _ := token.New("test-secret", "HS256", time.Minute)
	svc := auth.New(auth.Deps{Users: st.Users(), Codec: codec})
	h := router.New(router.Deps{
		Auth: authctrl.NewControllers(svc, nil),
		Health: healthctrl.NewController(healthctrl.Deps{
			DBCheck: func(ctx context.Context) error { return errors.New("down") },
		}),
		Resolver: svc,
	})

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "degraded" {
		t.Fatalf("body = %v", body)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	h := newHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-abc" {
		t.Fatalf("X-Request-ID = %q", got)
	}

	// Sin header del cliente se genera uno
	rec2 := doJSON(t, h, http.MethodGet, "/healthz", nil, "")
	if rec2.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing generated X-Request-ID")
	}
}

func TestInvalidJSONBody(t *testing.T) {
	h := newHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	// Content-Type incorrecto también es 400
	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
