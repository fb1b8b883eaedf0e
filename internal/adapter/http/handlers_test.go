package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	aphttp "github.com/agentpulse/agentpulse/internal/adapter/http"
	"github.com/agentpulse/agentpulse/internal/service"
)

type fakeGateway struct {
	mu    sync.Mutex
	texts []string
}

func (g *fakeGateway) SendUserMessage(_ context.Context, text string, _ bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, text)
	return nil
}

type fakePublisher struct{}

func (fakePublisher) Publish(_ context.Context) (string, error) { return "http://localhost:3000", nil }
func (fakePublisher) Release(_ context.Context) error           { return nil }

type testAPI struct {
	router    chi.Router
	states    *service.StateService
	lifecycle *service.LifecycleService
	gateway   *fakeGateway
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	states := service.NewStateService()
	gw := &fakeGateway{}
	chat := service.NewChatService(states, gw)
	lifecycle := service.NewLifecycleService(states, fakePublisher{})

	r := chi.NewRouter()
	aphttp.MountRoutes(r, &aphttp.Handlers{
		State:     states,
		Chat:      chat,
		Lifecycle: lifecycle,
		Observers: func() int { return 3 },
	})
	return &testAPI{router: r, states: states, lifecycle: lifecycle, gateway: gw}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestGetState(t *testing.T) {
	api := newTestAPI(t)
	api.lifecycle.SessionStart(context.Background())
	api.lifecycle.TurnStart(context.Background())

	rec := api.do(t, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["agentStatus"] != "idle" {
		t.Errorf("expected idle, got %v", body["agentStatus"])
	}
	if body["turnCount"] != float64(1) {
		t.Errorf("expected turn count 1, got %v", body["turnCount"])
	}
	if _, ok := body["activityLog"].([]any); !ok {
		t.Errorf("expected activityLog array, got %T", body["activityLog"])
	}
}

func TestPostChat(t *testing.T) {
	api := newTestAPI(t)
	api.lifecycle.SessionStart(context.Background())

	rec := api.do(t, http.MethodPost, "/api/chat", `{"message":"status please"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]bool](t, rec)
	if !body["ok"] || body["queued"] {
		t.Errorf("expected ok and not queued while idle, got %v", body)
	}
	if len(api.gateway.texts) != 1 || api.gateway.texts[0] != "status please" {
		t.Errorf("expected message forwarded, got %v", api.gateway.texts)
	}
}

func TestPostChatQueuedWhileBusy(t *testing.T) {
	api := newTestAPI(t)
	api.lifecycle.SessionStart(context.Background())
	api.lifecycle.AgentStart(context.Background())

	rec := api.do(t, http.MethodPost, "/api/chat", `{"message":"are you done"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody[map[string]bool](t, rec); !body["queued"] {
		t.Errorf("expected queued while thinking, got %v", body)
	}
}

func TestPostChatEmptyMessage(t *testing.T) {
	api := newTestAPI(t)
	api.lifecycle.SessionStart(context.Background())

	rec := api.do(t, http.MethodPost, "/api/chat", `{"message":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeBody[map[string]string](t, rec); body["error"] != "empty message" {
		t.Errorf("unexpected error body %v", body)
	}
}

func TestPostChatBeforeSession(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/chat", `{"message":"hello"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body := decodeBody[map[string]string](t, rec); body["error"] != "agent not ready" {
		t.Errorf("unexpected error body %v", body)
	}
}

func TestPostChatMalformedBody(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/chat", `{"message":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostStatus(t *testing.T) {
	api := newTestAPI(t)
	api.lifecycle.SessionStart(context.Background())

	rec := api.do(t, http.MethodPost, "/api/status", `{"status":"Reviewing auth module"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := api.states.Snapshot().CustomStatus; got != "Reviewing auth module" {
		t.Errorf("expected custom status set, got %q", got)
	}

	rec = api.do(t, http.MethodPost, "/api/status", `{"status":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank status, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	api.lifecycle.SessionStart(context.Background())
	api.lifecycle.AgentStart(context.Background())

	rec := api.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("expected ok, got %v", body["status"])
	}
	if body["agent_status"] != "thinking" {
		t.Errorf("expected thinking, got %v", body["agent_status"])
	}
	if body["observers"] != float64(3) {
		t.Errorf("expected 3 observers, got %v", body["observers"])
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(aphttp.CORS("*"))
	r.Get("/x", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
}
