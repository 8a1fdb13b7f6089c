package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/internal/otp"
	"github.com/sufyan2618/project-management/internal/testutil"
)

type testServer struct {
	server *Server
	api    *testutil.FakeAPI
	app    *app.Context
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := testutil.SetupTestEnv(t)
	fake := testutil.NewFakeAPI(t)
	a, err := app.Open(env.Config(fake.URL))
	if err != nil {
		t.Fatalf("app.Open failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	return &testServer{server: NewServer(a), api: fake, app: a}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, email, password string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/login", gin.H{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("Login returned %d: %s", w.Code, w.Body.String())
	}
}

// Helper to parse JSON response
func parseJSONResponse(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON response: %v\nBody: %s", err, body.String())
	}
	return result
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != want {
		t.Errorf("Expected redirect to %s, got %s", want, got)
	}
}

func TestGuardRedirectsSignedOut(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/dashboard", "/projects", "/projects/1", "/board", "/tasks", "/nav"} {
		assertRedirect(t, ts.do(t, http.MethodGet, path, nil), "/login")
	}
	assertRedirect(t, ts.do(t, http.MethodGet, "/nowhere", nil), "/login")
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/login", gin.H{"email": testutil.UserEmail, "password": testutil.UserPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseJSONResponse(t, w.Body)
	if resp["redirect"] != "/dashboard" {
		t.Errorf("Expected redirect to /dashboard, got %v", resp["redirect"])
	}

	w = ts.do(t, http.MethodGet, "/dashboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected dashboard 200, got %d", w.Code)
	}
	resp = parseJSONResponse(t, w.Body)
	if resp["role"] != "user" || resp["user"] == nil {
		t.Errorf("Expected user dashboard, got %v", resp)
	}

	w = ts.do(t, http.MethodGet, "/notifications", nil)
	resp = parseJSONResponse(t, w.Body)
	if resp["count"].(float64) < 1 {
		t.Error("Expected a login notification")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/login", gin.H{"email": testutil.UserEmail, "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
	resp := parseJSONResponse(t, w.Body)
	if resp["error"] != "Incorrect email or password" {
		t.Errorf("Unexpected error: %v", resp["error"])
	}

	w = ts.do(t, http.MethodPost, "/login", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing body, got %d", w.Code)
	}
}

func TestNavByRole(t *testing.T) {
	tests := []struct {
		email, password string
		want            []string
	}{
		{testutil.AdminEmail, testutil.AdminPassword, []string{"Dashboard", "Projects"}},
		{testutil.UserEmail, testutil.UserPassword, []string{"Dashboard", "Projects", "My Tasks"}},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			ts := newTestServer(t)
			ts.login(t, tt.email, tt.password)

			w := ts.do(t, http.MethodGet, "/nav", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			var resp struct {
				Items []struct {
					Name string `json:"name"`
				} `json:"items"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse nav: %v", err)
			}
			var got []string
			for _, it := range resp.Items {
				got = append(got, it.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRoleRestrictedRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.AdminEmail, testutil.AdminPassword)

	assertRedirect(t, ts.do(t, http.MethodGet, "/tasks", nil), "/dashboard")

	w := ts.do(t, http.MethodGet, "/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected admin /users 200, got %d", w.Code)
	}

	ts.do(t, http.MethodPost, "/logout", nil)
	ts.login(t, testutil.UserEmail, testutil.UserPassword)
	assertRedirect(t, ts.do(t, http.MethodGet, "/users", nil), "/dashboard")
	if w := ts.do(t, http.MethodGet, "/tasks", nil); w.Code != http.StatusOK {
		t.Errorf("Expected user /tasks 200, got %d", w.Code)
	}
}

func TestProjectsFilters(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.AdminEmail, testutil.AdminPassword)

	w := ts.do(t, http.MethodGet, "/projects?search=web&size=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseJSONResponse(t, w.Body)
	filters := resp["filters"].(map[string]interface{})
	if filters["search"] != "web" || filters["size"].(float64) != 5 {
		t.Errorf("Expected merged filters, got %v", filters)
	}
	if resp["total"].(float64) != 1 {
		t.Errorf("Expected one matching project, got %v", resp["total"])
	}

	w = ts.do(t, http.MethodGet, "/projects?reset", nil)
	resp = parseJSONResponse(t, w.Body)
	filters = resp["filters"].(map[string]interface{})
	if _, has := filters["search"]; has {
		t.Errorf("Expected filters reset, got %v", filters)
	}
}

func TestProjectDetail(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.UserEmail, testutil.UserPassword)

	w := ts.do(t, http.MethodGet, "/projects/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := parseJSONResponse(t, w.Body)
	board := resp["board"].(map[string]interface{})
	if len(board["todo"].([]interface{})) != 1 {
		t.Errorf("Expected one todo card, got %v", board["todo"])
	}

	if w := ts.do(t, http.MethodGet, "/projects/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing project, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/projects/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad id, got %d", w.Code)
	}
}

func TestBoardMove(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.UserEmail, testutil.UserPassword)

	if w := ts.do(t, http.MethodGet, "/board", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected board 200, got %d", w.Code)
	}

	w := ts.do(t, http.MethodPost, "/board/move", gin.H{
		"source":       gin.H{"column": "todo", "index": 0},
		"destination":  gin.H{"column": "done", "index": 0},
		"draggable_id": "1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseJSONResponse(t, w.Body)
	if resp["moved"] != true {
		t.Errorf("Expected move applied, got %v", resp)
	}
	done := resp["columns"].(map[string]interface{})["done"].([]interface{})
	first := done[0].(map[string]interface{})
	if first["id"].(float64) != 1 || first["status"] != "done" {
		t.Errorf("Expected task 1 at top of done, got %v", first)
	}

	updates := ts.api.TaskUpdates()
	if len(updates) != 1 || !reflect.DeepEqual(updates[0].Body, map[string]any{"status": "done"}) {
		t.Errorf("Expected one status-only update, got %+v", updates)
	}
}

func TestBoardMoveCancelled(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.UserEmail, testutil.UserPassword)

	w := ts.do(t, http.MethodPost, "/board/move", gin.H{
		"source":       gin.H{"column": "todo", "index": 0},
		"draggable_id": "1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp := parseJSONResponse(t, w.Body); resp["moved"] != false {
		t.Errorf("Expected no move, got %v", resp)
	}
	if n := len(ts.api.TaskUpdates()); n != 0 {
		t.Errorf("Expected no update requests, got %d", n)
	}
}

func TestBoardMoveFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.UserEmail, testutil.UserPassword)
	ts.api.FailTaskUpdates = true

	w := ts.do(t, http.MethodPost, "/board/move", gin.H{
		"source":       gin.H{"column": "todo", "index": 0},
		"destination":  gin.H{"column": "in-progress", "index": 1},
		"draggable_id": "1",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	resp := parseJSONResponse(t, w.Body)
	if resp["error"] != "Database unavailable" {
		t.Errorf("Unexpected error: %v", resp["error"])
	}
	inProgress := resp["columns"].(map[string]interface{})["in-progress"].([]interface{})
	if len(inProgress) != 2 {
		t.Errorf("Expected optimistic move kept, got %v", inProgress)
	}
}

func TestBoardPendingWhileMoveInFlight(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.UserEmail, testutil.UserPassword)

	w := ts.do(t, http.MethodGet, "/board", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected board 200, got %d", w.Code)
	}
	if resp := parseJSONResponse(t, w.Body); resp["pending"] != false {
		t.Errorf("Expected idle board, got pending=%v", resp["pending"])
	}

	entered, release := ts.api.HoldTaskUpdates()
	t.Cleanup(release)

	moved := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		body := `{"source":{"column":"todo","index":0},"destination":{"column":"done","index":0},"draggable_id":"1"}`
		req := httptest.NewRequest(http.MethodPost, "/board/move", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rec, req)
		moved <- rec
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the move to reach the server")
	}

	w = ts.do(t, http.MethodGet, "/board", nil)
	if resp := parseJSONResponse(t, w.Body); resp["pending"] != true {
		t.Errorf("Expected pending board while the move is in flight, got %v", resp["pending"])
	}
	w = ts.do(t, http.MethodGet, "/pending", nil)
	ops := parseJSONResponse(t, w.Body)["pending"].(map[string]interface{})
	if ops[string(app.OpUpdateTask)] != false {
		t.Errorf("Expected board moves to leave update_task idle, got %v", ops)
	}

	release()
	rec := <-moved
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected move 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := parseJSONResponse(t, rec.Body); resp["pending"] != false {
		t.Errorf("Expected settled move, got pending=%v", resp["pending"])
	}
}

func TestBoardWithoutProjectRequiresUser(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.AdminEmail, testutil.AdminPassword)

	assertRedirect(t, ts.do(t, http.MethodGet, "/board", nil), "/dashboard")
	assertRedirect(t, ts.do(t, http.MethodPost, "/board/move", gin.H{
		"source":       gin.H{"column": "todo", "index": 0},
		"destination":  gin.H{"column": "done", "index": 0},
		"draggable_id": "1",
	}), "/dashboard")
	if n := len(ts.api.TaskUpdates()); n != 0 {
		t.Errorf("Expected no update requests, got %d", n)
	}

	w := ts.do(t, http.MethodGet, "/board?project_id=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected admin project board 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestResendOTPRouteCooldown(t *testing.T) {
	ts := newTestServer(t)
	ts.api.AddUnverified("new@example.com", "secret1")

	w := ts.do(t, http.MethodPost, "/resend-otp", gin.H{"email": "new@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := parseJSONResponse(t, w.Body); resp["cooldown"].(float64) != otp.DefaultCooldown {
		t.Errorf("Expected %d second cooldown, got %v", otp.DefaultCooldown, resp["cooldown"])
	}

	w = ts.do(t, http.MethodPost, "/forgot-password", gin.H{"email": "new@example.com"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 while cooling down, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseJSONResponse(t, w.Body)
	if left := resp["cooldown"].(float64); left < 55 || left > otp.DefaultCooldown {
		t.Errorf("Expected remaining cooldown in body, got %v", left)
	}
	if got := ts.api.OTPRequests(); got != 1 {
		t.Errorf("Expected one code request to reach the server, got %d", got)
	}

	if w := ts.do(t, http.MethodPost, "/resend-otp", gin.H{"email": "not-an-email"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad email, got %d", w.Code)
	}
}

func TestVerifyAndResetRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.api.AddUnverified("new@example.com", "secret1")

	if w := ts.do(t, http.MethodPost, "/verify-email", gin.H{"email": "new@example.com", "otp": "12"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a short code, got %d", w.Code)
	}

	w := ts.do(t, http.MethodPost, "/verify-email", gin.H{"email": "new@example.com", "otp": testutil.ValidOTP})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := parseJSONResponse(t, w.Body); resp["redirect"] != "/login" {
		t.Errorf("Expected redirect to /login, got %v", resp["redirect"])
	}

	w = ts.do(t, http.MethodPost, "/reset-password", gin.H{
		"email":        "new@example.com",
		"otp":          testutil.ValidOTP,
		"new_password": "changed1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	ts.login(t, "new@example.com", "changed1")
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, testutil.UserEmail, testutil.UserPassword)

	w := ts.do(t, http.MethodPost, "/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp := parseJSONResponse(t, w.Body); resp["redirect"] != "/login" {
		t.Errorf("Expected redirect to /login, got %v", resp["redirect"])
	}
	assertRedirect(t, ts.do(t, http.MethodGet, "/dashboard", nil), "/login")
}
