package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harrisonrobin/clarity/pkg/model"
	"github.com/harrisonrobin/clarity/pkg/store"
	"github.com/harrisonrobin/clarity/pkg/sync"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	manager := sync.NewManager(st, sync.NewLedger(nil, st.SaveHistory))
	return NewServer(st, manager, "")
}

func doJSON(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestCreateAndListTasks(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"name":     "Buy milk",
		"quadrant": "urgent",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Task model.Task `json:"task"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if created.Task.Source != model.SourceManual {
		t.Errorf("Expected manual source, got %s", created.Task.Source)
	}
	if created.Task.Quadrant != model.QuadrantUrgent {
		t.Errorf("Expected urgent quadrant, got %s", created.Task.Quadrant)
	}

	w = doJSON(s, http.MethodGet, "/api/tasks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var listed struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(listed.Tasks) != 1 {
		t.Errorf("Expected 1 task, got %d", len(listed.Tasks))
	}
}

func TestCreateTaskRequiresName(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(s, http.MethodPost, "/api/tasks", map[string]interface{}{"name": "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank name, got %d", w.Code)
	}
}

func TestCompleteTaskSetsCompletedAtOnce(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(s, http.MethodPost, "/api/tasks", map[string]interface{}{"name": "Buy milk"})
	var created struct {
		Task model.Task `json:"task"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(s, http.MethodPost, "/api/tasks/"+created.Task.ID+"/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var first struct {
		Task model.Task `json:"task"`
	}
	json.Unmarshal(w.Body.Bytes(), &first)
	if !first.Task.Completed || first.Task.CompletedAt == nil {
		t.Fatalf("Expected completed task, got %+v", first.Task)
	}

	time.Sleep(5 * time.Millisecond)
	w = doJSON(s, http.MethodPost, "/api/tasks/"+created.Task.ID+"/complete", nil)
	var second struct {
		Task model.Task `json:"task"`
	}
	json.Unmarshal(w.Body.Bytes(), &second)
	if !second.Task.CompletedAt.Equal(*first.Task.CompletedAt) {
		t.Errorf("Expected CompletedAt unchanged on re-complete, got %v then %v",
			first.Task.CompletedAt, second.Task.CompletedAt)
	}
}

func TestMoveTaskValidatesQuadrant(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(s, http.MethodPost, "/api/tasks", map[string]interface{}{"name": "Buy milk"})
	var created struct {
		Task model.Task `json:"task"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(s, http.MethodPut, "/api/tasks/"+created.Task.ID+"/quadrant", map[string]string{"quadrant": "q5"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid quadrant, got %d", w.Code)
	}

	w = doJSON(s, http.MethodPut, "/api/tasks/"+created.Task.ID+"/quadrant", map[string]string{"quadrant": "important"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTaskNotFound(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(s, http.MethodPost, "/api/tasks/nope/complete", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	w = doJSON(s, http.MethodDelete, "/api/tasks/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(s, http.MethodPost, "/api/projects", map[string]string{"name": "Home"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}
	var created struct {
		Project model.Project `json:"project"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)

	doJSON(s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"name":      "Fix tap",
		"projectId": created.Project.ID,
	})

	w = doJSON(s, http.MethodDelete, "/api/projects/"+created.Project.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doJSON(s, http.MethodGet, "/api/tasks", nil)
	var listed struct {
		Tasks []model.Task `json:"tasks"`
	}
	json.Unmarshal(w.Body.Bytes(), &listed)
	if len(listed.Tasks) != 0 {
		t.Errorf("Expected project tasks cascaded, got %d tasks", len(listed.Tasks))
	}
}

func TestConnectUnknownService(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(s, http.MethodPost, "/api/connect/linear", map[string]string{"token": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown service, got %d", w.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(s, http.MethodGet, "/api/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var export store.SettingsExport
	if err := json.Unmarshal(w.Body.Bytes(), &export); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	w = doJSON(s, http.MethodPost, "/api/settings", export)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 importing an export, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStatusAndStats(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(s, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from status, got %d", w.Code)
	}
	w = doJSON(s, http.MethodGet, "/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from stats, got %d", w.Code)
	}
	w = doJSON(s, http.MethodGet, "/api/history", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from history, got %d", w.Code)
	}
}
