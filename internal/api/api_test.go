package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/kanbo/internal/boardservice"
	"github.com/starford/kanbo/internal/index"
	"github.com/starford/kanbo/internal/reconcile"
	"github.com/starford/kanbo/internal/testutil"
)

// testEnv sets up a temp vault holding testutil.SprintDoc, an index, the
// service and the router. An empty token means auth is disabled.
func testEnv(t *testing.T, token string) (http.Handler, string) {
	t.Helper()
	return testEnvWithSSE(t, token, nil)
}

func testEnvWithSSE(t *testing.T, token string, sseHandler http.Handler) (http.Handler, string) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	testutil.WriteDoc(t, vaultDir, "teams/sprint.md", testutil.SprintDoc)
	testutil.WriteDoc(t, vaultDir, "broken.md", "```kanban\n{\"tasks\": 3}\n```\n")
	if err := index.Sync(db, store, testutil.Logger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	svc := boardservice.NewService(store, db, boardservice.WithLogger(testutil.Logger()))
	return NewRouter(svc, token != "", token, sseHandler), vaultDir
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sprintBlocks(t *testing.T, vaultDir string) []reconcile.Block {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(vaultDir, "teams", "sprint.md"))
	if err != nil {
		t.Fatal(err)
	}
	return reconcile.Extract(data)
}

func TestListBoards(t *testing.T) {
	router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/boards?prefix=teams/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp BoardListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Boards) != 2 {
		t.Fatalf("boards = %+v", resp.Boards)
	}
	if resp.Boards[0].Path != "teams/sprint.md" {
		t.Errorf("path = %q", resp.Boards[0].Path)
	}
}

func TestViewBoard(t *testing.T) {
	router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/boards/1/view/teams/sprint.md?q=c", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var bv BoardResponse
	_ = json.Unmarshal(w.Body.Bytes(), &bv)
	if bv.Snapshot.Block != 1 || bv.Snapshot.Filter != "c" {
		t.Errorf("snapshot = %+v", bv.Snapshot)
	}
	if got := bv.Snapshot.Columns[0].Tasks; len(got) != 1 || got[0].Title != "C" {
		t.Errorf("todo = %+v", got)
	}
}

func TestViewBoard_EncodedPath(t *testing.T) {
	router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/boards/0/view/teams%2Fsprint.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestViewBoard_Errors(t *testing.T) {
	router, _ := testEnv(t, "")
	cases := []struct {
		target string
		want   int
	}{
		{"/boards/0/view/missing.md", http.StatusNotFound},
		{"/boards/9/view/teams/sprint.md", http.StatusNotFound},
		{"/boards/0/view/broken.md", http.StatusUnprocessableEntity},
		{"/boards/x/view/teams/sprint.md", http.StatusBadRequest},
	}
	for _, tc := range cases {
		if w := do(t, router, http.MethodGet, tc.target, nil); w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.target, w.Code, tc.want)
		}
	}
}

func TestMoveTask(t *testing.T) {
	router, vaultDir := testEnv(t, "")
	first := string(sprintBlocks(t, vaultDir)[0].Content)

	w := do(t, router, http.MethodPost, "/boards/1/move/teams/sprint.md", MoveTaskRequest{Title: "C", Column: "review", Before: "D"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res EditResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Persisted {
		t.Error("expected persisted")
	}

	blocks := sprintBlocks(t, vaultDir)
	if string(blocks[0].Content) != first {
		t.Error("other board changed")
	}
	b := blocks[1].Board
	if b.Tasks[0].Title != "C" || b.Tasks[1].Title != "D" || b.Task("C").Status != "review" {
		t.Errorf("board = %+v", b.Tasks)
	}
}

func TestMoveTask_Validation(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := do(t, router, http.MethodPost, "/boards/1/move/teams/sprint.md", MoveTaskRequest{Title: "C"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing column = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/boards/1/move/teams/sprint.md", MoveTaskRequest{Title: "Z", Column: "done"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown task = %d, want 404", w.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	router, vaultDir := testEnv(t, "")
	base := "/boards/0/tasks/teams/sprint.md"

	w := do(t, router, http.MethodPost, base, AddTaskRequest{Title: "New", Column: "done", Tags: []string{"x"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("add = %d, body = %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodPost, base, AddTaskRequest{Title: "New"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate add = %d, want 409", w.Code)
	}

	target := "45m"
	w = do(t, router, http.MethodPut, base, UpdateTaskRequest{Title: "New", NewTitle: "Newer", TargetTime: &target})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	if task := sprintBlocks(t, vaultDir)[0].Board.Task("Newer"); task == nil || task.TargetTime != "45m" {
		t.Errorf("task after update = %+v", task)
	}

	bad := "not a date"
	if w := do(t, router, http.MethodPut, base, UpdateTaskRequest{Title: "Newer", DueDate: &bad}); w.Code != http.StatusBadRequest {
		t.Errorf("bad due date = %d, want 400", w.Code)
	}

	if w := do(t, router, http.MethodDelete, base+"?title=Newer", nil); w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	if sprintBlocks(t, vaultDir)[0].Board.Task("Newer") != nil {
		t.Error("task not deleted")
	}
}

func TestToggleTimer(t *testing.T) {
	router, vaultDir := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/boards/0/timer/teams/sprint.md", TimerRequest{Title: "A"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	b := sprintBlocks(t, vaultDir)[0].Board
	if b.Task("A").RunningEntry() == nil || b.Task("B").RunningEntry() != nil {
		t.Error("timer toggle did not keep a single running timer")
	}

	w = do(t, router, http.MethodGet, "/timers", nil)
	var resp TimersResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Timers) != 1 || resp.Timers[0].Title != "A" {
		t.Errorf("timers = %+v", resp.Timers)
	}
}

func TestBoardSettings(t *testing.T) {
	router, vaultDir := testEnv(t, "")
	for _, step := range []struct {
		target string
		body   any
	}{
		{"/boards/0/sort/teams/sprint.md", SortRequest{Column: "todo", Field: "title"}},
		{"/boards/0/collapse/teams/sprint.md", CollapseRequest{Column: "done"}},
		{"/boards/0/view-mode/teams/sprint.md", ViewModeRequest{View: "table"}},
	} {
		if w := do(t, router, http.MethodPost, step.target, step.body); w.Code != http.StatusOK {
			t.Fatalf("%s = %d, body = %s", step.target, w.Code, w.Body.String())
		}
	}
	b := sprintBlocks(t, vaultDir)[0].Board
	if b.View != "table" || !b.IsCollapsed("done") {
		t.Errorf("board = %+v", b)
	}
	if w := do(t, router, http.MethodPost, "/boards/0/sort/teams/sprint.md", SortRequest{Column: "todo", Field: "priority"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad sort field = %d, want 400", w.Code)
	}
}

func TestSearchTasks(t *testing.T) {
	router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/tasks/search?q=ops", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Title != "A" {
		t.Errorf("results = %+v", resp.Results)
	}
	if w := do(t, router, http.MethodGet, "/tasks/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/boards", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/boards", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/boards", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

// sseStub writes headers and blocks until the request ends.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router, _ := testEnvWithSSE(t, "secret", sseStub)
	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router, _ := testEnvWithSSE(t, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	router, _ := testEnvWithSSE(t, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", w.Code)
	}

	if w := do(t, router, http.MethodGet, "/events?access_token=bad", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE with bad query token = %d, want 401", w.Code)
	}
}
