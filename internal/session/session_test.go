package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/kanbo/internal/apperr"
	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/clock"
	"github.com/starford/kanbo/internal/reconcile"
)

var epoch = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type memDoc struct {
	data     []byte
	writes   int
	writeErr error
}

func (d *memDoc) Read(context.Context) ([]byte, error) { return d.data, nil }

func (d *memDoc) Write(_ context.Context, data []byte) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	d.data = append([]byte(nil), data...)
	d.writes++
	return nil
}

const doc = "# Plan\n\n" +
	"```kanban\n[{\"task\":\"A\"},{\"task\":\"B\"}]\n```\n\n" +
	"```kanban\n[{\"task\":\"C\"},{\"task\":\"D\",\"status\":\"done\"}]\n```\n"

func open(t *testing.T, d *memDoc, block int) (*View, *clock.FakeClock) {
	t.Helper()
	c := clock.Fake(epoch)
	v, err := Open(context.Background(), d, block, Deps{Clock: c})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return v, c
}

func blockBoard(t *testing.T, d *memDoc, i int) *board.Board {
	t.Helper()
	blocks := reconcile.Extract(d.data)
	if i >= len(blocks) || !blocks[i].Valid() {
		t.Fatalf("block %d missing or invalid in %q", i, d.data)
	}
	return blocks[i].Board
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, &memDoc{data: []byte(doc)}, 5, Deps{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	bad := &memDoc{data: []byte("```kanban\n{\"tasks\":[{}]}\n```\n")}
	if _, err := Open(ctx, bad, 0, Deps{}); !errors.Is(err, apperr.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestMoveTask_StartsTimerAndWritesOwnBlock(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	first := string(reconcile.Extract(d.data)[0].Content)
	v, _ := open(t, d, 1)

	if err := v.MoveTask(context.Background(), "C", "in progress", ""); err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	if d.writes != 1 {
		t.Fatalf("expected 1 write, got %d", d.writes)
	}
	if got := string(reconcile.Extract(d.data)[0].Content); got != first {
		t.Errorf("first block changed: %q", got)
	}
	c := blockBoard(t, d, 1).Task("C")
	if c.Status != board.StatusInProgress {
		t.Errorf("status = %q", c.Status)
	}
	if c.RunningEntry() == nil {
		t.Error("timer not started on entering in progress")
	}
	if c.UpdateDateTime == nil || !c.UpdateDateTime.Equal(epoch) {
		t.Errorf("updateDateTime = %v", c.UpdateDateTime)
	}
}

func TestMoveTask_LeavingInProgressStops(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, c := open(t, d, 0)
	ctx := context.Background()

	if err := v.MoveTask(ctx, "A", "in progress", ""); err != nil {
		t.Fatal(err)
	}
	c.Advance(90 * time.Second)
	if err := v.MoveTask(ctx, "A", "done", ""); err != nil {
		t.Fatal(err)
	}
	a := blockBoard(t, d, 0).Task("A")
	if a.RunningEntry() != nil {
		t.Fatal("timer still running after leaving in progress")
	}
	if got := v.Timer().Elapsed(v.Board().Task("A")); got != 90*time.Second {
		t.Errorf("elapsed = %v, want 90s", got)
	}
}

func TestMoveTask_BeforeTarget(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 0)
	if err := v.MoveTask(context.Background(), "B", "todo", "A"); err != nil {
		t.Fatal(err)
	}
	b := blockBoard(t, d, 0)
	if b.Tasks[0].Title != "B" || b.Tasks[1].Title != "A" {
		t.Errorf("order = %s,%s", b.Tasks[0].Title, b.Tasks[1].Title)
	}
}

func TestMoveTask_Unknown(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 0)
	ctx := context.Background()
	if err := v.MoveTask(ctx, "Z", "done", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown task: %v", err)
	}
	if err := v.MoveTask(ctx, "A", "archive", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown column: %v", err)
	}
	if d.writes != 0 {
		t.Errorf("unexpected writes: %d", d.writes)
	}
}

func TestToggleTimer_SingleRunning(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, c := open(t, d, 0)
	ctx := context.Background()

	if err := v.ToggleTimer(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	c.Advance(time.Minute)
	if err := v.ToggleTimer(ctx, "B"); err != nil {
		t.Fatal(err)
	}
	b := blockBoard(t, d, 0)
	if b.Task("A").RunningEntry() != nil {
		t.Error("A still running")
	}
	if b.Task("B").RunningEntry() == nil {
		t.Error("B not running")
	}
	if !strings.Contains(string(d.data), `"endTime": null`) {
		t.Errorf("running entry not written with null endTime:\n%s", d.data)
	}
}

func TestSetFilter_NoWrite(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 0)
	v.SetFilter("  b ")
	if d.writes != 0 {
		t.Errorf("filter wrote the document")
	}
	snap := v.Snapshot()
	todo := snap.Columns[0]
	if len(todo.Tasks) != 1 || todo.Tasks[0].Title != "B" || todo.Hidden != 1 {
		t.Errorf("todo column = %+v", todo)
	}
	if snap.Filter != "b" {
		t.Errorf("filter = %q", snap.Filter)
	}
}

func TestAddTask_DuplicateRejected(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 0)
	before := len(v.Board().Tasks)
	_, err := v.AddTask(context.Background(), NewTask{Title: "A"})
	if !errors.Is(err, apperr.ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	if len(v.Board().Tasks) != before || d.writes != 0 {
		t.Error("duplicate add changed the board or the document")
	}
}

func TestAddTask_IntoEmptyBlock(t *testing.T) {
	d := &memDoc{data: []byte("```kanban\n[{\"task\":\"X\"}]\n```\n\n```kanban\n```\n")}
	v, _ := open(t, d, 1)
	if _, err := v.AddTask(context.Background(), NewTask{Title: "first", Tags: []string{"#backend", " #backend ", "", "ops"}, TargetTime: "1h"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	b := blockBoard(t, d, 1)
	if len(b.Tasks) != 1 || b.Tasks[0].Title != "first" {
		t.Fatalf("second block = %+v", b.Tasks)
	}
	if got := b.Tasks[0].Tags; len(got) != 2 || got[0] != "#backend" || got[1] != "ops" {
		t.Errorf("tags = %v", got)
	}
	if len(blockBoard(t, d, 0).Tasks) != 1 {
		t.Error("first block touched")
	}
}

func TestRenameTask_WritesSameBlock(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 1)
	ctx := context.Background()
	if err := v.RenameTask(ctx, "C", "C2"); err != nil {
		t.Fatalf("RenameTask: %v", err)
	}
	if blockBoard(t, d, 1).Task("C2") == nil {
		t.Fatalf("rename not persisted:\n%s", d.data)
	}
	if err := v.RenameTask(ctx, "C2", "D"); !errors.Is(err, apperr.ErrDuplicateTitle) {
		t.Errorf("expected ErrDuplicateTitle, got %v", err)
	}
	// A second edit after the rename still finds the block.
	if err := v.ToggleTimer(ctx, "C2"); err != nil {
		t.Fatalf("ToggleTimer after rename: %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 1)
	if err := v.DeleteTask(context.Background(), "D"); err != nil {
		t.Fatal(err)
	}
	if blockBoard(t, d, 1).Task("D") != nil {
		t.Error("D still present")
	}
	if err := v.DeleteTask(context.Background(), "D"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEditTask(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 0)
	target, due := "2h", "2026-04-01"
	if err := v.EditTask(context.Background(), "A", TaskEdit{TargetTime: &target, DueDate: &due}); err != nil {
		t.Fatal(err)
	}
	a := blockBoard(t, d, 0).Task("A")
	if a.TargetTime != "2h" || a.DueDate == nil {
		t.Errorf("edit not persisted: %+v", a)
	}
	bad := "someday"
	if err := v.EditTask(context.Background(), "A", TaskEdit{DueDate: &bad}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSortHeaderClicked_PromotesShape(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 0)
	if err := v.SortHeaderClicked(context.Background(), "todo", board.SortByTitle); err != nil {
		t.Fatal(err)
	}
	b := blockBoard(t, d, 0)
	if b.Shape != board.ShapeStructured {
		t.Fatalf("shape = %v", b.Shape)
	}
	m, ok := b.LookupMeta("todo")
	if !ok || m.SortField != board.SortByTitle || m.SortOrder != board.Asc {
		t.Errorf("meta = %+v", m)
	}
	if err := v.SortHeaderClicked(context.Background(), "todo", "priority"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestToggleCollapsedAndViewMode(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 0)
	ctx := context.Background()
	collapsed, err := v.ToggleCollapsed(ctx, "done")
	if err != nil || !collapsed {
		t.Fatalf("ToggleCollapsed = %v, %v", collapsed, err)
	}
	if err := v.SetViewMode(ctx, board.ViewTable); err != nil {
		t.Fatal(err)
	}
	b := blockBoard(t, d, 0)
	if !b.IsCollapsed("done") || b.View != board.ViewTable {
		t.Errorf("board = %+v", b)
	}
	if err := v.SetViewMode(ctx, "grid"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddTask_TwinEmptyBlocksWritesOwn(t *testing.T) {
	d := &memDoc{data: []byte("```kanban\n[]\n```\n\ntext\n\n```kanban\n[]\n```\n")}
	v, _ := open(t, d, 1)
	if _, err := v.AddTask(context.Background(), NewTask{Title: "X"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if got := blockBoard(t, d, 1).Tasks; len(got) != 1 || got[0].Title != "X" {
		t.Errorf("second block = %+v", got)
	}
	if got := blockBoard(t, d, 0).Tasks; len(got) != 0 {
		t.Errorf("first block = %+v", got)
	}
	if v.Block() != 1 {
		t.Errorf("view moved to block %d", v.Block())
	}
}

func TestToggleCollapsed_TwinBlocksWritesOwn(t *testing.T) {
	d := &memDoc{data: []byte("```kanban\n[{\"task\":\"A\"}]\n```\n\n```kanban\n[{\"task\":\"A\"}]\n```\n")}
	v, _ := open(t, d, 1)
	if _, err := v.ToggleCollapsed(context.Background(), "done"); err != nil {
		t.Fatalf("ToggleCollapsed: %v", err)
	}
	if !blockBoard(t, d, 1).IsCollapsed("done") {
		t.Error("second block not collapsed")
	}
	if blockBoard(t, d, 0).IsCollapsed("done") {
		t.Error("first block collapsed")
	}

	// Title sets still match; the view keeps to its own block.
	if _, err := v.ToggleCollapsed(context.Background(), "todo"); err != nil {
		t.Fatalf("ToggleCollapsed: %v", err)
	}
	if b := blockBoard(t, d, 1); !b.IsCollapsed("todo") || !b.IsCollapsed("done") {
		t.Errorf("second block = %+v", b)
	}
}

func TestSetViewMode_BareListNotStored(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	before := string(d.data)
	v, _ := open(t, d, 0)
	err := v.SetViewMode(context.Background(), board.ViewTable)
	if !errors.Is(err, apperr.ErrNotStored) {
		t.Fatalf("expected ErrNotStored, got %v", err)
	}
	if d.writes != 0 || string(d.data) != before {
		t.Errorf("document written: %q", d.data)
	}
	if v.Board().View != board.ViewTable {
		t.Errorf("view = %q, want table in memory", v.Board().View)
	}
	if blockBoard(t, d, 0).Shape != board.ShapeBareList {
		t.Error("block promoted")
	}
}

func TestLocateFailureKeepsBoard(t *testing.T) {
	d := &memDoc{data: []byte(doc)}
	v, _ := open(t, d, 0)
	d.data = []byte("# rewritten elsewhere\n")

	err := v.MoveTask(context.Background(), "A", "done", "")
	if !errors.Is(err, apperr.ErrLocate) {
		t.Fatalf("expected ErrLocate, got %v", err)
	}
	if v.Board().Task("A").Status != board.StatusDone {
		t.Error("in-memory board lost the move")
	}
}

func TestWriteFailureKeepsBoard(t *testing.T) {
	d := &memDoc{data: []byte(doc), writeErr: errors.New("disk full")}
	v, _ := open(t, d, 0)
	err := v.ToggleTimer(context.Background(), "A")
	if !errors.Is(err, apperr.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	if v.Board().Task("A").RunningEntry() == nil {
		t.Error("in-memory timer lost")
	}
}

func TestSnapshot_ProgressAndRenderer(t *testing.T) {
	d := &memDoc{data: []byte("```kanban\n[{\"task\":\"A\",\"targetTime\":\"10m\"}]\n```\n")}
	c := clock.Fake(epoch)
	var last Snapshot
	renders := 0
	v, err := Open(context.Background(), d, 0, Deps{
		Clock:    c,
		Renderer: RendererFunc(func(s Snapshot) { last = s; renders++ }),
	})
	if err != nil {
		t.Fatal(err)
	}
	if renders != 1 {
		t.Fatalf("renders after open = %d", renders)
	}
	if err := v.ToggleTimer(context.Background(), "A"); err != nil {
		t.Fatal(err)
	}
	c.Advance(9 * time.Minute)
	v.Refresh()

	task := last.Columns[0].Tasks[0]
	if !task.Running || last.Running == nil || last.Running.Title != "A" {
		t.Errorf("running state = %+v / %+v", task, last.Running)
	}
	if task.Progress == nil || *task.Progress != 90 {
		t.Fatalf("progress = %v", task.Progress)
	}
	if task.Band != "orange" {
		t.Errorf("band = %q", task.Band)
	}
}
