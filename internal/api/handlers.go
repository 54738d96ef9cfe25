package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kanbo/internal/boardservice"
	"github.com/starford/kanbo/internal/session"
)

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *boardservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *boardservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. teams%2Fops.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// boardRef reads the block number and document path of a board route and
// answers 400 itself when either is missing.
func boardRef(w http.ResponseWriter, r *http.Request) (path string, block int, ok bool) {
	block, err := strconv.Atoi(chi.URLParam(r, "block"))
	if err != nil || block < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("block must be a non-negative integer"))
		return "", 0, false
	}
	path = docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return "", 0, false
	}
	return path, block, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func required(w http.ResponseWriter, fields ...string) bool {
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody(fields[i]+" is required"))
			return false
		}
	}
	return true
}

// ListBoards handles GET /api/boards.
//
//	@Summary		List indexed boards
//	@Tags			boards
//	@Produce		json
//	@Param			prefix	query		string	false	"Document path prefix"
//	@Success		200		{object}	BoardListResponse
//	@Security		BearerAuth
//	@Router			/boards [get]
func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.ListBoards(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, "list boards", err)
		return
	}
	writeJSON(w, http.StatusOK, BoardListResponse{Boards: boards})
}

// SearchTasks handles GET /api/tasks/search.
//
//	@Summary		Search tasks across all boards
//	@Tags			tasks
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/search [get]
func (h *Handler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchTasks(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search tasks", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// RunningTimers handles GET /api/timers.
//
//	@Summary		List running timers
//	@Tags			timers
//	@Produce		json
//	@Success		200	{object}	TimersResponse
//	@Security		BearerAuth
//	@Router			/timers [get]
func (h *Handler) RunningTimers(w http.ResponseWriter, r *http.Request) {
	timers, err := h.svc.RunningTimers(r.Context())
	if err != nil {
		writeError(w, "running timers", err)
		return
	}
	writeJSON(w, http.StatusOK, TimersResponse{Timers: timers})
}

// ViewBoard handles GET /api/boards/{block}/view/*.
//
//	@Summary		Render one board
//	@Tags			boards
//	@Produce		json
//	@Param			block	path		int		true	"Block number within the document"
//	@Param			path	path		string	true	"Document path"
//	@Param			q		query		string	false	"Title filter"
//	@Success		200		{object}	BoardResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/boards/{block}/view/{path} [get]
func (h *Handler) ViewBoard(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	bv, err := h.svc.ViewBoard(r.Context(), path, block, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "view board", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	writeJSON(w, http.StatusOK, bv)
}

// MoveTask handles POST /api/boards/{block}/move/*.
//
//	@Summary		Move a task to a column, optionally before another task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			block	path		int				true	"Block number within the document"
//	@Param			path	path		string			true	"Document path"
//	@Param			body	body		MoveTaskRequest	true	"Move"
//	@Success		200		{object}	EditResponse
//	@Success		202		{object}	EditResponse	"Applied but not written back"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/boards/{block}/move/{path} [post]
func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	var req MoveTaskRequest
	if !decode(w, r, &req) || !required(w, "title", req.Title, "column", req.Column) {
		return
	}
	res, err := h.svc.MoveTask(r.Context(), path, block, req.Title, req.Column, req.Before)
	if err != nil {
		writeError(w, "move task", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	writeResult(w, res)
}

// ToggleTimer handles POST /api/boards/{block}/timer/*.
func (h *Handler) ToggleTimer(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	var req TimerRequest
	if !decode(w, r, &req) || !required(w, "title", req.Title) {
		return
	}
	res, err := h.svc.ToggleTimer(r.Context(), path, block, req.Title)
	if err != nil {
		writeError(w, "toggle timer", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	writeResult(w, res)
}

// AddTask handles POST /api/boards/{block}/tasks/*.
//
//	@Summary		Add a task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			block	path		int				true	"Block number within the document"
//	@Param			path	path		string			true	"Document path"
//	@Param			body	body		AddTaskRequest	true	"Task"
//	@Success		201		{object}	EditResponse
//	@Success		202		{object}	EditResponse	"Applied but not written back"
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/boards/{block}/tasks/{path} [post]
func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	var req AddTaskRequest
	if !decode(w, r, &req) || !required(w, "title", req.Title) {
		return
	}
	res, err := h.svc.AddTask(r.Context(), path, block, session.NewTask{
		Title:      req.Title,
		Column:     req.Column,
		TargetTime: req.TargetTime,
		Tags:       req.Tags,
		DueDate:    req.DueDate,
	})
	if err != nil {
		writeError(w, "add task", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	if res.Persisted {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	writeResult(w, res)
}

// UpdateTask handles PUT /api/boards/{block}/tasks/*.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !decode(w, r, &req) || !required(w, "title", req.Title) {
		return
	}
	edit := session.TaskEdit{TargetTime: req.TargetTime, Tags: req.Tags, DueDate: req.DueDate}
	res, err := h.svc.UpdateTask(r.Context(), path, block, req.Title, strings.TrimSpace(req.NewTitle), edit)
	if err != nil {
		writeError(w, "update task", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	writeResult(w, res)
}

// DeleteTask handles DELETE /api/boards/{block}/tasks/*?title=.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	title := r.URL.Query().Get("title")
	if !required(w, "title", title) {
		return
	}
	res, err := h.svc.DeleteTask(r.Context(), path, block, title)
	if err != nil {
		writeError(w, "delete task", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	writeResult(w, res)
}

// SortColumn handles POST /api/boards/{block}/sort/*.
func (h *Handler) SortColumn(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	var req SortRequest
	if !decode(w, r, &req) || !required(w, "column", req.Column) {
		return
	}
	res, err := h.svc.SortColumn(r.Context(), path, block, req.Column, req.Field)
	if err != nil {
		writeError(w, "sort column", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	writeResult(w, res)
}

// ToggleCollapsed handles POST /api/boards/{block}/collapse/*.
func (h *Handler) ToggleCollapsed(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	var req CollapseRequest
	if !decode(w, r, &req) || !required(w, "column", req.Column) {
		return
	}
	res, err := h.svc.ToggleCollapsed(r.Context(), path, block, req.Column)
	if err != nil {
		writeError(w, "collapse column", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	writeResult(w, res)
}

// SetViewMode handles POST /api/boards/{block}/view-mode/*.
func (h *Handler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	path, block, ok := boardRef(w, r)
	if !ok {
		return
	}
	var req ViewModeRequest
	if !decode(w, r, &req) || !required(w, "view", string(req.View)) {
		return
	}
	res, err := h.svc.SetViewMode(r.Context(), path, block, req.View)
	if err != nil {
		writeError(w, "set view mode", err, slog.String("path", path), slog.Int("block", block))
		return
	}
	writeResult(w, res)
}
