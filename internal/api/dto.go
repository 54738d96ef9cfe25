package api

import (
	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/boardservice"
	"github.com/starford/kanbo/internal/index"
	"github.com/starford/kanbo/internal/models"
)

// MoveTaskRequest is the body of POST /boards/{block}/move/{path}.
type MoveTaskRequest struct {
	Title  string `json:"title" example:"Write docs" validate:"required"`
	Column string `json:"column" example:"in progress" validate:"required"`
	// Before is the task to insert in front of; empty appends.
	Before string `json:"before,omitempty" example:"Ship"`
}

// TimerRequest is the body of POST /boards/{block}/timer/{path}.
type TimerRequest struct {
	Title string `json:"title" example:"Write docs" validate:"required"`
}

// AddTaskRequest is the body of POST /boards/{block}/tasks/{path}.
type AddTaskRequest struct {
	Title      string   `json:"title" example:"Write docs" validate:"required"`
	Column     string   `json:"column,omitempty" example:"todo"`
	TargetTime string   `json:"target_time,omitempty" example:"1h30m"`
	Tags       []string `json:"tags,omitempty"`
	DueDate    string   `json:"due_date,omitempty" example:"2026-04-01"`
}

// UpdateTaskRequest is the body of PUT /boards/{block}/tasks/{path}. Absent
// fields are left unchanged.
type UpdateTaskRequest struct {
	Title      string    `json:"title" example:"Write docs" validate:"required"`
	NewTitle   string    `json:"new_title,omitempty" example:"Write API docs"`
	TargetTime *string   `json:"target_time,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	DueDate    *string   `json:"due_date,omitempty"`
}

// SortRequest is the body of POST /boards/{block}/sort/{path}. An empty
// field returns the column to manual order.
type SortRequest struct {
	Column string          `json:"column" example:"todo" validate:"required"`
	Field  board.SortField `json:"field,omitempty" example:"dueDate"`
}

// CollapseRequest is the body of POST /boards/{block}/collapse/{path}.
type CollapseRequest struct {
	Column string `json:"column" example:"done" validate:"required"`
}

// ViewModeRequest is the body of POST /boards/{block}/view-mode/{path}.
type ViewModeRequest struct {
	View board.View `json:"view" example:"table" validate:"required"`
}

// BoardListResponse wraps board listings.
type BoardListResponse struct {
	Boards []models.BoardSummary `json:"boards" validate:"required"`
}

// SearchResponse wraps task search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// TimersResponse wraps running timers.
type TimersResponse struct {
	Timers []boardservice.TimerStatus `json:"timers" validate:"required"`
}

// BoardResponse is a rendered board (aliased from the service layer).
type BoardResponse = boardservice.BoardView

// EditResponse is the outcome of a board edit (aliased from the service layer).
type EditResponse = boardservice.Result
