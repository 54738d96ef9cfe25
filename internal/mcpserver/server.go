// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes kanban board tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/kanbo/internal/boardservice"
	"github.com/starford/kanbo/internal/session"
)

const formatURI = "kanbo://board-format"

// Server wraps the MCP server with board tools.
type Server struct {
	mcp *server.MCPServer
	svc *boardservice.Service
}

// New creates a new MCP server with all board tools registered.
func New(svc *boardservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Kanbo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_boards",
		mcp.WithDescription("List kanban boards in the vault with per-column task counts."),
		mcp.WithString("prefix", mcp.Description("Optional document path prefix (e.g. teams/)")),
	), s.listBoards)

	s.mcp.AddTool(mcp.NewTool("read_board",
		mcp.WithDescription("Read one board: its columns, the tasks in display order and timer progress."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/plan.md)")),
		mcp.WithNumber("block", mcp.Description("Zero-based kanban block number within the document (default 0)")),
		mcp.WithString("filter", mcp.Description("Optional case-insensitive title filter")),
	), s.readBoard)

	s.mcp.AddTool(mcp.NewTool("move_task",
		mcp.WithDescription("Move a task to a column. Entering an in-progress column starts its timer; "+
			"leaving it stops the timer."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithNumber("block", mcp.Description("Zero-based kanban block number (default 0)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the task to move")),
		mcp.WithString("column", mcp.Required(), mcp.Description("Destination column")),
		mcp.WithString("before", mcp.Description("Optional task to insert in front of")),
	), s.moveTask)

	s.mcp.AddTool(mcp.NewTool("toggle_timer",
		mcp.WithDescription("Start or stop the timer of a task. Starting it stops any other running timer on the board."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithNumber("block", mcp.Description("Zero-based kanban block number (default 0)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the task")),
	), s.toggleTimer)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a task to a board. Titles must be unique within the board. "+
			"Read the contract first via get_board_contract or the "+formatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithNumber("block", mcp.Description("Zero-based kanban block number (default 0)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("column", mcp.Description("Column to add to (default: first column)")),
		mcp.WithString("target_time", mcp.Description("Optional target duration such as \"1h 30m\" or a YYYY-MM-DD deadline")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tags")),
		mcp.WithString("due_date", mcp.Description("Optional due date (YYYY-MM-DD)")),
	), s.addTask)

	s.mcp.AddTool(mcp.NewTool("search_tasks",
		mcp.WithDescription("Full-text search through task titles and tags across all boards."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchTasks)

	s.mcp.AddTool(mcp.NewTool("get_board_contract",
		mcp.WithDescription("Returns the kanban block format contract. "+
			"Call this before editing board documents by hand."),
	), s.getBoardContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Board Format Contract",
			mcp.WithResourceDescription("Format of the kanban fenced blocks that hold boards inside Markdown documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBoardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// editResult reports an edit. A board that changed but could not be written
// back is still a result, flagged by "persisted": false.
func editResult(res *boardservice.Result, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listBoards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boards, err := s.svc.ListBoards(ctx, req.GetString("prefix", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(boards)
}

func (s *Server) readBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bv, err := s.svc.ViewBoard(ctx, path, req.GetInt("block", 0), req.GetString("filter", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(bv)
}

func (s *Server) moveTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	column, err := req.RequireString("column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return editResult(s.svc.MoveTask(ctx, path, req.GetInt("block", 0), title, column, req.GetString("before", "")))
}

func (s *Server) toggleTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return editResult(s.svc.ToggleTimer(ctx, path, req.GetInt("block", 0), title))
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var tags []string
	if raw := req.GetString("tags", ""); raw != "" {
		tags = strings.Split(raw, ",")
	}
	return editResult(s.svc.AddTask(ctx, path, req.GetInt("block", 0), session.NewTask{
		Title:      title,
		Column:     req.GetString("column", ""),
		TargetTime: req.GetString("target_time", ""),
		Tags:       tags,
		DueDate:    req.GetString("due_date", ""),
	}))
}

func (s *Server) searchTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchTasks(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getBoardContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BoardFormatContract), nil
}

func (s *Server) readBoardFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     BoardFormatContract,
		},
	}, nil
}
