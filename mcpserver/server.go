package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/hooklab/catalog"
	"github.com/isdmx/hooklab/config"
	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/playground"
)

// Playground is the session the tools operate on
type Playground interface {
	Examples() []catalog.Group
	Select(id string) (playground.State, error)
	ToggleSolution() (playground.State, error)
	Edit(text string) playground.State
	Run(ctx context.Context) playground.State
	Dispatch(ctx context.Context, id, event string, payload map[string]any) (playground.State, error)
	Resize(ctx context.Context, width, height int) (playground.State, error)
	Console() []console.Message
	ClearConsole()
}

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	session   Playground
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, session Playground) (*MCPServer, error) {
	if session == nil {
		return nil, errors.New("playground session is required")
	}

	s := &MCPServer{
		config:  cfg,
		logger:  logger,
		session: session,
	}

	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("sandbox.entry_point", cfg.Sandbox.EntryPoint),
		zap.String("sandbox.target", cfg.Sandbox.Target),
		zap.Int("sandbox.max_render_passes", cfg.Sandbox.MaxRenderPasses),
		zap.Int("sandbox.timeout_sec", cfg.Sandbox.TimeoutSec),
		zap.Bool("sandbox.fetch_enabled", cfg.Sandbox.FetchEnabled),
	)

	s.mcpServer = server.NewMCPServer("hooklab", "0.1.0", server.WithToolCapabilities(false))
	s.registerTools()

	return s, nil
}

func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_examples",
		Description: "List the example groups and the examples in each",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]any{}},
	}, s.handleListExamples)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "select_example",
		Description: "Load an example into the editor. The preview is not updated until run_code.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "Example id from list_examples",
				},
			},
			Required: []string{"id"},
		},
	}, s.handleSelectExample)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_solution",
		Description: "Switch the editor between the problem and the solution variant",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]any{}},
	}, s.handleToggleSolution)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "edit_code",
		Description: "Replace the editor text. Edits do not run until run_code.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "JSX source defining a Component function",
				},
			},
			Required: []string{"code"},
		},
	}, s.handleEditCode)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "run_code",
		Description: "Compile and render the editor text; returns the rendered HTML or the failure with its stage",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]any{}},
	}, s.handleRunCode)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "dispatch_event",
		Description: "Send an event such as click or change to a rendered element",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"target": map[string]any{
					"type":        "string",
					"description": "Element id from the targets list of the last state",
				},
				"event": map[string]any{
					"type":        "string",
					"description": "Event name, e.g. click, change, submit",
				},
				"payload": map[string]any{
					"type":        "object",
					"description": "Optional event fields; value and checked are set on event.target",
				},
			},
			Required: []string{"target", "event"},
		},
	}, s.handleDispatchEvent)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "resize_window",
		Description: "Change window.innerWidth/innerHeight and fire resize listeners",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"width":  map[string]any{"type": "integer", "minimum": 1},
				"height": map[string]any{"type": "integer", "minimum": 1},
			},
			Required: []string{"width", "height"},
		},
	}, s.handleResizeWindow)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "console_output",
		Description: "Return the console panel messages",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"clear": map[string]any{
					"type":        "boolean",
					"description": "Empty the panel after reading it",
				},
			},
		},
	}, s.handleConsoleOutput)
}

func (s *MCPServer) handleListExamples(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.session.Examples())
}

func (s *MCPServer) handleSelectExample(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return nil, fmt.Errorf("id parameter is required: %w", err)
	}

	st, err := s.session.Select(id)
	if err != nil {
		s.logger.Info("example selection failed", zap.String("id", id), zap.Error(err))
		return errorResult(err), nil
	}
	return jsonResult(st)
}

func (s *MCPServer) handleToggleSolution(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.session.ToggleSolution()
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(st)
}

func (s *MCPServer) handleEditCode(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}
	return jsonResult(s.session.Edit(code))
}

func (s *MCPServer) handleRunCode(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.Info("run requested")

	st := s.session.Run(ctx)

	fields := []zap.Field{zap.Uint64("request", st.Request), zap.String("status", string(st.Status))}
	if st.Failure != nil {
		fields = append(fields, zap.String("stage", string(st.Failure.Stage)))
	}
	s.logger.Info("run completed", fields...)

	return jsonResult(st)
}

func (s *MCPServer) handleDispatchEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := request.RequireString("target")
	if err != nil {
		return nil, fmt.Errorf("target parameter is required: %w", err)
	}
	event, err := request.RequireString("event")
	if err != nil {
		return nil, fmt.Errorf("event parameter is required: %w", err)
	}

	var payload map[string]any
	if raw, ok := request.GetArguments()["payload"]; ok && raw != nil {
		payload, ok = raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("payload must be an object")
		}
	}

	st, err := s.session.Dispatch(ctx, target, event, payload)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(st)
}

func (s *MCPServer) handleResizeWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	width, err := request.RequireInt("width")
	if err != nil {
		return nil, fmt.Errorf("width parameter is required: %w", err)
	}
	height, err := request.RequireInt("height")
	if err != nil {
		return nil, fmt.Errorf("height parameter is required: %w", err)
	}

	st, err := s.session.Resize(ctx, width, height)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(st)
}

func (s *MCPServer) handleConsoleOutput(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msgs := s.session.Console()
	if request.GetBool("clear", false) {
		s.session.ClearConsole()
	}
	if msgs == nil {
		msgs = []console.Message{}
	}
	return jsonResult(msgs)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: err.Error(),
			},
		},
		IsError: true,
	}
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
