package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/facet/internal/chat"
	"github.com/kalambet/facet/internal/profile"
	"github.com/kalambet/facet/internal/search"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Profiles *profile.Store
	Chat     *chat.Service
	Window   *chat.Window
}

// NewMCPServer creates an MCP server exposing the profile assistant as tools
// and resources, for use from MCP-capable clients over stdio.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"facet",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("facet — ask questions about one person's stored profile, search it, and manage conversation sessions."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask the assistant a question about the profile subject. Uses relevant profile data and recent session history as context."),
			mcp.WithString("message", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithString("session_id", mcp.Description("Conversation session id (default \"default\")")),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("search_profile",
			mcp.WithDescription("Return the profile sections textually relevant to a query."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
		),
		mcpSearchProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("clear_session",
			mcp.WithDescription("Forget the conversation history of a session."),
			mcp.WithString("session_id", mcp.Description("Session id to clear"), mcp.Required()),
		),
		mcpClearSession(deps),
	)

	s.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List live conversation sessions and their message counts."),
		),
		mcpListSessions(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"profile://document",
			"Profile Document",
			mcp.WithResourceDescription("The full stored profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		sessionID := req.GetString("session_id", chat.DefaultSessionID)

		res, err := deps.Chat.Handle(ctx, chat.Request{
			Message:                message,
			SessionID:              sessionID,
			IncludePersonalContext: true,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("chat failed: %v", err)), nil
		}
		return mcpText(res.Response), nil
	}
}

func mcpSearchProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		doc, err := deps.Profiles.Read()
		if err != nil {
			return mcpError(fmt.Sprintf("reading profile: %v", err)), nil
		}

		results := search.Relevant(query, doc)
		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("encoding results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpClearSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		deps.Window.Clear(sessionID)
		return mcpText(fmt.Sprintf("Cleared session %s", sessionID)), nil
	}
}

func mcpListSessions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(deps.Window.Sessions())
		if err != nil {
			return mcpError(fmt.Sprintf("encoding sessions: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		doc, err := deps.Profiles.Read()
		if err != nil {
			return nil, fmt.Errorf("reading profile: %w", err)
		}
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding profile: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
