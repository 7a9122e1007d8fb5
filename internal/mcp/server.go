package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/MediaWatch/internal/core"
	"github.com/vadimtrunov/MediaWatch/internal/dashboard"
)

// DashboardService is the slice of dashboard operations the MCP tools rely on.
type DashboardService interface {
	Snapshot(ctx context.Context) core.ServerInfo
	LibraryStats(ctx context.Context, force bool) (map[string]core.LibraryStat, error)
	ForceRefresh(ctx context.Context) error
}

// Deps holds backend dependencies for MCP tool handlers.
type Deps struct {
	Dashboard DashboardService
}

// Server wraps an MCP SDK server with MediaWatch tool handlers.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all MediaWatch tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "mediawatch",
			Version: "0.1.0",
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(getServerStatusTool(), s.handleGetServerStatus)
	s.server.AddTool(listStreamsTool(), s.handleListStreams)
	s.server.AddTool(getLibraryStatsTool(), s.handleGetLibraryStats)
	s.server.AddTool(forceDashboardRefreshTool(), s.handleForceDashboardRefresh)
}

// Tool definitions.

func getServerStatusTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_server_status",
		Description: "Get the current state of the media server: online/offline, name, version, uptime, and number of active streams.",
		InputSchema: emptySchema(),
	}
}

func listStreamsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_streams",
		Description: "List the active playback sessions on the media server with user, player, title, and progress.",
		InputSchema: emptySchema(),
	}
}

func getLibraryStatsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_library_stats",
		Description: "Get item counts per configured library section, sorted by display name. Served from the TTL cache unless force is set.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"force": map[string]any{
					"type":        "boolean",
					"description": "Bypass the statistics cache and query the media server directly",
				},
			},
		},
	}
}

func forceDashboardRefreshTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "force_dashboard_refresh",
		Description: "Invalidate the statistics cache and publish a fresh dashboard message immediately.",
		InputSchema: emptySchema(),
	}
}

func emptySchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// Tool handlers. Each returns JSON text content; handler failures become
// tool errors, not protocol errors.

func (s *Server) handleGetServerStatus(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Dashboard == nil {
		return toolError("dashboard service not configured"), nil
	}

	info := s.deps.Dashboard.Snapshot(ctx)

	status := map[string]any{
		"online":       info.Online,
		"server_name":  info.System.Name,
		"version":      info.System.Version,
		"os":           info.System.OS,
		"stream_count": info.StreamCount,
		"uptime":       dashboard.FormatUptime(info.Uptime),
	}
	if !info.Online && !info.OfflineSince.IsZero() {
		status["offline_since"] = info.OfflineSince.Format("02.01.2006 15:04:05")
	}
	return toolJSON(status)
}

func (s *Server) handleListStreams(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Dashboard == nil {
		return toolError("dashboard service not configured"), nil
	}

	info := s.deps.Dashboard.Snapshot(ctx)

	type stream struct {
		User            string  `json:"user"`
		Player          string  `json:"player"`
		Title           string  `json:"title"`
		Type            string  `json:"type"`
		ProgressPercent float64 `json:"progress_percent"`
		Paused          bool    `json:"paused"`
		Transcode       bool    `json:"transcode"`
	}

	streams := make([]stream, 0, len(info.Sessions))
	for _, sess := range info.Sessions {
		if sess.NowPlaying == nil {
			continue
		}
		np := sess.NowPlaying
		streams = append(streams, stream{
			User:            sess.User,
			Player:          sess.Player,
			Title:           np.Title,
			Type:            np.Type,
			ProgressPercent: np.Progress() * 100,
			Paused:          np.Paused,
			Transcode:       np.Transcode,
		})
	}
	return toolJSON(streams)
}

func (s *Server) handleGetLibraryStats(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Dashboard == nil {
		return toolError("dashboard service not configured"), nil
	}

	var args struct {
		Force bool `json:"force"`
	}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
	}

	stats, err := s.deps.Dashboard.LibraryStats(ctx, args.Force)
	if err != nil {
		return toolError(fmt.Sprintf("fetch library stats failed: %v", err)), nil
	}

	type section struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Emoji       string `json:"emoji"`
		Items       int    `json:"items"`
		Episodes    int    `json:"episodes,omitempty"`
	}

	sections := make([]section, 0, len(stats))
	for _, stat := range dashboard.SortedStats(stats) {
		sec := section{
			ID:          stat.ID,
			DisplayName: stat.DisplayName,
			Emoji:       stat.Emoji,
			Items:       stat.ItemCount,
		}
		if stat.ShowEpisodes {
			sec.Episodes = stat.EpisodeCount
		}
		sections = append(sections, sec)
	}
	return toolJSON(sections)
}

func (s *Server) handleForceDashboardRefresh(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Dashboard == nil {
		return toolError("dashboard service not configured"), nil
	}

	if err := s.deps.Dashboard.ForceRefresh(ctx); err != nil {
		return toolError(fmt.Sprintf("dashboard refresh failed: %v", err)), nil
	}
	return toolJSON(map[string]any{"status": "refreshed"})
}

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}
