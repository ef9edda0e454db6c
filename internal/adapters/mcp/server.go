// Package mcpadapter exposes hybrid search as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

const (
	ServerName    = "ingredient-search"
	ServerVersion = "1.0.0"

	maxTopK = 100
)

type Server struct {
	mcp    *server.MCPServer
	search ports.SearchService
	logger *slog.Logger
}

func NewServer(search ports.SearchService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		search: search,
		logger: logger,
	}
	s.mcp.AddTool(searchIngredientsTool(), s.handleSearchIngredients)
	s.mcp.AddTool(classifyQueryTool(), s.handleClassifyQuery)
	return s
}

// ServeStdio blocks until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// StreamableHTTP returns the HTTP transport for the same tool set.
func (s *Server) StreamableHTTP() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcp)
}

func searchIngredientsTool() mcp.Tool {
	return mcp.NewTool("search_ingredients",
		mcp.WithDescription("Search the cosmetic ingredient catalog by code, name, property or free text (English or Thai)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Ingredient code, name or natural language description"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum number of results (1-100)"),
			mcp.Min(1),
			mcp.Max(maxTopK),
		),
		mcp.WithString("collection",
			mcp.Description("Restrict to in-stock items (available), the full catalog (full) or both"),
			mcp.Enum("available", "full", "both"),
		),
	)
}

func classifyQueryTool() mcp.Tool {
	return mcp.NewTool("classify_query",
		mcp.WithDescription("Show how a query is interpreted: intent, extracted entities, expansions and strategies"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Query text to classify"),
		),
	)
}

func (s *Server) handleSearchIngredients(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query parameter is required and cannot be empty"), nil
	}
	topK := request.GetInt("top_k", 0)
	if topK < 0 || topK > maxTopK {
		return mcp.NewToolResultError(fmt.Sprintf("top_k must be between 1 and %d", maxTopK)), nil
	}
	hint, ok := domain.ParseCollectionHint(strings.ToLower(request.GetString("collection", "")))
	if !ok {
		return mcp.NewToolResultError("collection must be one of available, full, both"), nil
	}

	results, err := s.search.Search(ctx, query, topK, hint)
	if err != nil {
		s.logger.Error("mcp_search_failed", "query", query, "error", err)
		if errors.Is(err, domain.ErrAllStrategiesFailed) {
			return mcp.NewToolResultError(domain.ErrAllStrategiesFailed.Error()), nil
		}
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return jsonResult(map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleClassifyQuery(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query parameter is required and cannot be empty"), nil
	}
	return jsonResult(s.search.Classify(query))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
