// Package mcp exposes the question answering pipeline as a Model
// Context Protocol tool, so other agents can ask grounded questions
// over the indexed records via stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gema-dev/gema/pkg/usecase/ask"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type askParams struct {
	Question string `json:"question" jsonschema:"Natural language question about the indexed funding records"`
}

type askResult struct {
	Answer   string      `json:"answer"`
	State    string      `json:"state"`
	Verified bool        `json:"verified"`
	Sources  []askSource `json:"sources,omitempty"`
}

type askSource struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Server wraps an ask pipeline behind an MCP stdio server.
type Server struct {
	pipeline *ask.UseCase
	version  string
}

// New creates an MCP server for the given pipeline.
func New(pipeline *ask.UseCase, version string) *Server {
	return &Server{pipeline: pipeline, version: version}
}

// Run serves MCP requests over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "gema",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_funding",
		Description: "Answer a question using only indexed funding records. Responses are verified against the retrieved evidence; unsupported content is never returned as fact.",
	}, s.handleAsk)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, params *askParams) (*mcp.CallToolResult, any, error) {
	if params.Question == "" {
		return nil, nil, fmt.Errorf("question is required")
	}

	resp, err := s.pipeline.Ask(ctx, params.Question)
	if err != nil {
		return nil, nil, err
	}

	result := askResult{
		Answer:   resp.Answer,
		State:    string(resp.State),
		Verified: resp.Verified(),
	}
	for _, src := range resp.Sources {
		result.Sources = append(result.Sources, askSource{Source: src.Source, Content: src.Content})
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(body)},
		},
	}, nil, nil
}
