/*
 * Copyright (C) 2026 Simone Pezzano
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/labstack/echo/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/theirish81/tutor"
	"github.com/theirish81/tutor/log"
)

type teachParams struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
}

type clarifyParams struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// lessonResult is what the MCP tools return: the lessons in order, plus the answer when clarifying
type lessonResult struct {
	Session string             `json:"session"`
	Lessons tutor.Lessons      `json:"lessons"`
	Payload *tutor.Payload     `json:"payload,omitempty"`
	Audio   *tutor.AudioHandle `json:"audio,omitempty"`
	Answer  string             `json:"answer,omitempty"`
}

func initMCP(e *echo.Echo, server *webServer, apiKey string) {
	mcpServer := newMCPServer(server)
	method := mcp.NewStreamableHTTPHandler(func(request *http.Request) *mcp.Server {
		return mcpServer
	}, nil)
	authMiddleware := requireApiKey(apiKey)
	e.Any("/mcp", echo.WrapHandler(authMiddleware(method)))
}

// newMCPServer exposes the consoles of server as MCP tools
func newMCPServer(server *webServer) *mcp.Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: "Tutor", Version: tutor.Version}, nil)
	mcp.AddTool(mcpServer, toolTeach,
		func(ctx context.Context, request *mcp.CallToolRequest, args teachParams) (*mcp.CallToolResult, any, error) {
			console, err := server.console(args.SessionID)
			if err != nil {
				return nil, nil, err
			}
			logger := log.NewStreamerLogger(server.logger, nil, log.InfoChannelLevel)
			logger.Info(log.NewEvent(log.StartEventType, log.McpComponent).WithSession(console.SessionID()).
				WithArg("tool", toolTeach.Name))
			console.SetPrompt(args.Prompt)
			if err := console.SubmitTeach(log.ContextWithLogger(ctx, logger)); err != nil {
				return nil, nil, err
			}
			state := console.Snapshot()
			return toCallResult(lessonResult{
				Session: console.SessionID(),
				Lessons: state.Payload.Lessons(),
				Payload: state.Payload,
				Audio:   state.Audio,
			}), nil, nil
		})
	mcp.AddTool(mcpServer, toolClarify,
		func(ctx context.Context, request *mcp.CallToolRequest, args clarifyParams) (*mcp.CallToolResult, any, error) {
			console, err := server.console(args.SessionID)
			if err != nil {
				return nil, nil, err
			}
			if console.Snapshot().Payload == nil {
				return nil, nil, tutor.ErrNoPayload
			}
			logger := log.NewStreamerLogger(server.logger, nil, log.InfoChannelLevel)
			logger.Info(log.NewEvent(log.StartEventType, log.McpComponent).WithSession(console.SessionID()).
				WithArg("tool", toolClarify.Name))
			console.SetClarifyQuestion(args.Question)
			if err := console.SubmitClarify(log.ContextWithLogger(ctx, logger)); err != nil {
				return nil, nil, err
			}
			state := console.Snapshot()
			return toCallResult(lessonResult{
				Session: console.SessionID(),
				Lessons: state.Payload.Lessons(),
				Answer:  state.ClarifyAnswer,
			}), nil, nil
		})
	return mcpServer
}

func toCallResult(data any) *mcp.CallToolResult {
	content, _ := json.Marshal(data)
	return &mcp.CallToolResult{StructuredContent: data, Content: []mcp.Content{
		&mcp.TextContent{
			Text: string(content),
		},
	}}
}

var toolTeach = &mcp.Tool{
	Name:        "tutor_teach",
	Description: "asks the teaching agent for a lesson on a prompt. The lesson text is also synthesized into speech.",
	InputSchema: &jsonschema.Schema{
		Type:     "object",
		Required: []string{"prompt"},
		Properties: map[string]*jsonschema.Schema{
			"prompt": {
				Type:        "string",
				Description: "what the user wants to learn",
			},
			"session_id": {
				Type:        "string",
				Description: "the session, defaults to the configured one",
			},
		},
	},
}

var toolClarify = &mcp.Tool{
	Name:        "tutor_clarify",
	Description: "asks the teaching agent a follow-up question about the first topic of the last lesson",
	InputSchema: &jsonschema.Schema{
		Type:     "object",
		Required: []string{"question"},
		Properties: map[string]*jsonschema.Schema{
			"question": {
				Type: "string",
			},
			"session_id": {
				Type:        "string",
				Description: "the session, defaults to the configured one",
			},
		},
	},
}

// requireApiKey guards a handler with the x-api-key header. An empty key disables the check.
func requireApiKey(key string) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || r.Header.Get("x-api-key") == key {
				handler.ServeHTTP(w, r)
			} else {
				w.WriteHeader(http.StatusForbidden)
			}
		})
	}
}
