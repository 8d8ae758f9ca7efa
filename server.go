// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package redditchat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kellyoconor/reddit-chat-beta1/agent"
	"github.com/kellyoconor/reddit-chat-beta1/internal"
	"github.com/kellyoconor/reddit-chat-beta1/llm"
)

// Server is the AG-UI HTTP surface. One instance serves all requests; the
// conversation state lives entirely in each request body.
type Server struct {
	agent     *agent.Agent
	subreddit string
	// now is a clock hook so tests get stable timestamps.
	now func() time.Time
	mux *http.ServeMux

	_ struct{}
}

// NewServer returns the handler for the three endpoints: the service
// descriptor, the health check and the /awp protocol endpoint.
func NewServer(a *agent.Agent, subreddit string) *Server {
	s := &Server{agent: a, subreddit: subreddit, now: time.Now}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /awp", s.handleAWP)
	s.mux = mux
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Permissive CORS; the frontend runs on another origin during
	// development.
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	// One bad request must never take the process down.
	defer func() {
		if v := recover(); v != nil {
			slog.Error("http", "path", r.URL.Path, "panic", fmt.Sprint(v))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: "unexpected failure"})
		}
	}()
	s.mux.ServeHTTP(w, r)
}

// envelope is the tagged union of the inbound request shapes: a raw message
// list, a single-message shorthand and the two GraphQL style operations.
// The discriminator checks in handleAWP resolve which variant applies;
// nothing past this boundary sees a loosely typed body.
type envelope struct {
	OperationName string `json:"operationName"`
	Variables     struct {
		Text string `json:"text"`
	} `json:"variables"`
	Messages json.RawMessage `json:"messages"`
	Message  string          `json:"message"`
}

// conversation normalizes the direct and shorthand variants into the
// canonical message list. Some clients send messages as an empty string
// instead of omitting it; that counts as no messages.
func (e *envelope) conversation() ([]llm.Message, error) {
	var msgs []llm.Message
	if len(e.Messages) != 0 && !bytes.Equal(e.Messages, []byte("null")) {
		if err := json.Unmarshal(e.Messages, &msgs); err != nil {
			s := ""
			if err2 := json.Unmarshal(e.Messages, &s); err2 != nil || s != "" {
				return nil, err
			}
		}
	}
	if len(msgs) == 0 && e.Message != "" {
		msgs = []llm.Message{{Role: llm.User, Content: e.Message}}
	}
	return msgs, nil
}

type errorResponse struct {
	Error    string          `json:"error"`
	Details  string          `json:"details,omitempty"`
	Received json.RawMessage `json:"received,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	version := internal.Commit()
	if version == "" {
		version = "1.0.0"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "AG-UI Reddit Analyzer",
		"status":  "running",
		"version": version,
		"endpoints": map[string]string{
			"ag_ui":  "/awp",
			"health": "/health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Reddit Analyzer API is running",
	})
}

func (s *Server) handleAWP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON in request body"})
		return
	}
	e := envelope{}
	if err := json.Unmarshal(body, &e); err != nil {
		slog.Warn("http", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON in request body"})
		return
	}
	switch e.OperationName {
	case "availableAgents":
		// Static descriptor; never touches the completion server.
		writeJSON(w, http.StatusOK, availableAgentsPayload(s.subreddit))
	case "generateMessage":
		if e.Variables.Text == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No message text provided"})
			return
		}
		msgs := []llm.Message{{Role: llm.User, Content: e.Variables.Text}}
		reply, err := s.agent.Run(ctx, msgs)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, generateMessagePayload(reply, s.now()))
	default:
		msgs, err := e.conversation()
		if err != nil {
			slog.Warn("http", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON in request body"})
			return
		}
		if len(msgs) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No messages provided", Received: body})
			return
		}
		reply, err := s.agent.Run(ctx, msgs)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message":   reply,
			"type":      "message",
			"timestamp": s.now().UTC().Format(time.RFC3339),
		})
	}
}

// GraphQL shaped payloads, __typename included, as the CopilotKit frontend
// expects.

func availableAgentsPayload(subreddit string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"availableAgents": map[string]any{
				"agents": []map[string]any{
					{
						"name":        "Reddit Analyzer",
						"id":          "reddit-analyzer",
						"description": "Analyzes r/" + subreddit + " subreddit",
						"__typename":  "Agent",
					},
				},
				"__typename": "AvailableAgents",
			},
		},
	}
}

func generateMessagePayload(reply string, now time.Time) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"generateMessage": map[string]any{
				"message": map[string]any{
					"id":         fmt.Sprintf("msg_%d", now.Unix()),
					"content":    reply,
					"role":       "assistant",
					"__typename": "Message",
				},
				"__typename": "GenerateMessagePayload",
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("http", "error", err)
	}
}
