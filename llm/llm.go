// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package llm talks to an OpenAI compatible chat completion server, with
// support for tool calling.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maruel/httpjson"
)

// Role is one of the chat completion roles.
type Role string

// Known roles.
const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
	ToolRole  Role = "tool"
)

// Message is one entry in the conversation sent to the completion server.
//
// Content is serialized even when empty: the server rejects assistant
// tool-call messages with null content.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`

	_ struct{}
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`

	_ struct{}
}

// FunctionCall names the function and carries its arguments.
type FunctionCall struct {
	Name string `json:"name"`
	// Arguments is the raw JSON object string exactly as the model sent it.
	// It is never re-serialized so it round-trips byte for byte.
	Arguments string `json:"arguments"`

	_ struct{}
}

// Messages. https://platform.openai.com/docs/api-reference/making-requests

// Tool is the description of a function the model may call.
type Tool struct {
	// Type must be "function".
	Type     string   `json:"type"`
	Function Function `json:"function"`

	_ struct{}
}

// Function is an available function to call.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`

	_ struct{}
}

// Schema is the JSON schema subset the completion servers understand.
type Schema struct {
	// Type must be "object" at the top level.
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	// Required is more a hint than enforcement.
	Required []string `json:"required,omitempty"`

	_ struct{}
}

// Property is a single function parameter.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     int      `json:"minimum,omitempty"`
	Maximum     int      `json:"maximum,omitempty"`
	Default     any      `json:"default,omitempty"`

	_ struct{}
}

// chatCompletionRequest is documented at
// https://platform.openai.com/docs/api-reference/chat/create
type chatCompletionRequest struct {
	Model      string    `json:"model"`
	Messages   []Message `json:"messages"`
	Tools      []Tool    `json:"tools,omitempty"`
	ToolChoice string    `json:"tool_choice,omitempty"`
}

// chatCompletionsResponse is documented at
// https://platform.openai.com/docs/api-reference/chat/object
type chatCompletionsResponse struct {
	Choices []choices `json:"choices"`
	Created int64     `json:"created"`
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Object  string    `json:"object"`
	Usage   struct {
		CompletionTokens int64 `json:"completion_tokens"`
		PromptTokens     int64 `json:"prompt_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

type choices struct {
	// FinishReason is one of "stop", "length", "content_filter" or "tool_calls".
	FinishReason string  `json:"finish_reason"`
	Index        int     `json:"index"`
	Message      Message `json:"message"`
}

// Client queries a chat completion server.
type Client struct {
	// BaseURL is the server, e.g. "https://api.openai.com".
	BaseURL string
	Model   string
	// APIKey may be empty; the call fails server-side then, which keeps
	// health checks working without a key.
	APIKey string

	_ struct{}
}

// Complete sends the conversation plus the advertised tools and returns the
// model's message, which may carry tool calls instead of content.
//
// Failures are not retried; the caller surfaces them as request failures.
func (c *Client) Complete(ctx context.Context, msgs []Message, tools []Tool) (Message, error) {
	start := time.Now()
	data := chatCompletionRequest{Model: c.Model, Messages: msgs, Tools: tools}
	if len(tools) != 0 {
		data.ToolChoice = "auto"
	}
	var hdr http.Header
	if c.APIKey != "" {
		hdr = http.Header{"Authorization": []string{"Bearer " + c.APIKey}}
	}
	msg := chatCompletionsResponse{}
	if err := httpjson.DefaultClient.Post(ctx, c.BaseURL+"/v1/chat/completions", hdr, &data, &msg); err != nil {
		slog.Error("llm", "num_msgs", int64(len(msgs)), "error", err, "duration", time.Since(start).Round(time.Millisecond))
		return Message{}, fmt.Errorf("failed to get chat completion: %w", err)
	}
	if len(msg.Choices) != 1 {
		return Message{}, fmt.Errorf("chat completion returned an unexpected number of choices, expected 1, got %d", len(msg.Choices))
	}
	reply := msg.Choices[0].Message
	slog.Info("llm", "num_msgs", int64(len(msgs)), "finish", msg.Choices[0].FinishReason, "tool_calls", int64(len(reply.ToolCalls)), "duration", time.Since(start).Round(time.Millisecond))
	return reply, nil
}
