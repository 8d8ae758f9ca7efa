// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package agent drives the tool-calling conversation loop: it sends the
// conversation to the completion server, satisfies the tool calls the model
// requests against the subreddit, and asks for the final answer.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kellyoconor/reddit-chat-beta1/llm"
	"github.com/kellyoconor/reddit-chat-beta1/reddit"
)

// CompletionService is the slice of llm.Client the agent needs. Tests
// substitute a scripted fake.
type CompletionService interface {
	Complete(ctx context.Context, msgs []llm.Message, tools []llm.Tool) (llm.Message, error)
}

// Agent owns one conversation per Run call. It holds no per-request state,
// so a single Agent serves concurrent requests.
type Agent struct {
	llm    CompletionService
	reddit *reddit.Client
	tools  []llm.Tool

	_ struct{}
}

// New returns an agent bound to a completion service and a subreddit
// client. Both are constructed once at process start and shared.
func New(c CompletionService, r *reddit.Client) *Agent {
	return &Agent{llm: c, reddit: r, tools: Tools(r.Subreddit)}
}

// Run sends msgs to the completion server and returns the final answer.
//
// The protocol supports exactly one tool round trip: if the first reply
// requests tool calls, they are all executed, their results appended, and a
// second completion produces the answer. A model that requests tools again
// after seeing the results gets its raw content returned as-is; this is a
// known protocol limitation, not something to silently loop on.
func (a *Agent) Run(ctx context.Context, msgs []llm.Message) (string, error) {
	reply, err := a.complete(ctx, msgs)
	if err != nil {
		return "", err
	}
	if len(reply.ToolCalls) == 0 {
		return strings.TrimSpace(reply.Content), nil
	}
	results := a.executeAll(ctx, reply.ToolCalls)
	// Rebuild the assistant message instead of echoing the reply verbatim:
	// the type must read "function" and the arguments must round-trip the
	// exact string the model supplied.
	calls := make([]llm.ToolCall, len(reply.ToolCalls))
	for i, tc := range reply.ToolCalls {
		tc.Type = "function"
		calls[i] = tc
	}
	next := make([]llm.Message, 0, len(msgs)+1+len(results))
	next = append(next, msgs...)
	next = append(next, llm.Message{Role: llm.Assistant, Content: reply.Content, ToolCalls: calls})
	for i, tc := range reply.ToolCalls {
		next = append(next, llm.Message{Role: llm.ToolRole, Content: results[i], ToolCallID: tc.ID})
	}
	final, err := a.complete(ctx, next)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(final.Content), nil
}

// complete validates the conversation, prepends the system prompt and calls
// the completion server. Validation runs here so both rounds get it.
func (a *Agent) complete(ctx context.Context, msgs []llm.Message) (llm.Message, error) {
	valid := Validate(msgs)
	full := make([]llm.Message, 0, len(valid)+1)
	full = append(full, llm.Message{Role: llm.System, Content: systemPrompt(a.reddit.Subreddit)})
	full = append(full, valid...)
	return a.llm.Complete(ctx, full, a.tools)
}

// executeAll runs the tool calls of one round concurrently. The calls are
// independent, but results[i] must line up with calls[i]: the model matches
// them back by position and id.
func (a *Agent) executeAll(ctx context.Context, calls []llm.ToolCall) []string {
	start := time.Now()
	results := make([]string, len(calls))
	g, ctx := errgroup.WithContext(ctx)
	for i, tc := range calls {
		g.Go(func() error {
			results[i] = a.ExecuteToolCall(ctx, tc)
			return nil
		})
	}
	// The workers never return an error; failures become result strings.
	_ = g.Wait()
	slog.Info("agent", "tool_calls", int64(len(calls)), "duration", time.Since(start).Round(time.Millisecond))
	return results
}

func systemPrompt(subreddit string) string {
	return `You are a Reddit analyzer focused on r/` + subreddit + `. Help users understand customer sentiment, common issues, and solutions discussed in the subreddit.

When analyzing posts:
1. Categorize issues (billing, outages, speed, equipment, customer service)
2. Identify geographic patterns when mentioned
3. Extract helpful solutions from comments
4. Summarize sentiment and trends
5. Always provide context about when posts were made
6. Be helpful and provide actionable insights based on the Reddit data

You have access to tools to fetch recent posts and search for specific topics. Use these tools to provide accurate, up-to-date information about what ` + subreddit + ` users are discussing.`
}
