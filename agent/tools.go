// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kellyoconor/reddit-chat-beta1/llm"
	"github.com/kellyoconor/reddit-chat-beta1/reddit"
)

// The two functions advertised to the model on every completion call.
const (
	fetchTool  = "fetch_recent_posts"
	searchTool = "search_subreddit"
)

// Tools returns the fixed tool definitions for one subreddit.
func Tools(subreddit string) []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.Function{
				Name:        fetchTool,
				Description: "Get recent posts from r/" + subreddit + " subreddit",
				Parameters: llm.Schema{
					Type: "object",
					Properties: map[string]llm.Property{
						"timeframe": {
							Type:        "string",
							Enum:        []string{"hot", "new", "top"},
							Description: "Sort type for posts (hot=trending, new=recent, top=highest scored)",
							Default:     "hot",
						},
						"limit": {
							Type:        "integer",
							Description: "Number of posts to fetch (1-100)",
							Minimum:     1,
							Maximum:     100,
							Default:     25,
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: llm.Function{
				Name:        searchTool,
				Description: "Search r/" + subreddit + " for posts containing specific keywords",
				Parameters: llm.Schema{
					Type: "object",
					Properties: map[string]llm.Property{
						"query": {
							Type:        "string",
							Description: "Search query (e.g., 'outage', 'slow internet', 'billing issue')",
						},
						"limit": {
							Type:        "integer",
							Description: "Number of results to return (1-50)",
							Minimum:     1,
							Maximum:     50,
							Default:     20,
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

type fetchArgs struct {
	Timeframe string `json:"timeframe"`
	Limit     int    `json:"limit"`
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// ExecuteToolCall satisfies one tool call and always returns a non-empty
// string. Failures of any kind, bad arguments, unknown function or an
// unavailable data source, come back as descriptive text for the model to
// read, never as an error.
func (a *Agent) ExecuteToolCall(ctx context.Context, tc llm.ToolCall) string {
	name := tc.Function.Name
	slog.Info("agent", "tool", name, "args", tc.Function.Arguments)
	result := ""
	switch name {
	case fetchTool:
		args := fetchArgs{Timeframe: "hot", Limit: 25}
		if err := decodeArgs(tc.Function.Arguments, &args); err != nil {
			return execError(name, err)
		}
		switch args.Timeframe {
		case "hot", "new", "top":
		default:
			return execError(name, fmt.Errorf("invalid timeframe %q, expected hot, new or top", args.Timeframe))
		}
		if args.Limit < 1 || args.Limit > 100 {
			return execError(name, fmt.Errorf("limit %d out of range [1, 100]", args.Limit))
		}
		posts := a.reddit.Fetch(ctx, args.Timeframe, args.Limit)
		result = reddit.FormatPosts(a.reddit.Subreddit, posts)
	case searchTool:
		args := searchArgs{Limit: 20}
		if err := decodeArgs(tc.Function.Arguments, &args); err != nil {
			return execError(name, err)
		}
		if strings.TrimSpace(args.Query) == "" {
			return execError(name, fmt.Errorf("missing required argument %q", "query"))
		}
		if args.Limit < 1 || args.Limit > 50 {
			return execError(name, fmt.Errorf("limit %d out of range [1, 50]", args.Limit))
		}
		posts := a.reddit.Search(ctx, args.Query, args.Limit)
		result = reddit.FormatPosts(a.reddit.Subreddit, posts)
	default:
		return "Unknown function: " + name
	}
	if result == "" {
		return "No results available"
	}
	return result
}

// decodeArgs parses the model-supplied arguments strictly so a misspelled
// parameter is reported instead of silently ignored.
func decodeArgs(raw string, out any) error {
	if raw == "" {
		return nil
	}
	d := json.NewDecoder(strings.NewReader(raw))
	d.DisallowUnknownFields()
	return d.Decode(out)
}

func execError(name string, err error) string {
	slog.Warn("agent", "tool", name, "error", err)
	return fmt.Sprintf("Error executing %s: %s. Please try again with different parameters or contact support if the issue persists.", name, err)
}
