// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package agent

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kellyoconor/reddit-chat-beta1/internal/internaltest"
	"github.com/kellyoconor/reddit-chat-beta1/llm"
	"github.com/kellyoconor/reddit-chat-beta1/reddit"
)

func call(name, args string) llm.ToolCall {
	return llm.ToolCall{ID: "call_1", Function: llm.FunctionCall{Name: name, Arguments: args}}
}

func TestExecuteToolCallUnknown(t *testing.T) {
	ctx, _ := internaltest.Log(t)
	a := newTestAgent(&fakeLLM{})
	if got, want := a.ExecuteToolCall(ctx, call("make_coffee", "{}")), "Unknown function: make_coffee"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExecuteToolCallBadArguments(t *testing.T) {
	ctx, _ := internaltest.Log(t)
	a := newTestAgent(&fakeLLM{})
	for _, args := range []string{
		"not json",
		`{"timeframe": 42}`,
		`{"sort": "hot"}`,
		`{"timeframe": "yesterday"}`,
		`{"limit": 0}`,
		`{"limit": 101}`,
	} {
		got := a.ExecuteToolCall(ctx, call("fetch_recent_posts", args))
		if !strings.HasPrefix(got, "Error executing fetch_recent_posts: ") {
			t.Fatalf("args %q: got %q", args, got)
		}
		if !strings.HasSuffix(got, "Please try again with different parameters or contact support if the issue persists.") {
			t.Fatalf("args %q: got %q", args, got)
		}
	}
}

func TestExecuteToolCallSearchValidation(t *testing.T) {
	ctx, _ := internaltest.Log(t)
	a := newTestAgent(&fakeLLM{})
	for _, args := range []string{
		"{}",
		`{"query": "  "}`,
		`{"query": "outage", "limit": 51}`,
	} {
		got := a.ExecuteToolCall(ctx, call("search_subreddit", args))
		if !strings.HasPrefix(got, "Error executing search_subreddit: ") {
			t.Fatalf("args %q: got %q", args, got)
		}
	}
}

func TestExecuteToolCallFetch(t *testing.T) {
	ctx, _ := internaltest.Log(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/r/Comcast_Xfinity/top.json"; r.URL.Path != want {
			t.Errorf("expected path %q, got %q", want, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"children":[{"data":{"title":"Outage","created_utc":1735689600,"score":10,"num_comments":4,"selftext":"down again","permalink":"/r/Comcast_Xfinity/comments/abc/"}}]}}`))
	}))
	defer ts.Close()
	r := reddit.New("Comcast_Xfinity")
	r.BaseURL = ts.URL
	a := New(&fakeLLM{}, r)
	got := a.ExecuteToolCall(ctx, call("fetch_recent_posts", `{"timeframe": "top", "limit": 5}`))
	if !strings.HasPrefix(got, "Reddit posts from r/Comcast_Xfinity:") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "Title: Outage\n") {
		t.Fatalf("got %q", got)
	}
}

func TestExecuteToolCallDefaults(t *testing.T) {
	ctx, _ := internaltest.Log(t)
	gotQuery := ""
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	defer ts.Close()
	r := reddit.New("Comcast_Xfinity")
	r.BaseURL = ts.URL
	a := New(&fakeLLM{}, r)
	if got, want := a.ExecuteToolCall(ctx, call("fetch_recent_posts", "")), "No posts found."; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if want := "/r/Comcast_Xfinity/hot.json?limit=25"; gotQuery != want {
		t.Fatalf("expected default fetch %q, got %q", want, gotQuery)
	}
	if got, want := a.ExecuteToolCall(ctx, call("search_subreddit", `{"query": "outage"}`)), "No posts found."; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if want := "/r/Comcast_Xfinity/search.json?limit=20&q=outage&restrict_sr=1"; gotQuery != want {
		t.Fatalf("expected default search %q, got %q", want, gotQuery)
	}
}

func TestExecuteToolCallSourceDown(t *testing.T) {
	ctx, _ := internaltest.Log(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	r := reddit.New("Comcast_Xfinity")
	r.BaseURL = ts.URL
	a := New(&fakeLLM{}, r)
	got := a.ExecuteToolCall(ctx, call("fetch_recent_posts", `{"timeframe": "hot", "limit": 25}`))
	// The failure is data for the model, not an error.
	if !strings.HasPrefix(got, "Error:") {
		t.Fatalf("got %q", got)
	}
}
