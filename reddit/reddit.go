// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package reddit fetches submissions from a single subreddit through the
// public listing endpoints.
//
// The failure contract is unusual on purpose: Fetch and Search never return
// an error. A transport or HTTP failure yields a single Post whose Err field
// describes what went wrong, so the caller can hand it to the model as data.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// siteURL is the prefix for permalinks, independent of which server the
// listing was fetched from.
const siteURL = "https://www.reddit.com"

// The listing endpoints answer 403 to clients that don't look like a browser.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Post is an immutable snapshot of one submission.
//
// When Err is non-empty all other fields are zero and the slice containing
// it has length one.
type Post struct {
	Title       string
	CreatedUTC  float64
	Score       int
	NumComments int
	Content     string
	URL         string
	Err         string

	_ struct{}
}

// Client fetches posts for one subreddit.
type Client struct {
	// Subreddit is the community name without the "r/" prefix.
	Subreddit string
	// BaseURL is the server to query. Defaults to the public site. Tests
	// point it at a local server.
	BaseURL string
	HTTP    *http.Client

	_ struct{}
}

// New returns a client bound to one subreddit.
func New(subreddit string) *Client {
	return &Client{Subreddit: subreddit, BaseURL: siteURL, HTTP: http.DefaultClient}
}

// Fetch returns up to limit posts sorted by sort, one of "hot", "new" or
// "top".
func (c *Client) Fetch(ctx context.Context, sort string, limit int) []Post {
	u := fmt.Sprintf("%s/r/%s/%s.json?limit=%d", c.BaseURL, c.Subreddit, sort, limit)
	return c.get(ctx, u, "fetching")
}

// Search returns up to limit posts matching query, restricted to the
// client's subreddit.
func (c *Client) Search(ctx context.Context, query string, limit int) []Post {
	v := url.Values{}
	v.Set("q", query)
	v.Set("restrict_sr", "1")
	v.Set("limit", strconv.Itoa(limit))
	u := fmt.Sprintf("%s/r/%s/search.json?%s", c.BaseURL, c.Subreddit, v.Encode())
	return c.get(ctx, u, "searching")
}

func (c *Client) get(ctx context.Context, u, verb string) []Post {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return []Post{{Err: fmt.Sprintf("Error %s posts: %s", verb, err)}}
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		slog.Error("reddit", "url", u, "error", err, "duration", time.Since(start).Round(time.Millisecond))
		return []Post{{Err: fmt.Sprintf("Error %s posts: %s", verb, err)}}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Warn("reddit", "url", u, "status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond))
		return []Post{{Err: fmt.Sprintf("Error %s posts: %d", verb, resp.StatusCode)}}
	}
	data := listing{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		slog.Error("reddit", "url", u, "error", err, "duration", time.Since(start).Round(time.Millisecond))
		return []Post{{Err: fmt.Sprintf("Error %s posts: %s", verb, err)}}
	}
	posts := make([]Post, 0, len(data.Data.Children))
	for _, child := range data.Data.Children {
		posts = append(posts, child.Data.toPost())
	}
	slog.Info("reddit", "url", u, "posts", int64(len(posts)), "duration", time.Since(start).Round(time.Millisecond))
	return posts
}

// listing is the subset of the nested listing document we care about. The
// real payload carries dozens of other fields; they are ignored.
type listing struct {
	Data struct {
		Children []struct {
			Data rawPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type rawPost struct {
	Title       string  `json:"title"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	// Selftext is a pointer to tell "absent" apart from "empty".
	Selftext  *string `json:"selftext"`
	Permalink string  `json:"permalink"`
}

func (r *rawPost) toPost() Post {
	content := "[No content]"
	if r.Selftext != nil {
		content = *r.Selftext
	}
	return Post{
		Title:       r.Title,
		CreatedUTC:  r.CreatedUTC,
		Score:       r.Score,
		NumComments: r.NumComments,
		Content:     content,
		URL:         siteURL + r.Permalink,
	}
}
