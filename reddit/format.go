// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package reddit

import (
	"fmt"
	"strings"
	"time"
)

// maxFormatted caps how many posts end up in the prompt. Posts past the cap
// are summarized by a trailing count so the model knows they exist.
const maxFormatted = 5

// FormatPosts renders posts as a prompt-sized text block.
//
// The output is deterministic: identical input produces byte-identical
// text, since it becomes literal model-prompt content. Truncation is
// byte-based like the rest of the block layout; a title cut mid-rune costs
// nothing to the model and keeps the boundaries exact.
func FormatPosts(subreddit string, posts []Post) string {
	if len(posts) == 0 {
		return "No posts found."
	}
	if posts[0].Err != "" {
		return "Error: " + posts[0].Err
	}
	shown := posts
	if len(shown) > maxFormatted {
		shown = shown[:maxFormatted]
	}
	blocks := make([]string, 0, len(shown))
	for i, p := range shown {
		posted := time.Unix(int64(p.CreatedUTC), 0).UTC().Format("2006-01-02 15:04:05") + " UTC"
		blocks = append(blocks, fmt.Sprintf(
			"Post %d:\nTitle: %s\nPosted: %s\nScore: %d\nComments: %d\nContent: %s\nURL: %s\n",
			i+1, truncate(p.Title, 100), posted, p.Score, p.NumComments, truncate(p.Content, 300), p.URL))
	}
	out := "Reddit posts from r/" + subreddit + ":\n\n" + strings.Join(blocks, "\n\n")
	if len(posts) > maxFormatted {
		out += fmt.Sprintf("\n\nNote: Showing %d of %d total posts to save token usage.", maxFormatted, len(posts))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
