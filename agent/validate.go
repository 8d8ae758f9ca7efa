// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package agent

import (
	"log/slog"

	"github.com/kellyoconor/reddit-chat-beta1/llm"
)

// Validate sanitizes a conversation before it is sent to the completion
// server. Messages without a role are dropped, everything else passes
// through in order. It is total and idempotent.
//
// Content needs no fixup here: llm.Message stores it as a plain string, so
// a JSON null or absent field already decoded to "", which is exactly what
// the completion server requires for assistant tool-call messages.
func Validate(msgs []llm.Message) []llm.Message {
	valid := make([]llm.Message, 0, len(msgs))
	for i, m := range msgs {
		if m.Role == "" {
			slog.Warn("agent", "message", "dropping message without role", "index", int64(i))
			continue
		}
		valid = append(valid, m)
	}
	return valid
}
