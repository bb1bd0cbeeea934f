// Package testutil holds fakes shared by the package tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/DeafMist/list-digest/internal/llm"
)

// WordTokenizer treats every whitespace-separated word as one token.
type WordTokenizer struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
}

// Encode assigns stable ids to the words of text.
func (w *WordTokenizer) Encode(text string) []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ids == nil {
		w.ids = make(map[string]int)
	}

	fields := strings.Fields(text)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		id, ok := w.ids[f]
		if !ok {
			id = len(w.words)
			w.ids[f] = id
			w.words = append(w.words, f)
		}
		out = append(out, id)
	}
	return out
}

// Decode joins the words of tokens with single spaces.
func (w *WordTokenizer) Decode(tokens []int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, w.words[t])
	}
	return strings.Join(parts, " ")
}

// Count returns the number of words in text.
func (w *WordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

// FakeLLM records requests and answers them with Respond.
type FakeLLM struct {
	Requests []llm.Request
	Respond  func(call int, req llm.Request) (string, error)
}

// Complete implements llm.Client.
func (f *FakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.Requests = append(f.Requests, req)
	if f.Respond == nil {
		return "summary", nil
	}
	return f.Respond(len(f.Requests), req)
}

// Prompts returns the user prompts seen so far.
func (f *FakeLLM) Prompts() []string {
	out := make([]string, 0, len(f.Requests))
	for _, r := range f.Requests {
		out = append(out, r.Prompt)
	}
	return out
}

// NoSleep is a retry sleep that returns immediately.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
