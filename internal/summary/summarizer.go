package summary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/DeafMist/list-digest/internal/config"
	"github.com/DeafMist/list-digest/internal/llm"
	"github.com/DeafMist/list-digest/internal/retry"
	"github.com/DeafMist/list-digest/internal/tokenizer"
)

// maxDepth bounds the recursive consolidation when the model keeps returning
// summaries longer than MaxTokens.
const maxDepth = 8

// Options tune a Summarizer.
type Options struct {
	// ChunkTokens is the token budget of a single summarization input.
	ChunkTokens int
	// MaxTokens bounds the combined length of the chunk summaries.
	MaxTokens int
	Retry     retry.Policy
	Log       *slog.Logger
}

// Summarizer turns arbitrarily long text into a bounded summary using a
// language model.
type Summarizer struct {
	llm  llm.Client
	tok  tokenizer.Tokenizer
	opts Options
	log  *slog.Logger
}

// New creates a Summarizer.
func New(client llm.Client, tok tokenizer.Tokenizer, opts Options) *Summarizer {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Retry.Log == nil {
		opts.Retry.Log = log
	}
	return &Summarizer{llm: client, tok: tok, opts: opts, log: log}
}

// NewFromConfig wires the configured provider and tokenizer. Every model
// call waits retryCfg.Delay first and is retried up to retryCfg.MaxRetries
// times.
func NewFromConfig(ctx context.Context, llmCfg config.LLM, sumCfg config.Summary, retryCfg config.Retry, log *slog.Logger) (*Summarizer, error) {
	client, err := llm.New(ctx, llmCfg)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(sumCfg.Encoding)
	if err != nil {
		return nil, err
	}
	return New(client, tok, Options{
		ChunkTokens: sumCfg.ChunkTokens,
		MaxTokens:   sumCfg.MaxTokens,
		Retry: retry.Policy{
			MaxRetries: retryCfg.MaxRetries,
			Delay:      retryCfg.Delay,
			Pace:       true,
		},
		Log: log,
	}), nil
}

// SplitIntoChunks slices text into pieces of at most chunkTokens tokens.
// Blank pieces are dropped.
func (s *Summarizer) SplitIntoChunks(text string, chunkTokens int) []string {
	tokens := s.tok.Encode(text)
	if chunkTokens <= 0 {
		chunkTokens = len(tokens)
	}

	var chunks []string
	for len(tokens) > 0 {
		n := min(chunkTokens, len(tokens))
		if chunk := strings.TrimSpace(s.tok.Decode(tokens[:n])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		tokens = tokens[n:]
	}
	return chunks
}

// ChunkSummaries summarizes every chunk of body independently.
func (s *Summarizer) ChunkSummaries(ctx context.Context, body string) ([]string, error) {
	chunks := s.SplitIntoChunks(body, s.opts.ChunkTokens)
	s.log.Info("summarizing chunks", slog.Int("chunks", len(chunks)))

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, err := s.complete(ctx, fmt.Sprintf("chunk summary %d/%d", i+1, len(chunks)), llm.Request{
			System:      assistantSystem,
			Prompt:      chunkPrompt(chunk),
			Temperature: 0.7,
			MaxTokens:   700,
		})
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, out)
	}
	return summaries, nil
}

// Recursive summarizes body chunk by chunk and, while the summaries together
// exceed MaxTokens, summarizes their concatenation again.
func (s *Summarizer) Recursive(ctx context.Context, body string) ([]string, error) {
	return s.recursive(ctx, body, 0)
}

func (s *Summarizer) recursive(ctx context.Context, body string, depth int) ([]string, error) {
	summaries, err := s.ChunkSummaries(ctx, body)
	if err != nil {
		return nil, err
	}

	length := 0
	for _, sum := range summaries {
		length += s.tok.Count(sum)
	}
	s.log.Info("summary length", slog.Int("tokens", length), slog.Int("max_tokens", s.opts.MaxTokens), slog.Int("depth", depth))

	if length <= s.opts.MaxTokens {
		return summaries, nil
	}
	if depth+1 >= maxDepth {
		s.log.Warn("summary still above budget, giving up on further recursion", slog.Int("depth", depth))
		return summaries, nil
	}
	return s.recursive(ctx, strings.Join(summaries, "\n"), depth+1)
}

// Summarize returns a single summary for body. Multi-chunk results are
// consolidated by one more model call.
func (s *Summarizer) Summarize(ctx context.Context, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}

	summaries, err := s.Recursive(ctx, body)
	if err != nil {
		return "", err
	}
	if len(summaries) <= 1 {
		s.log.Info("generating individual summary")
		return strings.Join(summaries, "\n"), nil
	}

	s.log.Info("generating consolidated summary", slog.Int("parts", len(summaries)))
	return s.Consolidate(ctx, summaries)
}

// Consolidate merges partial summaries of one discussion.
func (s *Summarizer) Consolidate(ctx context.Context, summaries []string) (string, error) {
	return s.complete(ctx, "consolidate summary", llm.Request{
		System:      assistantSystem,
		Prompt:      consolidatePrompt(strings.Join(summaries, "\n")),
		Temperature: 0.7,
		MaxTokens:   1000,
	})
}

// Title generates a short headline for a discussion.
func (s *Summarizer) Title(ctx context.Context, summaries string) (string, error) {
	out, err := s.complete(ctx, "title", llm.Request{
		System:      assistantSystem,
		Prompt:      titlePrompt(summaries),
		Temperature: 0.7,
		MaxTokens:   30,
	})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(out), `"`), nil
}

// Bullets condenses summary into n hyphen-led sentences, one per line.
func (s *Summarizer) Bullets(ctx context.Context, summary string, n int) (string, error) {
	out, err := s.complete(ctx, "bullets", llm.Request{
		System:      assistantSystem,
		Prompt:      bulletsPrompt(summary, n),
		Temperature: 1,
		MaxTokens:   300,
	})
	if err != nil {
		return "", err
	}
	return FormatBullets(out), nil
}

// FormatBullets puts every "- " sentence on its own line.
func FormatBullets(raw string) string {
	out := strings.TrimSpace(strings.ReplaceAll(raw, "\n", ""))
	out = strings.ReplaceAll(out, ".- ", ".\n- ")
	out = strings.ReplaceAll(out, ". - ", ".\n- ")
	return out
}

// HeaderSummary writes the three-to-four sentence header shown above the
// feed entries.
func (s *Summarizer) HeaderSummary(ctx context.Context, recent string) (string, error) {
	out, err := s.complete(ctx, "header summary", llm.Request{
		System:      writerSystem,
		Prompt:      headerPrompt(recent),
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if rest, ok := strings.CutPrefix(out, "Summary:"); ok {
		out = strings.TrimSpace(rest)
	}
	return out, nil
}

func (s *Summarizer) complete(ctx context.Context, op string, req llm.Request) (string, error) {
	return retry.Value(ctx, s.opts.Retry, op, func(ctx context.Context) (string, error) {
		return s.llm.Complete(ctx, req)
	})
}
