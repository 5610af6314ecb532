// Package chunker splits long agent replies into Telegram-sized pieces and
// delivers them in order with pacing between pieces.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// DefaultMaxLength keeps chunks under Telegram's 4096-character message
	// limit with headroom for the positional header.
	DefaultMaxLength = 4000

	// DefaultPacing is the delay between consecutive chunk deliveries.
	DefaultPacing = 500 * time.Millisecond
)

// SendFunc delivers one piece of content to the chat. Implementations try
// rich formatting first and fall back to plain text on their own; a returned
// error is terminal for that piece only.
type SendFunc func(ctx context.Context, content string) error

// Engine performs ordered delivery of bounded chunks.
type Engine struct {
	maxLength int
	pacing    time.Duration
	logger    *zap.Logger
}

// New creates an Engine with the default Telegram limits.
func New(logger *zap.Logger) *Engine {
	return NewWithLimits(DefaultMaxLength, DefaultPacing, logger)
}

// NewWithLimits creates an Engine with explicit limits.
func NewWithLimits(maxLength int, pacing time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		maxLength: maxLength,
		pacing:    pacing,
		logger:    logger,
	}
}

// Deliver splits text into chunks and sends them in original order. When the
// text splits into more than one chunk, each chunk is prefixed with a
// "(i/total)" header. A failed chunk is logged and skipped; later chunks are
// still attempted. Deliver returns an error only when ctx is cancelled
// during pacing.
func (e *Engine) Deliver(ctx context.Context, text string, send SendFunc) error {
	chunks := Split(text, e.maxLength)
	total := len(chunks)

	for i, chunk := range chunks {
		content := chunk
		if total > 1 {
			content = fmt.Sprintf("📄 (%d/%d)\n\n%s", i+1, total, chunk)
		}

		if err := send(ctx, content); err != nil {
			e.logger.Warn("chunk delivery failed",
				zap.Int("chunk", i+1),
				zap.Int("total", total),
				zap.Error(err))
		}

		if i < total-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.pacing):
			}
		}
	}

	return nil
}

// Split cuts text into ordered chunks of at most maxLength bytes. Split
// points are chosen at the last paragraph break, line break, or sentence end
// at or before maxLength, in that priority, each accepted only when it lies
// at least half of maxLength into the remaining text. Otherwise the cut is
// forced at maxLength. The remainder is trimmed of surrounding whitespace
// before the next round, so concatenating the chunks reproduces the original
// content modulo that boundary whitespace.
func Split(text string, maxLength int) []string {
	if len(text) <= maxLength {
		return []string{text}
	}

	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= maxLength {
			chunks = append(chunks, remaining)
			break
		}

		split := lastIndexWithin(remaining, "\n\n", maxLength)

		if split == -1 || 2*split < maxLength {
			split = lastIndexWithin(remaining, "\n", maxLength)
		}

		if split == -1 || 2*split < maxLength {
			// +1 keeps the period on the left side of the cut.
			if idx := lastIndexWithin(remaining, ". ", maxLength); idx != -1 {
				split = idx + 1
			} else {
				split = -1
			}
		}

		if split == -1 || 2*split < maxLength {
			split = hardCut(remaining, maxLength)
		}

		chunks = append(chunks, remaining[:split])
		remaining = strings.TrimSpace(remaining[split:])
	}

	return chunks
}

// lastIndexWithin returns the byte index of the last occurrence of sep in s
// starting at or before limit, or -1.
func lastIndexWithin(s, sep string, limit int) int {
	end := limit + len(sep)
	if end > len(s) {
		end = len(s)
	}
	return strings.LastIndex(s[:end], sep)
}

// hardCut returns maxLength backed off to the nearest rune boundary so a
// forced cut never lands inside a UTF-8 sequence.
func hardCut(s string, maxLength int) int {
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return maxLength
	}
	return cut
}
