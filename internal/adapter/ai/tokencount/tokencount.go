// Package tokencount estimates token usage for upstream model calls.
//
// Gemini does not expose a local tokenizer, so prompt sizes are approximated
// with the cl100k_base encoding via tiktoken-go. The numbers feed cost
// logging and metrics, nothing correctness-critical.
package tokencount

import (
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Counter provides thread-safe approximate token counting.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// DefaultCounter is the process-wide counter instance.
var DefaultCounter = &Counter{}

func (c *Counter) encoding() (*tiktoken.Tiktoken, error) {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding(encodingName)
		if c.err != nil {
			slog.Warn("token encoding unavailable", slog.String("encoding", encodingName), slog.Any("error", c.err))
		}
	})
	return c.enc, c.err
}

// Estimate returns the approximate token count for the given text, or 0 when
// the encoding could not be loaded.
func (c *Counter) Estimate(text string) int {
	if text == "" {
		return 0
	}
	enc, err := c.encoding()
	if err != nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

// Estimate is a convenience wrapper around DefaultCounter.
func Estimate(text string) int { return DefaultCounter.Estimate(text) }
