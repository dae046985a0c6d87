package generate

import (
	"context"
	"time"
)

var (
	StripFenceForTest = stripFence
	PCMToWAVForTest   = pcmToWAV
	WrapHTMLForTest   = wrapHTML
)

// WithSleepForTest replaces the poll wait so that tests do not sleep
func WithSleepForTest(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}
