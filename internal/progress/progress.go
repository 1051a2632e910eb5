// Package progress provides the liveness counter printed while long
// enumerations run. It reports, it never decides: counts are not part of
// any correctness contract.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// DefaultInterval is how many increments pass between printed updates.
const DefaultInterval = 100

// Counter is a monotonic, concurrency-safe counter that prints "N..."
// every interval increments.
type Counter struct {
	label    string
	interval int64
	out      io.Writer
	n        atomic.Int64
}

// NewCounter creates a counter writing to out (stdout when nil).
func NewCounter(label string, interval int, out io.Writer) *Counter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if out == nil {
		out = os.Stdout
	}
	return &Counter{label: label, interval: int64(interval), out: out}
}

// Incr adds one processed item and emits a liveness tick at each interval.
func (c *Counter) Incr() {
	n := c.n.Add(1)
	if n%c.interval == 0 {
		if n == c.interval {
			fmt.Fprintf(c.out, "%s: ", c.label)
		}
		fmt.Fprintf(c.out, "%d...", n)
	}
}

// Count returns the number of increments so far.
func (c *Counter) Count() int64 {
	return c.n.Load()
}

// Finish terminates the progress line with the final count.
func (c *Counter) Finish() {
	n := c.n.Load()
	if n >= c.interval {
		fmt.Fprintln(c.out)
	}
	fmt.Fprintf(c.out, "%s: %d objects processed\n", c.label, n)
}
