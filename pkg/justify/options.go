package justify

import (
	"fmt"
	"strings"

	"github.com/matzehuels/justified/pkg/errors"
)

// DefaultGrowthCap is the growth cap used by galleries that want to avoid
// extreme rows caused by very wide or very tall items.
const DefaultGrowthCap = 1.3

// MaxDimension bounds the container width, the row height, the gap and every
// item's width at the target row height, in pixels.
const MaxDimension = 1 << 24

// Policy decides when an overflowing row is closed.
type Policy int

const (
	// FlushBefore closes the row before the item that would overflow it.
	FlushBefore Policy = iota
	// FlushAfter appends the overflowing item, then closes the row.
	FlushAfter
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case FlushBefore:
		return "before"
	case FlushAfter:
		return "after"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name as written in configuration files.
// The empty string selects [FlushBefore].
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "before", "flush-before":
		return FlushBefore, nil
	case "after", "flush-after":
		return FlushAfter, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown overflow policy %q (must be 'before' or 'after')", s)
	}
}

// Option configures [Pack].
type Option func(*options)

type options struct {
	maxPerRow int
	policy    Policy
	growthCap float64
}

// WithMaxPerRow closes a row once it holds n items. Zero means unlimited.
func WithMaxPerRow(n int) Option { return func(o *options) { o.maxPerRow = n } }

// WithPolicy selects the overflow policy.
func WithPolicy(p Policy) Option { return func(o *options) { o.policy = p } }

// WithGrowthCap bounds interior rows to [rowHeight/f, rowHeight*f] and
// clamps the final row down to its fill height when that is smaller than
// the target. Zero disables the cap.
func WithGrowthCap(f float64) Option { return func(o *options) { o.growthCap = f } }

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) validate() error {
	if o.maxPerRow < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max per row must not be negative, got %d", o.maxPerRow)
	}
	if o.policy != FlushBefore && o.policy != FlushAfter {
		return errors.New(errors.ErrCodeInvalidInput, "unknown overflow policy %v", o.policy)
	}
	if o.growthCap != 0 {
		if err := errors.ValidatePositive("growth cap", o.growthCap); err != nil {
			return err
		}
		if o.growthCap < 1 {
			return errors.New(errors.ErrCodeInvalidInput, "growth cap must be at least 1, got %v", o.growthCap)
		}
	}
	return nil
}

// full reports whether a row holding n items has reached the per-row cap.
func (o options) full(n int) bool {
	return o.maxPerRow > 0 && n >= o.maxPerRow
}
