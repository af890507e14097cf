package transport

import (
	"context"

	"github.com/rs/zerolog"
)

// Variant is one set of transport parameters in a retry sequence.
type Variant struct {
	Name    string
	Options Options
}

// RetryPolicy tries an operation once per variant, in order, stopping at
// the first success. Variants make "retry with relaxed parameters"
// explicit instead of branching inside callers.
type RetryPolicy struct {
	Variants []Variant
}

// PushPolicy is the standard upload policy: one strict attempt, then
// relaxed attempts with a longer connection timeout and a lenient
// host-key check. retries sets how many relaxed attempts follow the
// strict one; there is always at least one.
func PushPolicy(base Options, retries int) RetryPolicy {
	if retries < 1 {
		retries = 1
	}
	relaxed := base
	relaxed.ConnectTimeout = base.ConnectTimeout * 3
	relaxed.StrictHostKey = false

	variants := []Variant{{Name: "strict", Options: base}}
	for i := 0; i < retries; i++ {
		variants = append(variants, Variant{Name: "relaxed", Options: relaxed})
	}
	return RetryPolicy{Variants: variants}
}

// SinglePolicy wraps base options into a policy of 1+retries identical
// attempts, for non-destructive operations (list, fetch).
func SinglePolicy(base Options, retries int) RetryPolicy {
	if retries < 0 {
		retries = 0
	}
	variants := []Variant{{Name: "default", Options: base}}
	for i := 0; i < retries; i++ {
		variants = append(variants, Variant{Name: "retry", Options: base})
	}
	return RetryPolicy{Variants: variants}
}

// Base returns the first variant's options, for callers that need plain
// options outside a retried operation.
func (p RetryPolicy) Base() Options {
	if len(p.Variants) == 0 {
		return Options{}
	}
	return p.Variants[0].Options
}

// Do runs fn once per variant until one succeeds. Returns the number of
// attempts made and the last error when all variants fail. Context
// cancellation stops the sequence immediately. A zero policy makes a
// single attempt with zero options.
func (p RetryPolicy) Do(ctx context.Context, log zerolog.Logger, op string, fn func(Options) error) (int, error) {
	variants := p.Variants
	if len(variants) == 0 {
		variants = []Variant{{Name: "default"}}
	}

	var lastErr error
	for i, v := range variants {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return i, lastErr
			}
			return i, err
		}

		err := fn(v.Options)
		if err == nil {
			return i + 1, nil
		}
		lastErr = err
		log.Warn().
			Str("op", op).
			Str("variant", v.Name).
			Int("attempt", i+1).
			Err(err).
			Msg("transport attempt failed")
	}
	return len(variants), lastErr
}
