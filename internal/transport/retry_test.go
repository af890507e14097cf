package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPolicyVariants(t *testing.T) {
	base := Options{ConnectTimeout: 10 * time.Second, StrictHostKey: true}
	p := PushPolicy(base, 0)

	require.Len(t, p.Variants, 2)
	assert.Equal(t, "strict", p.Variants[0].Name)
	assert.Equal(t, base, p.Variants[0].Options)
	assert.Equal(t, "relaxed", p.Variants[1].Name)
	assert.Equal(t, 30*time.Second, p.Variants[1].Options.ConnectTimeout)
	assert.False(t, p.Variants[1].Options.StrictHostKey)
}

func TestPushPolicyConfiguredRetries(t *testing.T) {
	p := PushPolicy(Options{}, 3)

	require.Len(t, p.Variants, 4)
	assert.Equal(t, "strict", p.Variants[0].Name)
	for _, v := range p.Variants[1:] {
		assert.Equal(t, "relaxed", v.Name)
	}
}

func TestSinglePolicyRetries(t *testing.T) {
	base := Options{ConnectTimeout: time.Second}

	assert.Len(t, SinglePolicy(base, 0).Variants, 1)
	p := SinglePolicy(base, 2)
	require.Len(t, p.Variants, 3)
	for _, v := range p.Variants {
		assert.Equal(t, base, v.Options)
	}
	assert.Equal(t, base, p.Base())
}

func TestRetryPolicyFirstSuccess(t *testing.T) {
	p := PushPolicy(Options{ConnectTimeout: time.Second}, 0)

	var seen []Options
	attempts, err := p.Do(context.Background(), zerolog.Nop(), "push", func(o Options) error {
		seen = append(seen, o)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Len(t, seen, 1)
}

func TestRetryPolicySecondVariantSucceeds(t *testing.T) {
	p := PushPolicy(Options{ConnectTimeout: time.Second, StrictHostKey: true}, 0)

	var seen []Options
	attempts, err := p.Do(context.Background(), zerolog.Nop(), "push", func(o Options) error {
		seen = append(seen, o)
		if len(seen) == 1 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.True(t, seen[0].StrictHostKey)
	assert.False(t, seen[1].StrictHostKey)
}

func TestRetryPolicyAllFail(t *testing.T) {
	p := PushPolicy(Options{}, 0)
	boom := errors.New("boom")

	attempts, err := p.Do(context.Background(), zerolog.Nop(), "push", func(Options) error {
		return boom
	})

	assert.Equal(t, 2, attempts)
	assert.ErrorIs(t, err, boom)
}

func TestRetryPolicyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := PushPolicy(Options{}, 0)
	calls := 0
	_, err := p.Do(ctx, zerolog.Nop(), "push", func(Options) error {
		calls++
		return nil
	})

	assert.Error(t, err)
	assert.Zero(t, calls)
}

func TestRetryPolicyZeroValue(t *testing.T) {
	var p RetryPolicy

	calls := 0
	attempts, err := p.Do(context.Background(), zerolog.Nop(), "list", func(Options) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}
