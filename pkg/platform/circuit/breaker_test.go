package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// step is one outcome fed to the breaker and the state expected afterwards.
type step struct {
	ok       bool
	wantOpen bool
}

func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name: "opens on the threshold failure",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{ok: false, wantOpen: false},
				{ok: false, wantOpen: false},
				{ok: false, wantOpen: true},
			},
		},
		{
			name: "success clears the failure streak",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{ok: false, wantOpen: false},
				{ok: true, wantOpen: false},
				{ok: false, wantOpen: false},
				{ok: false, wantOpen: true},
			},
		},
		{
			name: "needs consecutive successes to close",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{ok: false, wantOpen: true},
				{ok: true, wantOpen: true},
				{ok: false, wantOpen: true},
				{ok: true, wantOpen: true},
				{ok: true, wantOpen: false},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("audit-kafka", tt.opts...)
			for i, s := range tt.steps {
				if s.ok {
					b.RecordSuccess()
				} else {
					b.RecordFailure()
				}
				assert.Equal(t, s.wantOpen, b.IsOpen(), "after step %d", i)
			}
		})
	}
}

func TestBreaker_ReportsChanges(t *testing.T) {
	b := New("ratelimit-store", WithFailureThreshold(1))
	assert.Equal(t, "ratelimit-store", b.Name())
	assert.Equal(t, "closed", b.State().String())

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.Equal(t, Change{Opened: true}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback, "open circuit keeps routing to the fallback")
	assert.Equal(t, Change{}, change)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.Equal(t, Change{Closed: true}, change)

	b.RecordFailure()
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_AllowProbesOncePerCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("audit-kafka",
		WithFailureThreshold(1),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, "open", b.State().String())
	assert.False(t, b.Allow(), "no probe inside cooldown")

	now = now.Add(10 * time.Second)
	assert.True(t, b.Allow(), "one probe after cooldown")
	assert.False(t, b.Allow(), "second probe waits for the next cooldown")

	b.RecordSuccess()
	assert.True(t, b.Allow())
}
