package slug

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scopeSet map[string]bool

func (s scopeSet) exists(_ context.Context, c string) (bool, error) { return s[c], nil }

func TestResolveFreeCandidate(t *testing.T) {
	got, err := Resolve(context.Background(), "food", scopeSet{"rent": true}.exists)
	require.NoError(t, err)
	assert.Equal(t, "food", got)
}

func TestResolveSequentialSuffixes(t *testing.T) {
	set := scopeSet{}
	var got []string
	for i := 0; i < 4; i++ {
		name, err := Resolve(context.Background(), "food", set.exists)
		require.NoError(t, err)
		set[name] = true
		got = append(got, name)
	}
	assert.Equal(t, []string{"food", "food-1", "food-2", "food-3"}, got)
}

func TestResolveSkipsGaps(t *testing.T) {
	set := scopeSet{"food": true, "food-1": true, "food-3": true}
	got, err := Resolve(context.Background(), "food", set.exists)
	require.NoError(t, err)
	assert.Equal(t, "food-2", got)
}

func TestResolveProbeError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Resolve(context.Background(), "food", func(context.Context, string) (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Resolve(ctx, "food", scopeSet{}.exists)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCreateUniqueRetriesOnCollision(t *testing.T) {
	set := scopeSet{}
	calls := 0
	persist := func(_ context.Context, name string) error {
		calls++
		if calls == 1 {
			// a concurrent writer took the name between probe and insert
			set[name] = true
			return fmt.Errorf("insert: %w", ErrTaken)
		}
		set[name] = true
		return nil
	}
	got, err := CreateUnique(context.Background(), "food", set.exists, persist, 3)
	require.NoError(t, err)
	assert.Equal(t, "food-1", got)
	assert.Equal(t, 2, calls)
}

func TestCreateUniqueGivesUp(t *testing.T) {
	persist := func(context.Context, string) error { return ErrTaken }
	_, err := CreateUnique(context.Background(), "food", scopeSet{}.exists, persist, 2)
	require.ErrorIs(t, err, ErrTaken)
}

func TestCreateUniqueOtherErrorNotRetried(t *testing.T) {
	boom := errors.New("fk")
	calls := 0
	persist := func(context.Context, string) error { calls++; return boom }
	_, err := CreateUnique(context.Background(), "food", scopeSet{}.exists, persist, 5)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
