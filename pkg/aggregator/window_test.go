package aggregator

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testQuiet = 50 * time.Millisecond

type recorder struct {
	mu         sync.Mutex
	dispatches [][]string
}

func (r *recorder) dispatch(items []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatches = append(r.dispatches, items)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.dispatches...)
}

func (r *recorder) waitFor(t *testing.T, n int) [][]string {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) >= n }, 2*time.Second, 5*time.Millisecond)
	return r.snapshot()
}

func TestWindow_BurstDispatchesOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New[string](testQuiet)
	rec := &recorder{}

	for i := 0; i < 5; i++ {
		require.True(t, w.Add("G1", fmt.Sprintf("item-%d", i), rec.dispatch))
		time.Sleep(testQuiet / 5)
	}

	got := rec.waitFor(t, 1)
	time.Sleep(3 * testQuiet)

	require.Len(t, rec.snapshot(), 1)
	assert.Equal(t, []string{"item-0", "item-1", "item-2", "item-3", "item-4"}, got[0])
	assert.Zero(t, w.Pending())
}

func TestWindow_SpacedItemsDispatchSeparately(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New[string](testQuiet)
	rec := &recorder{}

	w.Add("G1", "a", rec.dispatch)
	w.Add("G1", "b", rec.dispatch)
	rec.waitFor(t, 1)

	w.Add("G1", "c", rec.dispatch)
	got := rec.waitFor(t, 2)

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, got)
}

func TestWindow_GroupsAreIndependent(t *testing.T) {
	w := New[string](testQuiet)
	rec := &recorder{}

	w.Add("G1", "g1-a", rec.dispatch)
	w.Add("G2", "g2-a", rec.dispatch)
	w.Add("G1", "g1-b", rec.dispatch)
	assert.Equal(t, 2, w.Pending())

	got := rec.waitFor(t, 2)

	assert.ElementsMatch(t, [][]string{{"g1-a", "g1-b"}, {"g2-a"}}, got)
}

func TestWindow_ConcurrentAddsDispatchExactlyOnce(t *testing.T) {
	w := New[int](testQuiet)

	var (
		mu    sync.Mutex
		calls int
		total int
	)
	dispatch := func(items []int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		total += len(items)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w.Add("G", i, dispatch)
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(3 * testQuiet)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 50, total)
}

func TestWindow_SupersededTimerIsNoop(t *testing.T) {
	w := New[string](time.Hour)
	rec := &recorder{}

	w.Add("G1", "a", rec.dispatch)
	w.Add("G1", "b", rec.dispatch)

	// The first timer firing late must not steal the group from the second one.
	_, ok := w.take("G1", 1)
	assert.False(t, ok)
	assert.Equal(t, 1, w.Pending())

	items, ok := w.take("G1", 2)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, items)

	_, ok = w.take("G1", 2)
	assert.False(t, ok)
	w.Stop()
}

func TestWindow_StopDropsPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New[string](testQuiet)
	rec := &recorder{}

	w.Add("G1", "a", rec.dispatch)
	assert.Equal(t, 1, w.Stop())
	assert.False(t, w.Add("G1", "b", rec.dispatch))

	time.Sleep(3 * testQuiet)
	assert.Empty(t, rec.snapshot())
}
