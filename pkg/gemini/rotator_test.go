package gemini

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotator_RejectsEmptyConfiguration(t *testing.T) {
	_, err := NewRotator(nil)
	require.Error(t, err)

	_, err = NewRotator([]string{"k1", " "})
	require.Error(t, err)
}

func TestRotator_RoundRobin(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		t.Run(fmt.Sprintf("%d keys", n), func(t *testing.T) {
			keys := make([]string, n)
			for i := range keys {
				keys[i] = fmt.Sprintf("key-%d", i)
			}
			r, err := NewRotator(keys)
			require.NoError(t, err)

			var got []string
			for i := 0; i < 2*n; i++ {
				got = append(got, r.Next())
			}

			assert.Equal(t, append(append([]string{}, keys...), keys...), got)
		})
	}
}

func TestRotator_ConcurrentCallersShareCursor(t *testing.T) {
	keys := []string{"a", "b", "c"}
	r, err := NewRotator(keys)
	require.NoError(t, err)

	const perWorker = 300
	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
	)
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := map[string]int{}
			for i := 0; i < perWorker; i++ {
				local[r.Next()]++
			}
			mu.Lock()
			for k, v := range local {
				counts[k] += v
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// 3000 calls over 3 keys, every key handed out equally often.
	for _, k := range keys {
		assert.Equal(t, 1000, counts[k], k)
	}
	assert.Equal(t, "a", r.Next())
}
