package gemini

import (
	"errors"
	"strings"
	"sync"
)

// Rotator hands out API keys round-robin. Keys are never evicted, a key rejected as invalid
// during one request is offered again to later requests.
type Rotator struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

func NewRotator(keys []string) (*Rotator, error) {
	if len(keys) == 0 {
		return nil, errors.New("no api keys configured")
	}
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return nil, errors.New("blank api key in configuration")
		}
	}

	return &Rotator{keys: append([]string(nil), keys...)}, nil
}

func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.keys[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.keys)
	return key
}

func (r *Rotator) Len() int {
	return len(r.keys)
}
