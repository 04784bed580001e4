package web

import (
	"math/big"
	"sync"
)

// state keeps the last published balance of every account for polling
// over HTTP between frames. Frames are merged: accounts that do not stream
// appear in a frame only when their snapshot changes.
type state struct {
	balances map[string]*big.Int // account:token -> balance
	at       int64
	mx       sync.RWMutex
}

func newState() *state {
	return &state{
		balances: make(map[string]*big.Int),
	}
}

func (s *state) update(at int64, balances map[string]*big.Int) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.at = at
	for key, b := range balances {
		s.balances[key] = b
	}
}

func (s *state) get(key string) (*big.Int, int64, bool) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	b, ok := s.balances[key]
	return b, s.at, ok
}

func (s *state) all() (map[string]*big.Int, int64) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	out := make(map[string]*big.Int, len(s.balances))
	for key, b := range s.balances {
		out[key] = b
	}
	return out, s.at
}
