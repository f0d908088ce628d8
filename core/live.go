package core

import (
	"context"
	"encoding/json"

	"github.com/cespare/xxhash"
)

// Query produces one snapshot of a live view.
type Query func() ([]*Note, error)

// Watch returns a channel carrying the current result of q and a fresh
// result after every write that changes it. The channel is closed once ctx
// is done.
func (s *Store) Watch(ctx context.Context, q Query) <-chan []*Note {
	out := make(chan []*Note)

	id, wake := s.hub.subscribe()

	go func() {
		defer close(out)
		defer s.hub.unsubscribe(id)

		var last uint64
		sent := false

		emit := func() bool {
			notes, err := q()
			if err != nil {
				s.log.Error().Err(err).Msg("live query failed")
				return true
			}

			sum, err := fingerprint(notes)
			if err != nil {
				s.log.Error().Err(err).Msg("live fingerprint failed")
				return true
			}

			if sent && sum == last {
				return true
			}

			select {
			case out <- notes:
				last, sent = sum, true
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
				if !emit() {
					return
				}
			}
		}
	}()

	return out
}

func fingerprint(notes []*Note) (uint64, error) {
	h := xxhash.New()
	if err := json.NewEncoder(h).Encode(notes); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
