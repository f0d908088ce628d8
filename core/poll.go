package core

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Poll is the cross-process counterpart of Watch. Every interval it checks
// the index file under home and, when it may have changed, opens the
// database read-only, runs q and closes it again. A missing index reads
// as no notes. Other processes can write between
// polls. Snapshots equal to the previous one are not sent. The channel is
// closed once ctx is done.
func Poll(ctx context.Context, home string, every time.Duration, q func(r *Notes) ([]*Note, error), opts ...Option) <-chan []*Note {
	out := make(chan []*Note)

	cfg := &Store{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.log

	go func() {
		defer close(out)

		t := time.NewTicker(every)
		defer t.Stop()

		var (
			lastMod  time.Time
			lastSize int64
			last     uint64
			sent     bool
		)

		for {
			fi, err := os.Stat(filepath.Join(home, indexFile))
			switch {
			case err != nil && !os.IsNotExist(err):
				log.Error().Err(err).Msg("stat index")
			case err == nil && sent && fi.ModTime().Equal(lastMod) && fi.Size() == lastSize &&
				time.Since(fi.ModTime()) > 2*every:
				// unchanged, and old enough that a coarse mtime cannot hide a write
			default:
				var notes []*Note
				if fi != nil {
					notes, err = pollOnce(home, q, opts)
					if err != nil {
						log.Warn().Err(err).Msg("poll query failed")
						break
					}
					lastMod, lastSize = fi.ModTime(), fi.Size()
				}

				sum, err := fingerprint(notes)
				if err != nil {
					log.Error().Err(err).Msg("live fingerprint failed")
					break
				}
				if sent && sum == last {
					break
				}

				select {
				case out <- notes:
					last, sent = sum, true
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()

	return out
}

func pollOnce(home string, q func(r *Notes) ([]*Note, error), opts []Option) ([]*Note, error) {
	s, err := openReader(home, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return q(NewNotes(s))
}
