// Package schedule runs idempotent work periodically while its constraints
// hold.
package schedule

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Constraint interface {
	Name() string
	Satisfied() bool
}

type Work struct {
	Name        string
	Interval    time.Duration
	Constraints []Constraint
	Run         func(ctx context.Context) error
}

type Scheduler struct {
	works []Work
	log   zerolog.Logger
}

func New(log zerolog.Logger, works ...Work) *Scheduler {
	return &Scheduler{works: works, log: log}
}

func (s *Scheduler) Add(w Work) {
	s.works = append(s.works, w)
}

// Run starts every work unit on its own ticker and blocks until ctx is
// done. A failed run is logged and retried on the next tick only.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, w := range s.works {
		if w.Interval <= 0 {
			continue
		}

		g.Go(func() error {
			t := time.NewTicker(w.Interval)
			defer t.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					s.tick(ctx, w)
				}
			}
		})
	}

	return g.Wait()
}

func (s *Scheduler) tick(ctx context.Context, w Work) {
	for _, c := range w.Constraints {
		if !c.Satisfied() {
			s.log.Debug().Str("work", w.Name).Str("constraint", c.Name()).Msg("skipped, constraint not met")
			return
		}
	}

	if err := w.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("work", w.Name).Msg("scheduled work failed")
	}
}

type ConstraintFunc struct {
	Label string
	Fn    func() bool
}

func (c ConstraintFunc) Name() string    { return c.Label }
func (c ConstraintFunc) Satisfied() bool { return c.Fn() }

// NetworkAvailable holds when a non-loopback IPv4 or IPv6 address is up.
func NetworkAvailable() Constraint {
	return ConstraintFunc{Label: "network", Fn: func() bool {
		addrs, err := net.InterfaceAddrs()
		if err != nil {
			return false
		}
		for _, address := range addrs {
			if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && !ipnet.IP.IsLinkLocalUnicast() {
				return true
			}
		}
		return false
	}}
}

// BatteryNotLow holds unless a battery reports a capacity below percent and
// is discharging. Machines without a battery always satisfy it.
func BatteryNotLow(percent int) Constraint {
	return batteryConstraint{root: "/sys/class/power_supply", threshold: percent}
}

type batteryConstraint struct {
	root      string
	threshold int
}

func (batteryConstraint) Name() string {
	return "battery"
}

func (b batteryConstraint) Satisfied() bool {
	dirs, err := filepath.Glob(filepath.Join(b.root, "BAT*"))
	if err != nil || len(dirs) == 0 {
		return true
	}

	for _, dir := range dirs {
		capacity, err := readInt(filepath.Join(dir, "capacity"))
		if err != nil {
			continue
		}

		status, _ := os.ReadFile(filepath.Join(dir, "status"))
		if capacity < b.threshold && strings.TrimSpace(string(status)) == "Discharging" {
			return false
		}
	}

	return true
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
