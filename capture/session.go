package capture

import (
	"errors"
	"fmt"
	"sync"
)

// UseCase is a consumer attached to the camera, such as preview or
// analysis.
type UseCase interface {
	Name() string
	Bind() error
	Unbind() error
}

// Session tracks the use cases bound to one camera.
type Session struct {
	mu    sync.Mutex
	bound []UseCase
}

// Bind unbinds everything currently bound, then binds useCases in order. If
// one fails to bind, the ones already bound by this call are unbound again.
func (s *Session) Bind(useCases ...UseCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.unbindAll(); err != nil {
		return err
	}

	for i, uc := range useCases {
		if err := uc.Bind(); err != nil {
			s.bound = useCases[:i]
			return errors.Join(fmt.Errorf("bind %s: %w", uc.Name(), err), s.unbindAll())
		}
	}

	s.bound = append([]UseCase{}, useCases...)

	return nil
}

func (s *Session) Bound() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.bound))
	for _, uc := range s.bound {
		names = append(names, uc.Name())
	}
	return names
}

// Close unbinds every use case.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.unbindAll()
}

func (s *Session) unbindAll() error {
	var errs []error
	for i := len(s.bound) - 1; i >= 0; i-- {
		if err := s.bound[i].Unbind(); err != nil {
			errs = append(errs, fmt.Errorf("unbind %s: %w", s.bound[i].Name(), err))
		}
	}
	s.bound = nil
	return errors.Join(errs...)
}
