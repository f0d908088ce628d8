// Package lock gates access to the notes behind a pass/fail check.
package lock

import (
	"context"
	"errors"

	"github.com/ikasoba/notebox/core"
	"golang.org/x/crypto/bcrypt"
)

type Gate interface {
	Check(ctx context.Context) error
}

// Open lets everyone through. It is used when no password is configured.
type Open struct{}

func (Open) Check(context.Context) error {
	return nil
}

// PasswordGate compares a supplied password with a bcrypt hash.
type PasswordGate struct {
	Hash     string
	Password func(ctx context.Context) (string, error)
}

func (g PasswordGate) Check(ctx context.Context) error {
	if g.Password == nil {
		return core.Errorf(core.KindDenied, nil, "notes are locked")
	}

	password, err := g.Password(ctx)
	if err != nil {
		return core.Errorf(core.KindDenied, err, "read password")
	}

	err = bcrypt.CompareHashAndPassword([]byte(g.Hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return core.Errorf(core.KindDenied, nil, "wrong password")
	}
	if err != nil {
		return core.Errorf(core.KindDenied, err, "verify password")
	}

	return nil
}

func Hash(password string) (string, error) {
	if password == "" {
		return "", core.Errorf(core.KindMalformed, nil, "password must not be empty")
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(h), nil
}

// New returns Open when hash is empty and a PasswordGate otherwise.
func New(hash string, password func(ctx context.Context) (string, error)) Gate {
	if hash == "" {
		return Open{}
	}
	return PasswordGate{Hash: hash, Password: password}
}

// Static supplies a fixed password.
func Static(password string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		return password, nil
	}
}
