package lock

import (
	"context"
	"errors"
	"testing"

	"github.com/ikasoba/notebox/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordGate(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)

	ctx := context.Background()

	assert.NoError(t, New(hash, Static("s3cret")).Check(ctx))

	err = New(hash, Static("guess")).Check(ctx)
	assert.True(t, core.IsKind(err, core.KindDenied))

	err = New(hash, nil).Check(ctx)
	assert.True(t, core.IsKind(err, core.KindDenied))

	failing := func(context.Context) (string, error) { return "", errors.New("no tty") }
	err = New(hash, failing).Check(ctx)
	assert.True(t, core.IsKind(err, core.KindDenied))
}

func TestOpenGate(t *testing.T) {
	assert.IsType(t, Open{}, New("", nil))
	assert.NoError(t, New("", nil).Check(context.Background()))
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := Hash("")
	assert.True(t, core.IsKind(err, core.KindMalformed))
}
