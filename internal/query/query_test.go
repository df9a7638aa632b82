package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	r := Of(3, nil)
	assert.Equal(t, Ready, r.Status)
	assert.Equal(t, 3, r.Value)
	assert.True(t, r.Settled())

	boom := errors.New("boom")
	r = Of(0, boom)
	assert.Equal(t, Failed, r.Status)
	assert.ErrorIs(t, r.Err, boom)
	assert.True(t, r.Settled())
}

func TestUnsettled(t *testing.T) {
	assert.False(t, Disabled[string]().Settled())
	assert.False(t, Pending[string]().Settled())
	assert.Equal(t, "loading", Pending[int]().Status.String())
}
