package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	ok := Success(nil)
	assert.True(t, ok.OK())
	assert.Empty(t, ok.Message())
	assert.Equal(t, "Success: AST generated.", ok.String())

	failed := Failure(errors.New("unexpected token"))
	assert.False(t, failed.OK())
	assert.Equal(t, "unexpected token", failed.Message())
	assert.Equal(t, "Error: unexpected token", failed.String())
}
