package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range []Kind{KindPersistence, KindValidation, KindConflict, KindNotFound, KindForbidden} {
		s := k.String()
		assert.False(t, seen[s], "duplicate kind name %q", s)
		seen[s] = true
	}
}

func TestError_Message(t *testing.T) {
	e := Validation("qty must be > 0, got %s", "-1")
	assert.Equal(t, "qty must be > 0, got -1", e.Error())

	cause := errors.New("disk full")
	p := Persistence("insert movement", cause)
	assert.Equal(t, "insert movement: disk full", p.Error())
	assert.ErrorIs(t, p, cause)
}

func TestPersistence_NilAndPassthrough(t *testing.T) {
	require.NoError(t, Persistence("noop", nil))

	nf := NotFound("item %d not found", 7)
	assert.Same(t, nf, Persistence("select item", nf), "classified errors pass through")
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{Validation("x"), KindValidation},
		{Conflict("x"), KindConflict},
		{NotFound("x"), KindNotFound},
		{Forbidden("x"), KindForbidden},
		{errors.New("plain"), KindPersistence},
		{fmt.Errorf("wrapped: %w", Conflict("dup")), KindConflict},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.err), tc.err.Error())
	}
}

func TestWrap_OuterKindWins(t *testing.T) {
	err := Wrap(KindValidation, NotFound("item 3 not found"), "unknown item")
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))

	var inner *Error
	require.ErrorAs(t, errors.Unwrap(err), &inner)
	assert.Equal(t, KindNotFound, inner.Kind)
}

func TestIsHelpers_Nil(t *testing.T) {
	assert.False(t, IsValidation(nil))
	assert.False(t, IsConflict(nil))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsForbidden(nil))
}
