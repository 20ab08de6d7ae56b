package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	conflict := New(http.StatusConflict, KindSchedulingConflict, "slot taken")

	assert.Equal(t, KindSchedulingConflict, KindOf(conflict))
	assert.Equal(t, KindSchedulingConflict, KindOf(fmt.Errorf("create: %w", conflict)))
	assert.Equal(t, Kind(""), KindOf(errors.New("connection reset")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapKeepsIdentity(t *testing.T) {
	sentinel := New(http.StatusConflict, KindSchedulingConflict, "slot taken")
	cause := errors.New("exclusion violation")

	wrapped := Wrap(cause, http.StatusConflict, KindSchedulingConflict, "slot taken")

	assert.ErrorIs(t, wrapped, sentinel)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, wrapped, New(http.StatusBadRequest, KindValidation, "slot taken"))
}
