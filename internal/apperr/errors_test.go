package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := WithIDs(CodeAlreadyAssignedElsewhere, "machine 7 is on line 2", 7)
	wrapped := fmt.Errorf("assign: %w", err)

	assert.True(t, errors.Is(wrapped, ErrAlreadyAssignedElsewhere))
	assert.False(t, errors.Is(wrapped, ErrNotOwned))
	assert.Equal(t, CodeAlreadyAssignedElsewhere, CodeOf(wrapped))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestCode_HTTPStatus(t *testing.T) {
	testCases := []struct {
		code     Code
		expected int
	}{
		{CodeLineNotFound, http.StatusNotFound},
		{CodeLineBusy, http.StatusConflict},
		{CodeInvalidWindow, http.StatusBadRequest},
		{CodeInvalidGraph, http.StatusUnprocessableEntity},
		{CodeForbidden, http.StatusForbidden},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.code.HTTPStatus())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeInternal, "save layout", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save layout: disk full", err.Error())
}
