package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrStaleJobRun, "run run-1 is cancelled")
	assert.True(t, errors.Is(err, ErrStaleJobRun))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusConflict, FromError(err).Status)
}

func TestWrapAsKeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WrapAs(cause, ErrQueryFailed, "")
	assert.Equal(t, ErrQueryFailed.Message, err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "query failed: connection refused", err.Error())
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Nil(t, FromError(nil))
}
