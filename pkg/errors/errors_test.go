package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(base, ErrTeacherConflict.Code, ErrTeacherConflict.Status, "teacher busy")

	got := FromError(wrapped)
	assert.Same(t, wrapped, got)
	assert.ErrorIs(t, got, base)
	assert.Equal(t, "teacher busy: boom", got.Error())

	internal := FromError(base)
	assert.Equal(t, ErrInternal.Code, internal.Code)
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.Nil(t, FromError(nil))
}

func TestWithDetailsAndCloneCopy(t *testing.T) {
	detailed := WithDetails(ErrClassroomConflict, map[string]string{"classroomId": "r1"})
	require.NotSame(t, ErrClassroomConflict, detailed)
	assert.Nil(t, ErrClassroomConflict.Details)
	assert.Equal(t, map[string]string{"classroomId": "r1"}, detailed.Details)

	cloned := Clone(ErrNotFound, "lesson with id x not found")
	assert.Equal(t, "lesson with id x not found", cloned.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Equal(t, ErrNotFound.Message, Clone(ErrNotFound, "").Message)
	assert.Nil(t, WithDetails(nil, 1))
}
