package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeProviderConfig, http.StatusBadRequest},
		{CodeProviderAuth, http.StatusUnauthorized},
		{CodeProjectNotFound, http.StatusNotFound},
		{CodeChapterNotFound, http.StatusNotFound},
		{CodeGenerationConflict, http.StatusConflict},
		{CodeWizardRegression, http.StatusConflict},
		{CodeDependencyUnmet, http.StatusUnprocessableEntity},
		{CodeProviderRateLimit, http.StatusTooManyRequests},
		{CodeProviderNetwork, http.StatusServiceUnavailable},
		{CodeUpstreamProtocol, http.StatusBadGateway},
		{CodeGenerationFailed, http.StatusInternalServerError},
		{CodePersistFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "msg").HTTPStatus)
		})
	}
}

func TestCloneDoesNotMutatePredefined(t *testing.T) {
	err := ErrGenerationConflict.Clone().WithDetail("target ch-1")
	assert.Equal(t, "target ch-1", err.Detail)
	assert.Empty(t, ErrGenerationConflict.Detail, "predefined instance stays pristine")
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeProviderNetwork, "llm provider unreachable")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "5004")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := ErrDependencyUnmet.Clone().WithDetail("chapters 1, 2")
	outer := fmt.Errorf("build request: %w", inner)

	assert.True(t, IsCode(outer, CodeDependencyUnmet))
	assert.False(t, IsCode(outer, CodeGenerationConflict))
	assert.False(t, IsCode(nil, CodeDependencyUnmet))

	got := AsAppError(outer)
	require.NotNil(t, got)
	assert.Equal(t, CodeDependencyUnmet, got.Code)
	assert.Equal(t, "chapters 1, 2", got.Detail)
}

func TestAsAppErrorFallsBackToUnknown(t *testing.T) {
	got := AsAppError(errors.New("plain"))
	require.NotNil(t, got)
	assert.Equal(t, CodeUnknown, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
}
