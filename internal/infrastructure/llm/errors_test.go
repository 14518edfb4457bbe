package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "novel-studio-api/pkg/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorCode
	}{
		{"context canceled", context.Canceled, apperrors.CodeGenerationCanceled},
		{"deadline exceeded", context.DeadlineExceeded, apperrors.CodeProviderNetwork},
		{"invalid api key", errors.New("Incorrect API key provided"), apperrors.CodeProviderAuth},
		{"http 401", errors.New("status code: 401"), apperrors.CodeProviderAuth},
		{"rate limited", errors.New("Rate limit reached for gpt-4o"), apperrors.CodeProviderRateLimit},
		{"http 429", errors.New("status code: 429 Too Many Requests"), apperrors.CodeProviderRateLimit},
		{"quota exhausted", errors.New("you exceeded your current quota"), apperrors.CodeProviderRateLimit},
		{"connection refused", errors.New("dial tcp 10.0.0.1:443: connection refused"), apperrors.CodeProviderNetwork},
		{"unexpected eof", errors.New("unexpected EOF"), apperrors.CodeProviderNetwork},
		{"bad gateway", errors.New("status code: 502"), apperrors.CodeProviderNetwork},
		{"malformed payload", errors.New("failed to parse response: invalid character 'x'"), apperrors.CodeUpstreamProtocol},
		{"unknown upstream error", errors.New("something odd happened"), apperrors.CodeGenerationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := Classify(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.want, appErr.Code)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyKeepsExistingAppError(t *testing.T) {
	orig := apperrors.ErrProviderConfig.Clone().WithDetail("provider x")
	got := Classify(fmt.Errorf("open stream: %w", orig))
	assert.Equal(t, apperrors.CodeProviderConfig, got.Code)
	assert.Equal(t, "provider x", got.Detail)
}

func TestClassifyWrappedContextError(t *testing.T) {
	err := fmt.Errorf("recv: %w", context.Canceled)
	assert.Equal(t, apperrors.CodeGenerationCanceled, Classify(err).Code)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("status code: 429")))
	assert.True(t, IsTransient(errors.New("connection reset by peer")))
	assert.False(t, IsTransient(errors.New("Incorrect API key provided")))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(nil))
}
