package camunda

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "restaurant-agent/internal/common/errors"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"rpc error: code = PermissionDenied", false},
		{"job type not found", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.err)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	err := mapZeebeError(errors.New("context deadline exceeded"), "topology", 2)
	var stdErr *apperrors.StandardError
	assert.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeTimeout, stdErr.Code)

	err = mapZeebeError(errors.New("connection refused"), "topology", 0)
	assert.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeUpstreamServiceFailure, stdErr.Code)
	assert.Contains(t, stdErr.Details, "after 1 attempts")
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(rc, 0))
	assert.Equal(t, 4*time.Second, backoff(rc, 2))
	assert.Equal(t, 5*time.Second, backoff(rc, 3))
	assert.Equal(t, 5*time.Second, backoff(rc, 70))
}
