package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	cause := fmt.Errorf("%w: transactions file input.csv", ErrNotFound)
	err := NewUserError("Could not read transactions", cause)

	assert.Equal(t, "Could not read transactions: not found: transactions file input.csv", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	var userErr *UserError
	assert.ErrorAs(t, err, &userErr)
	assert.Equal(t, "Could not read transactions", userErr.UserMessage)
}

func TestUserError_NoCause(t *testing.T) {
	err := NewUserError("Nothing to resolve", nil)
	assert.Equal(t, "Nothing to resolve", err.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "generation timeout", err: ErrGenerationTimeout, want: true},
		{name: "generation unavailable", err: ErrGenerationUnavailable, want: true},
		{name: "context deadline", err: context.DeadlineExceeded, want: true},
		{name: "explicitly retryable", err: NewRetryableError(errors.New("reset")), want: true},
		{name: "explicitly not retryable", err: &RetryableError{Err: errors.New("denied")}, want: false},
		{name: "plain error", err: errors.New("bad request"), want: false},
		{name: "empty response", err: ErrEmptyResponse, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
