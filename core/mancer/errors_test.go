package mancer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "plain", err: &Error{Message: "timeout"}, want: "timeout"},
		{name: "with mancer", err: &Error{Mancer: "bea", Message: "timeout"}, want: "bea: timeout"},
		{name: "with body", err: &Error{Mancer: "bls", Message: "api.bls.gov returned 400", Body: "bad series"}, want: "bls: api.bls.gov returned 400 message: bad series"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("search: %w", NewError("census_reporter", "request failed", cause))

	assert.ErrorIs(t, err, ErrMancer)
	assert.ErrorIs(t, err, cause)

	var merr *Error
	assert.True(t, errors.As(err, &merr))
	assert.Equal(t, "census_reporter", merr.Mancer)
}

func TestConfigurationError(t *testing.T) {
	err := NewCredentialError("bea", "Bureau of Economic Analysis")
	assert.Equal(t, "bea: Bureau of Economic Analysis requires an API key: credential required", err.Error())
	assert.ErrorIs(t, err, ErrCredentialRequired)
	assert.NotErrorIs(t, err, ErrMancer)

	plain := &ConfigurationError{Mancer: "x", Message: "bad"}
	assert.Equal(t, "x: bad", plain.Error())
}
