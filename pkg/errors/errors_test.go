package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrFormat, http.StatusTeapot, "odd"), http.StatusTeapot},
		{"duplicate helper", Duplicate("article %q", "x"), http.StatusConflict},
		{"validation helper", Validation("too long"), http.StatusUnprocessableEntity},
		{"wrapped not found", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"format sentinel", ErrFormat, http.StatusBadRequest},
		{"timeout", ErrTimeout, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "duplicate", Kind(fmt.Errorf("tx: %w", Duplicate("phrase"))))
	assert.Equal(t, "validation", Kind(Validation("non-ascii")))
	assert.Equal(t, "format", Kind(fmt.Errorf("parse: %w", ErrFormat)))
	assert.Equal(t, "not_found", Kind(NotFound("group")))
	assert.Equal(t, "internal", Kind(errors.New("boom")))
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("creating phrase: %w", Validation("phrase exceeds %d characters", 100))
	assert.Equal(t, "phrase exceeds 100 characters", Message(err))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.True(t, errors.Is(err, ErrValidation))
}
