package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retrieval", ErrRetrieval, true},
		{"connectivity", ErrConnectivity, true},
		{"wrapped connectivity", fmt.Errorf("find or create: %w", ErrConnectivity), true},
		{"referential", ErrReferential, false},
		{"malformed event", ErrMalformedEvent, false},
		{"not found", ErrNotFound, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}
