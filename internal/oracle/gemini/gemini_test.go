package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Opts
		want string
	}{
		{"missing key", Opts{Model: "gemini-2.0-flash"}, "api key is required"},
		{"missing model", Opts{APIKey: "k"}, "model is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_Name(t *testing.T) {
	c, err := New(context.Background(), Opts{APIKey: "k", Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Name())
}
