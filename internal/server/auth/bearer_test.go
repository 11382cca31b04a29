package auth

import (
	"context"
	"testing"

	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"empty", "", "", ErrNoToken},
		{"one part", "Bearer", "", ErrTokenFormat},
		{"three parts", "Bearer a b", "", ErrTokenFormat},
		{"double space", "Bearer  abc", "", ErrTokenFormat},
		{"trailing space", "Bearer ", "", ErrTokenFormat},
		{"basic scheme", "Basic abc", "", ErrTokenScheme},
		{"lowercase bearer", "bearer abc", "abc", nil},
		{"mixed case bearer", "BeArEr abc", "abc", nil},
		{"ok", "Bearer a.b.c", "a.b.c", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBearerValues(t *testing.T) {
	_, err := ParseBearerValues(nil)
	assert.ErrorIs(t, err, ErrNoToken)

	got, err := ParseBearerValues([]string{"Bearer abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = ParseBearerValues([]string{"Bearer a", "Bearer b"})
	assert.ErrorIs(t, err, ErrTokenFormat)
}

func TestRejectionMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNoToken, "No token provided"},
		{ErrTokenFormat, "Token error"},
		{ErrTokenScheme, "Token malformatted"},
		{common.ErrInvalidToken, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RejectionMessage(tt.err))
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{ID: "1", Email: "e@x.io"})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "1", id.ID)
	assert.Equal(t, "e@x.io", id.Email)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), nil))
	assert.False(t, ok)
}
