package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	id := "3f1b9c1e-8a6c-4f2e-9d0a-1f2e3d4c5b6a"

	token := EncodeCursor(createdAt, id)
	gotTime, gotID, err := DecodeCursor(token)

	require.NoError(t, err)
	assert.True(t, gotTime.Equal(createdAt))
	assert.Equal(t, id, gotID)
}

func TestDecodeCursorInvalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "not-a-token!!!"},
		{"missing separator", "bm8tc2VwYXJhdG9y"}, // "no-separator"
		{"bad timestamp", "bm90LWEtdGltZXxpZA=="}, // "not-a-time|id"
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeCursor(tt.token)
			assert.Error(t, err)
		})
	}
}
