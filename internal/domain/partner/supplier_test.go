package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupplier(t *testing.T) {
	s, err := NewSupplier(uuid.New(), "  Acme Wholesale ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Wholesale", s.Name)
	assert.True(t, s.Active)

	_, err = NewSupplier(uuid.New(), "")
	assert.Error(t, err)
}

func TestSupplier_SetContact(t *testing.T) {
	s, err := NewSupplier(uuid.New(), "Acme")
	require.NoError(t, err)

	require.NoError(t, s.SetContact("Jo", "orders@acme.test", "+1 555 0100", ""))
	assert.Equal(t, "orders@acme.test", s.Email)

	require.NoError(t, s.SetContact("Jo", "", "", ""), "email is optional")
	assert.Error(t, s.SetContact("Jo", "not-an-email", "", ""))
}

func TestSupplier_SetScores(t *testing.T) {
	s, err := NewSupplier(uuid.New(), "Acme")
	require.NoError(t, err)

	tests := []struct {
		name    string
		scores  SupplierScores
		wantErr bool
	}{
		{"valid", SupplierScores{95, 88, 85, 2}, false},
		{"bounds", SupplierScores{0, 100, 0, 0}, false},
		{"rate above 100", SupplierScores{101, 88, 85, 2}, true},
		{"negative quality", SupplierScores{90, -1, 85, 2}, true},
		{"negative response time", SupplierScores{90, 90, 85, -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetScores(tt.scores)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scores, s.Scores())
		})
	}
}
