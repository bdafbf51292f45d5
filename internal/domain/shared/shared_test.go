package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "Supplier not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAlreadyExists)

	wrapped := fmt.Errorf("load supplier: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)

	var domainErr *DomainError
	assert.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, "Supplier not found", domainErr.Message)
}

func TestWrapDomainError(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDomainError("PLATFORM_UNAVAILABLE", "Shopify is unreachable", cause)

	assert.Equal(t, "Shopify is unreachable: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Filter
		want Filter
	}{
		{"zero value", Filter{}, Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}},
		{"clamps page size", Filter{Page: 3, PageSize: 500}, Filter{Page: 3, PageSize: MaxPageSize, OrderBy: "created_at", OrderDir: "desc"}},
		{"keeps asc", Filter{Page: 1, PageSize: 10, OrderBy: "title", OrderDir: " ASC "}, Filter{Page: 1, PageSize: 10, OrderBy: "title", OrderDir: "asc"}},
		{"unknown direction", Filter{OrderDir: "sideways"}, Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]string{"a", "b"}, 41, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 20, Filter{Page: 2, PageSize: 20}.Offset())

	empty := NewPaginated[string](nil, 0, 1, 0)
	assert.Zero(t, empty.TotalPages)
}
