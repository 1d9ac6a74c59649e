package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ASC", "ASC"},
		{"asc", "ASC"},
		{" Asc ", "ASC"},
		{"DESC", "DESC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"sideways", "DESC"},
		{"ASC; DROP TABLE audit_records", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	allowed := map[string]bool{
		"created_at": true,
		"revision":   true,
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"allowed field passes", "revision", "revision"},
		{"empty falls back", "", "created_at"},
		{"whitespace falls back", "   ", "created_at"},
		{"unknown falls back", "actor", "created_at"},
		{"injection falls back", "created_at; DELETE FROM orders", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, allowed, "created_at"))
		})
	}
}
