package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevision_Accepts(t *testing.T) {
	tests := []struct {
		name     string
		current  Revision
		incoming Revision
		accepts  bool
	}{
		{"fresh entity accepts anything", 0, 1, true},
		{"fresh entity accepts zero", 0, 0, true},
		{"newer accepted", 100, 101, true},
		{"equal rejected", 100, 100, false},
		{"older rejected", 100, 99, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.accepts, tt.current.Accepts(tt.incoming))
		})
	}
}

func TestParseRevision(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		rev, err := ParseRevision(" 42 ")
		require.NoError(t, err)
		assert.Equal(t, Revision(42), rev)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseRevision("")
		assert.Error(t, err)
	})

	t.Run("non numeric", func(t *testing.T) {
		_, err := ParseRevision("2026-03-01")
		assert.Error(t, err)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := ParseRevision("-5")
		assert.Error(t, err)
	})
}

func TestRevisionFromTime(t *testing.T) {
	t.Run("zero time maps to no revision", func(t *testing.T) {
		assert.True(t, RevisionFromTime(time.Time{}).IsZero())
	})

	t.Run("later timestamps compare higher", func(t *testing.T) {
		earlier := RevisionFromTime(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		later := RevisionFromTime(time.Date(2026, 3, 1, 0, 0, 1, 0, time.UTC))
		assert.True(t, earlier.Accepts(later))
		assert.False(t, later.Accepts(earlier))
	})
}

func TestNewBusinessKey(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		key, err := NewBusinessKey(" gtn ", " po-123 ")
		require.NoError(t, err)
		assert.Equal(t, "GTN-PO-123", key)
	})

	t.Run("empty system code", func(t *testing.T) {
		_, err := NewBusinessKey("", "PO-123")
		assert.Error(t, err)
	})

	t.Run("empty document number", func(t *testing.T) {
		_, err := NewBusinessKey("GTN", "")
		assert.Error(t, err)
	})
}
