package conversation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCursor_After(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	mid := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")

	c := CursorOf(Message{ID: mid, CreatedAt: at})

	tests := []struct {
		name string
		m    Message
		want bool
	}{
		{"older", Message{ID: high, CreatedAt: at.Add(-time.Millisecond)}, true},
		{"newer", Message{ID: low, CreatedAt: at.Add(time.Millisecond)}, false},
		{"same instant lower id", Message{ID: low, CreatedAt: at}, true},
		{"same instant higher id", Message{ID: high, CreatedAt: at}, false},
		{"itself", Message{ID: mid, CreatedAt: at}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.After(tt.m))
		})
	}
}
