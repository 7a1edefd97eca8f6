package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset())
}

func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		page, perPage   int
		wantPage, wantN int
	}{
		{"custom", 3, 50, 3, 50},
		{"zero falls back", 0, 0, 1, DefaultPerPage},
		{"negative falls back", -2, -5, 1, DefaultPerPage},
		{"over max falls back", 1, MaxPerPage + 1, 1, DefaultPerPage},
		{"max allowed", 2, MaxPerPage, 2, MaxPerPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantN, p.PerPage)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 100, New(3, 50).Offset())
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 5, New(2, 2))

	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)

	last := NewResult([]string{"e"}, 5, New(3, 2))
	assert.False(t, last.HasNext)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	first := Paginate(items, New(1, 2))
	assert.Equal(t, []int{1, 2}, first.Data)
	assert.Equal(t, 5, first.TotalCount)
	assert.False(t, first.HasPrev)

	last := Paginate(items, New(3, 2))
	assert.Equal(t, []int{5}, last.Data)
	assert.False(t, last.HasNext)

	past := Paginate(items, New(9, 2))
	assert.Empty(t, past.Data)
	assert.Equal(t, 3, past.TotalPages)

	empty := Paginate([]int{}, DefaultParams())
	assert.Empty(t, empty.Data)
	assert.Equal(t, 0, empty.TotalPages)
}
