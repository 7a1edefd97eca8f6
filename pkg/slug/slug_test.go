package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Personal Care", "personal-care"},
		{"ELECTRONICS", "electronics"},
		{"  Kitchen  ", "kitchen"},
		{"Kitchen & Dining", "kitchen-and-dining"},
		{"Crème Brûlée!", "creme-brulee"},
		{"Bamboo---Toothbrush", "bamboo-toothbrush"},
		{"Çanta ve Şişe", "canta-ve-sise"},
		{"100% Recycled", "100-recycled"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Personal Care", "personal-care"))
	assert.True(t, Equal("personal care", "PERSONAL CARE"))
	assert.False(t, Equal("Kitchen", "Accessories"))
	assert.False(t, Equal("", ""))
	assert.False(t, Equal("???", "!!!"))
}
