package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, size            int
		wantOffset, wantLimit int
	}{
		{1, 10, 0, 10},
		{3, 20, 40, 20},
		{0, 5, 0, 5},
		{-2, 5, 0, 5},
		{2, 0, 10, DefaultPageSize},
		{2, MaxPageSize + 1, 10, DefaultPageSize},
	}
	for _, tc := range cases {
		off, lim := Calculate(tc.page, tc.size)
		assert.Equal(t, tc.wantOffset, off, "page=%d size=%d", tc.page, tc.size)
		assert.Equal(t, tc.wantLimit, lim, "page=%d size=%d", tc.page, tc.size)
	}
}

func TestParseDefaults(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, -3, ParseIntDefault("-3", 7))

	assert.Equal(t, uint(4), ParseUintDefault("", 4))
	assert.Equal(t, uint(4), ParseUintDefault("-1", 4))
	assert.Equal(t, uint(12), ParseUintDefault("12", 4))
}
