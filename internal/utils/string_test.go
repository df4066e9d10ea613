package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatScores(t *testing.T) {
	got := FormatScores("Round 2", map[string]int64{"bob": -3, "alice": 9, "carol": 0})
	assert.Equal(t, "----- Round 2 -----\n[alice]: +9\n[bob]: -3\n[carol]: +0\n--------------------\n", got)
}

func TestFormatScoresEmpty(t *testing.T) {
	assert.Equal(t, "----- Round 1 -----\n(Empty)\n--------------------\n", FormatScores("Round 1", nil))
}
