package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatScore(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		scoreType string
		method    Method
		target    *float64
		want      string
	}{
		{name: "short time", score: 9.87, scoreType: "time", method: LowerIsBetter, want: "9.9s"},
		{name: "long time", score: 65, scoreType: "time", method: LowerIsBetter, want: "01:05.0"},
		{name: "attempts", score: 7, scoreType: "attempts", method: PositiveOnlyLower, want: "7 attempts"},
		{name: "level", score: 12, scoreType: "level", method: HigherIsBetter, want: "Level 12"},
		{name: "clicks", score: 12345, scoreType: "clicks", method: HigherIsBetter, want: "12,345 clicks"},
		{name: "percent type", score: 87.5, scoreType: "accuracy %", method: HigherIsBetter, want: "87.5%"},
		{name: "percentage method", score: 42, scoreType: "accuracy", method: HighestPercentage, want: "42.0%"},
		{name: "target", score: 9.95, scoreType: "guess", method: ClosestToTarget, target: ptr(10), want: "9.95 (target: 10)"},
		{name: "points", score: 1234567, scoreType: "points", method: HigherIsBetter, want: "1,234,567"},
		{name: "negative fraction", score: -1234.5, scoreType: "points", method: HigherIsBetter, want: "-1,234.5"},
		{name: "small", score: 999, scoreType: "points", method: HigherIsBetter, want: "999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatScore(tt.score, tt.scoreType, tt.method, tt.target))
		})
	}
}
