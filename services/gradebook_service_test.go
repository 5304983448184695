package services

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestComputeWeightedAverage(t *testing.T) {
	tests := []struct {
		name     string
		items    []WeightedItem
		expected float64
	}{
		{
			name:     "no items",
			items:    nil,
			expected: 0,
		},
		{
			name: "nothing graded floors to zero",
			items: []WeightedItem{
				{Weight: 50, MaxScore: 100, Score: nil},
				{Weight: 50, MaxScore: 100, Score: nil},
			},
			expected: 0,
		},
		{
			name: "single graded item at full marks scales to full grade",
			items: []WeightedItem{
				{Weight: 20, MaxScore: 100, Score: ptr(100)},
				{Weight: 20, MaxScore: 100, Score: nil},
				{Weight: 20, MaxScore: 100, Score: nil},
				{Weight: 20, MaxScore: 100, Score: nil},
				{Weight: 20, MaxScore: 100, Score: nil},
			},
			expected: 10,
		},
		{
			name: "ungraded items excluded from both sides",
			items: []WeightedItem{
				{Weight: 30, MaxScore: 100, Score: ptr(80)},
				{Weight: 70, MaxScore: 100, Score: nil},
			},
			expected: 8,
		},
		{
			name: "two graded items with different weights",
			items: []WeightedItem{
				{Weight: 25, MaxScore: 50, Score: ptr(40)},  // 80% of 25
				{Weight: 75, MaxScore: 100, Score: ptr(60)}, // 60% of 75
			},
			// (0.8*25 + 0.6*75) / 100 * 10 = 6.5
			expected: 6.5,
		},
		{
			name: "explicit zero is a grade, not a gap",
			items: []WeightedItem{
				{Weight: 50, MaxScore: 100, Score: ptr(0)},
				{Weight: 50, MaxScore: 100, Score: ptr(100)},
			},
			expected: 5,
		},
		{
			name: "weights summing over 100 still normalize",
			items: []WeightedItem{
				{Weight: 60, MaxScore: 100, Score: ptr(100)},
				{Weight: 60, MaxScore: 100, Score: ptr(50)},
			},
			// (60 + 30) / 120 * 10 = 7.5
			expected: 7.5,
		},
		{
			name: "zero max score item is skipped",
			items: []WeightedItem{
				{Weight: 50, MaxScore: 0, Score: ptr(10)},
				{Weight: 50, MaxScore: 100, Score: ptr(90)},
			},
			expected: 9,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := computeWeightedAverage(tc.items)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestGradeScaleBounds(t *testing.T) {
	// A perfect student can never exceed the scale, a zero student never goes below it
	perfect := []WeightedItem{
		{Weight: 40, MaxScore: 50, Score: ptr(50)},
		{Weight: 60, MaxScore: 200, Score: ptr(200)},
	}
	if got := computeWeightedAverage(perfect); got != GradeScale {
		t.Fatalf("perfect marks must land on %v, got %v", GradeScale, got)
	}

	zero := []WeightedItem{
		{Weight: 40, MaxScore: 50, Score: ptr(0)},
		{Weight: 60, MaxScore: 200, Score: ptr(0)},
	}
	if got := computeWeightedAverage(zero); got != 0 {
		t.Fatalf("zero marks must land on 0, got %v", got)
	}
}
