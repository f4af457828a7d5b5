package models

import "testing"

func TestPerformanceStatsRecommendation(t *testing.T) {
	tests := []struct {
		name     string
		stats    PerformanceStats
		expected string
	}{
		{"no attempts", PerformanceStats{}, "Start taking quizzes to track your performance!"},
		{"below half", PerformanceStats{TotalAttempts: 3, CorrectAttempts: 1, Accuracy: 33.33},
			"Your accuracy is below 50%. Consider reviewing the material and creating more flashcards."},
		{"exactly half", PerformanceStats{TotalAttempts: 2, CorrectAttempts: 1, Accuracy: 50},
			"Your accuracy is good! Keep practicing to improve further."},
		{"just under seventy", PerformanceStats{TotalAttempts: 3, CorrectAttempts: 2, Accuracy: 66.67},
			"Your accuracy is good! Keep practicing to improve further."},
		{"seventy", PerformanceStats{TotalAttempts: 10, CorrectAttempts: 7, Accuracy: 70},
			"Excellent performance! You're mastering the material!"},
		{"perfect", PerformanceStats{TotalAttempts: 4, CorrectAttempts: 4, Accuracy: 100},
			"Excellent performance! You're mastering the material!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.stats.Recommendation(); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestNewProgress(t *testing.T) {
	p := NewProgress(Counts{Documents: 1}, PerformanceStats{TotalAttempts: 2, CorrectAttempts: 0})
	if p.Documents != 1 || p.Performance.TotalAttempts != 2 {
		t.Fatalf("Unexpected progress %+v", p)
	}
	if p.Recommendation != p.Performance.Recommendation() {
		t.Errorf("Expected recommendation %q, got %q", p.Performance.Recommendation(), p.Recommendation)
	}
}
