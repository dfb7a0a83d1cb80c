package services

import "testing"

func TestComputeProgressPercent(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"nothing completed", 0, 10, 0},
		{"half completed", 5, 10, 50},
		{"all completed", 10, 10, 100},
		{"rounds down", 1, 3, 33},
		{"rounds up", 2, 3, 67},
		{"single lesson course", 1, 1, 100},
		{"rounding capped below completion", 199, 200, 99},
		{"over-count clamps to 100", 7, 5, 100},
		{"zero total", 3, 0, 0},
		{"negative total", 1, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeProgressPercent(tt.completed, tt.total); got != tt.want {
				t.Errorf("ComputeProgressPercent(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
			}
		})
	}
}

// 99 of 200 lessons is 49.5%; rounding must never report 100 before the
// final lesson actually completes.
func TestComputeProgressPercentNeverPrematurely100(t *testing.T) {
	for total := 1; total <= 200; total++ {
		if got := ComputeProgressPercent(total-1, total); got == 100 {
			t.Fatalf("ComputeProgressPercent(%d, %d) reported 100 before completion", total-1, total)
		}
	}
}
