package parallel

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestForCoversRangeOnce(t *testing.T) {
	tests := []struct {
		name string
		n    int
		s    Settings
	}{
		{"empty", 0, Settings{}},
		{"below grain", 10, Settings{Grain: 64}},
		{"many chunks", 10_000, Settings{Workers: 4, Grain: 37}},
		{"single worker", 1000, Settings{Workers: 1, Grain: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.n)
			err := For(context.Background(), tt.s, tt.n, func(lo, hi int) {
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			if err != nil {
				t.Fatalf("For() error = %v", err)
			}
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times, want 1", i, h)
				}
			}
		})
	}
}

func TestForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := For(ctx, Settings{Workers: 2, Grain: 4}, 100, func(lo, hi int) {})
	if err == nil {
		t.Error("For() on cancelled context = nil, want error")
	}
}

func TestReduceSum(t *testing.T) {
	n := 12_345
	got, err := Reduce(context.Background(), Settings{Workers: 3, Grain: 100}, n, 0,
		func(lo, hi int) int {
			s := 0
			for i := lo; i < hi; i++ {
				s += i
			}
			return s
		},
		func(a, b int) int { return a + b },
	)
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	want := n * (n - 1) / 2
	if got != want {
		t.Errorf("Reduce() = %d, want %d", got, want)
	}
}
