package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixed(name string, r Result) Checker {
	return NewCheckFunc(name, func(context.Context) Result { return r })
}

func TestAggregator_RegisterReplacesByName(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("a", Healthy("one")))
	agg.Register(fixed("b", Healthy("two")))
	agg.Register(fixed("a", Degraded("three")))

	names := agg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names() = %v, want [a b]", names)
	}

	results := agg.CheckAll(context.Background())
	if results["a"].Status != StatusDegraded {
		t.Errorf("a = %v, want the replacement checker", results["a"].Status)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("ok", Healthy("ok")))
	agg.Register(fixed("slow", Degraded("slow")))

	results := agg.CheckAll(context.Background())

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results["ok"].Message != "ok" {
		t.Errorf("ok message = %q", results["ok"].Message)
	}
	if Overall(results) != StatusDegraded {
		t.Errorf("Overall = %v, want degraded", Overall(results))
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(30 * time.Millisecond)
	agg.Register(NewCheckFunc("stuck", func(ctx context.Context) Result {
		time.Sleep(200 * time.Millisecond)
		return Healthy("late")
	}))

	start := time.Now()
	results := agg.CheckAll(context.Background())

	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("CheckAll took %v, want it bounded by the timeout", elapsed)
	}
	r := results["stuck"]
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Errorf("stuck = %+v, want unhealthy with ErrCheckTimeout", r)
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"one degraded", map[string]Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overall(tt.results); got != tt.want {
				t.Errorf("Overall() = %v, want %v", got, tt.want)
			}
		})
	}
}
