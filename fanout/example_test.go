package fanout_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/ttlserve/cache"
	"github.com/jonwraymond/ttlserve/fanout"
	"github.com/jonwraymond/ttlserve/observe"
)

func ExampleHarness_Run() {
	store := cache.MustNew(cache.DefaultConfig())
	h, err := fanout.New(store, fanout.Config{Concurrency: 4}, observe.NopTelemetry())
	if err != nil {
		panic(err)
	}

	populate, verify := h.Run(context.Background(), fanout.Keys(1, 100), fanout.DefaultValue)

	fmt.Println("populated:", populate.Passed)
	fmt.Println("verified:", verify.Passed, "failed:", verify.Failed)
	fmt.Println("within cap:", verify.MaxInFlight <= 4)
	// Output:
	// populated: 100
	// verified: 100 failed: 0
	// within cap: true
}
