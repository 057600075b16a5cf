// Package resilience provides admission control for concurrent work.
//
// A Bulkhead caps how many operations may run at once. Work beyond the cap
// waits for a slot rather than failing, unless a MaxWait is configured:
//
//	b := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})
//
//	err := b.Execute(ctx, func(ctx context.Context) error {
//	    return populate(ctx, key)
//	})
//
// The bulkhead is not a lock. It bounds resource usage; it does not order the
// operations it admits. Nothing in this package retries.
package resilience
