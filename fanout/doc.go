// Package fanout drives many independent cache operations under a fixed
// concurrency cap.
//
// A Harness runs two phases as a barrier pair. Populate submits one unit per
// key that inserts value(key); Verify submits one unit per key that reads the
// key back and compares it with value(key). Units are submitted in key order,
// at most Config.Concurrency of them hold a slot at once, and a phase returns
// only after every admitted unit has finished.
//
// Verification failures are recorded in the Report and logged; they are never
// returned as errors from the phase itself.
package fanout
