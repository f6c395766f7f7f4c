package metrics

// RequestSecondsBuckets covers everything from cache hits to slow provider
// round-trips hitting the per-sentence timeout.
var RequestSecondsBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16,
}
