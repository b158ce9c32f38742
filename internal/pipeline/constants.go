package pipeline

// Factorization
const (
	smallestFactor = 2 // trial division starts here
	scanDivisor    = 2 // divisors are scanned up to n/2 + 1
)

// Plan construction
const (
	minDecimation        = 1 // a plan always hosts at least one stage
	defaultStageCapacity = 4 // initial capacity for the stage slice
)
