package sched

// Decision is the retry policy's verdict on a failed poll.
type Decision int

const (
	// Continue keeps the job in flight and charges one retry.
	Continue Decision = iota
	// ExhaustRetries converts the failure into a terminal failed state.
	ExhaustRetries
)

// Decide is the bounded retry policy for transient polling failures.
// Exhaustion triggers on the poll that would spend the last unit of the
// budget, never before: with a budget of 3, the third consecutive error
// terminates the job.
func Decide(retryCount, maxRetries int, pollErr error) Decision {
	if pollErr != nil && retryCount+1 >= maxRetries {
		return ExhaustRetries
	}
	return Continue
}
