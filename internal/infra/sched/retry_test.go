package sched

import (
	"errors"
	"testing"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	pollErr := errors.New("connection reset")

	cases := []struct {
		name       string
		retryCount int
		maxRetries int
		err        error
		want       Decision
	}{
		{"no error continues", 2, 3, nil, Continue},
		{"first failure of three", 0, 3, pollErr, Continue},
		{"second failure of three", 1, 3, pollErr, Continue},
		{"third failure exhausts", 2, 3, pollErr, ExhaustRetries},
		{"past the budget exhausts", 5, 3, pollErr, ExhaustRetries},
		{"budget of one exhausts immediately", 0, 1, pollErr, ExhaustRetries},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.retryCount, tc.maxRetries, tc.err); got != tc.want {
				t.Errorf("Decide(%d, %d, %v) = %v, want %v", tc.retryCount, tc.maxRetries, tc.err, got, tc.want)
			}
		})
	}
}
