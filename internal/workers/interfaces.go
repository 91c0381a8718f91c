// Package workers provides the jobs the account keeper runs at process
// start, before the store is handed to the chat front-end.
// It defines the Worker interface and a Workers aggregate that runs
// every registered worker in order.
package workers

import "context"

// Worker is the interface that must be implemented by any startup job.
//
// Run blocks until the job is done. A returned error stops the remaining
// workers.
type Worker interface {
	Run(ctx context.Context) error
}
