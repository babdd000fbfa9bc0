package worker

import (
	"context"
	"sync"
)

// Job represents a batch of inventory rows to normalize.
type Job struct {
	BatchNum int
	Rows     [][]string
}

// Result reports the outcome of a single batch.
type Result struct {
	BatchNum int
	Rows     []NormalizedRow
	Err      error
}

// Pool manages a set of worker goroutines that consume jobs from a channel.
type Pool struct {
	columns Columns
	workers int
	jobs    chan Job
	results chan Result
	wg      sync.WaitGroup
}

// NewPool creates a worker pool ready to process batches.
func NewPool(columns Columns, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		columns: columns,
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
	}
}

// Start launches the worker goroutines. They read from Jobs() and write to Results().
// Jobs received after ctx is done are reported with ctx.Err().
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if err := ctx.Err(); err != nil {
					p.results <- Result{BatchNum: job.BatchNum, Err: err}
					continue
				}
				p.results <- Result{
					BatchNum: job.BatchNum,
					Rows:     ConvertBatch(job.Rows, p.columns),
				}
			}
		}()
	}

	// Close results channel when all workers are done
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Submit sends a job to the worker pool.
func (p *Pool) Submit(job Job) {
	p.jobs <- job
}

// Done signals that no more jobs will be submitted.
func (p *Pool) Done() {
	close(p.jobs)
}

// Results returns the channel to receive batch results from.
func (p *Pool) Results() <-chan Result {
	return p.results
}
