package export

import (
	"container/heap"
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/google/uuid"

	"numviz/app/fileloader"
)

// JobState is the lifecycle of a Job.
type JobState int

const (
	JobPending JobState = iota
	JobRunning
	JobDone
	JobFailed
)

// String returns the string representation of JobState
func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "running"
	case JobDone:
		return "done"
	case JobFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Job serialises one sample batch by batch. Each Step encodes exactly one
// batch starting at the resume index; nothing is published until the final
// batch has been encoded.
//
// In sorted mode the first Steps each sort a private copy of one batch-sized
// run. Later Steps merge the runs one batch at a time, so no Step touches
// more than BatchSize values.
type Job struct {
	ID string

	values   []float64
	opts     Options
	enc      encoder
	state    JobState
	next     int
	batches  int
	artifact *Artifact
	err      error

	sorted bool
	runs   int
	merge  runHeap
	batch  []float64

	// values touched by the last Step
	work int
}

// NewJob prepares a job. values is never reordered.
func NewJob(values []float64, opts Options) (*Job, error) {
	opts = opts.withDefaults()

	enc, err := newEncoder(opts.Format, len(values))
	if err != nil {
		return nil, err
	}
	if opts.Compression == fileloader.CompressionBzip2 {
		return nil, fmt.Errorf("unsupported compression for export: %v", opts.Compression)
	}

	return &Job{
		ID:     uuid.New().String(),
		values: values,
		opts:   opts,
		enc:    enc,
		sorted: opts.Mode == SortedAscending,
	}, nil
}

// State returns the job's lifecycle state.
func (j *Job) State() JobState { return j.state }

// Next returns the index of the first value the next Step will encode.
func (j *Job) Next() int { return j.next }

// Batches returns how many batches have been encoded so far.
func (j *Job) Batches() int { return j.batches }

// TotalBatches returns the number of batches the job will encode.
func (j *Job) TotalBatches() int {
	return (len(j.values) + j.opts.BatchSize - 1) / j.opts.BatchSize
}

// Step sorts one run or encodes one batch, or finalises the artifact once
// every batch has been encoded, in which case it reports true. After a failure the job
// holds no partial output and every further call returns the same error.
func (j *Job) Step() (bool, error) {
	switch j.state {
	case JobDone:
		return true, nil
	case JobFailed:
		return false, j.err
	case JobPending:
		j.state = JobRunning
		if err := j.enc.begin(); err != nil {
			return false, j.fail(&ExportError{Batch: 0, Err: err})
		}
	}

	j.work = 0
	if j.sorted && j.runs < j.TotalBatches() {
		j.sortRun()
		return false, nil
	}

	if j.next < len(j.values) {
		end := min(j.next+j.opts.BatchSize, len(j.values))
		batch := j.values[j.next:end]
		if j.sorted {
			j.batch = j.merge.take(j.batch[:0], end-j.next)
			batch = j.batch
		}
		j.work = len(batch)
		if err := j.enc.writeBatch(j.next, batch); err != nil {
			return false, j.fail(&ExportError{Batch: j.batches, Err: err})
		}
		j.next = end
		j.batches++

		if j.opts.Progress != nil {
			j.opts.Progress("export", int64(j.next), int64(len(j.values)),
				fmt.Sprintf("Encoded batch %d of %d", j.batches, j.TotalBatches()))
		}
		return false, nil
	}

	if err := j.finalize(); err != nil {
		return false, err
	}
	return true, nil
}

// sortRun copies and sorts the next run and queues it for merging.
func (j *Job) sortRun() {
	start := j.runs * j.opts.BatchSize
	end := min(start+j.opts.BatchSize, len(j.values))
	run := slices.Clone(j.values[start:end])
	slices.Sort(run)
	heap.Push(&j.merge, &runCursor{run: run})
	j.runs++
	j.work = len(run)

	if j.opts.Progress != nil {
		j.opts.Progress("sort", int64(end), int64(len(j.values)),
			fmt.Sprintf("Sorted run %d of %d", j.runs, j.TotalBatches()))
	}
}

func (j *Job) finalize() error {
	data, err := j.enc.finish()
	if err != nil {
		return j.fail(&ExportError{Batch: j.batches, Err: err})
	}

	data, err = fileloader.Compress(data, j.opts.Compression)
	if err != nil {
		return j.fail(&ExportError{Batch: j.batches, Err: err})
	}

	j.artifact = &Artifact{
		ID:          j.ID,
		Data:        data,
		Rows:        len(j.values),
		Batches:     j.batches,
		Format:      j.opts.Format,
		Compression: j.opts.Compression,
	}
	j.state = JobDone
	j.merge = nil
	j.batch = nil
	return nil
}

func (j *Job) fail(err error) error {
	j.enc.abort()
	j.merge = nil
	j.batch = nil
	j.artifact = nil
	j.state = JobFailed
	j.err = err
	return err
}

// Artifact returns the finalised artifact, or nil until the job is done.
func (j *Job) Artifact() *Artifact {
	return j.artifact
}

// Run drives the job to completion, calling yield after every Step.
// Cancelling ctx aborts the job between batches.
func (j *Job) Run(ctx context.Context, yield func()) (*Artifact, error) {
	if yield == nil {
		yield = runtime.Gosched
	}

	for {
		select {
		case <-ctx.Done():
			if j.state != JobDone {
				return nil, j.fail(ctx.Err())
			}
		default:
		}

		done, err := j.Step()
		if err != nil {
			return nil, err
		}
		if done {
			return j.artifact, nil
		}
		yield()
	}
}

// runCursor is the read position within one sorted run.
type runCursor struct {
	run []float64
	pos int
}

// runHeap is a min-heap of runs ordered by their next unread value.
type runHeap []*runCursor

func (h runHeap) Len() int { return len(h) }
func (h runHeap) Less(i, j int) bool {
	return h[i].run[h[i].pos] < h[j].run[h[j].pos]
}
func (h runHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *runHeap) Push(x any) { *h = append(*h, x.(*runCursor)) }

func (h *runHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return c
}

// take appends the next n values in ascending order to dst.
func (h *runHeap) take(dst []float64, n int) []float64 {
	for len(dst) < n && h.Len() > 0 {
		c := (*h)[0]
		dst = append(dst, c.run[c.pos])
		c.pos++
		if c.pos == len(c.run) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return dst
}
