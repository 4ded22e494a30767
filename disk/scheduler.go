package disk

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"pagepool/common"
)

// DiskRequest is one unit of work for the scheduler's worker. Callers fill
// in IsWrite, PageID and Buffer, create a Promise/Future pair with
// CreatePromise, set Callback to the Promise, and then Schedule the request.
// TraceID is stamped by Schedule; callers do not need to set it.
type DiskRequest struct {
	IsWrite  bool
	PageID   PageID
	Buffer   []byte
	TraceID  uuid.UUID
	Callback Promise
}

// Promise is the sender half of a DiskRequest's one-shot completion signal.
// Complete must be called exactly once.
type Promise struct {
	ch chan bool
}

func (p Promise) Complete(ok bool) {
	p.ch <- ok
}

// Future is the receiver half of a DiskRequest's completion signal. The
// caller that scheduled the request owns it and blocks on Wait to learn
// whether the request succeeded.
type Future struct {
	ch chan bool
}

func (f Future) Wait() bool {
	return <-f.ch
}

type stopSignal struct{}

const traceCapacity = 256

type traceRecord struct {
	TraceID string        `json:"trace_id"`
	PageID  PageID        `json:"page_id"`
	IsWrite bool          `json:"is_write"`
	OK      bool          `json:"ok"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Scheduler exposes a non-blocking Schedule over an unbounded FIFO queue
// while a single worker goroutine serialises every real disk operation, so
// that Manager sees a single-writer stream. Requests complete strictly in
// submission order.
type Scheduler struct {
	manager Manager
	queue   *common.Queue[any]
	stopped chan struct{}

	traceMu sync.Mutex
	trace   []traceRecord
	stats   *common.Stats
}

func NewScheduler(manager Manager) *Scheduler {
	s := &Scheduler{
		manager: manager,
		queue:   common.NewQueue[any](),
		stopped: make(chan struct{}),
		stats:   common.NewStats(),
	}
	go s.workerLoop()
	return s
}

// Schedule enqueues req and returns immediately. The caller keeps the
// receiving Future; this call only needs req.Callback already set via
// CreatePromise.
func (s *Scheduler) Schedule(req *DiskRequest) {
	if req.TraceID == uuid.Nil {
		req.TraceID = uuid.New()
	}
	s.queue.Put(req)
}

// CreatePromise returns a fresh sender/receiver pair for one DiskRequest.
func (s *Scheduler) CreatePromise() (Promise, Future) {
	ch := make(chan bool, 1)
	return Promise{ch: ch}, Future{ch: ch}
}

// Close enqueues a stop marker behind every request already queued and
// blocks until the worker has drained them and exited. Scheduling a request
// concurrently with Close is a caller error.
func (s *Scheduler) Close() {
	s.queue.Put(stopSignal{})
	<-s.stopped
}

func (s *Scheduler) workerLoop() {
	defer close(s.stopped)
	for {
		item := s.queue.Get()
		if _, ok := item.(stopSignal); ok {
			return
		}
		req := item.(*DiskRequest)
		start := time.Now()

		var err error
		if req.IsWrite {
			err = s.manager.WritePage(req.PageID, req.Buffer)
		} else {
			err = s.manager.ReadPage(req.PageID, req.Buffer)
		}
		ok := err == nil
		if err != nil {
			log.Printf("disk: request %s for page %d failed: %v", req.TraceID, req.PageID, err)
		}

		elapsed := time.Since(start)
		s.stats.Avg("disk_request_ns", float64(elapsed))
		s.recordTrace(req, ok, elapsed)

		req.Callback.Complete(ok)
	}
}

func (s *Scheduler) recordTrace(req *DiskRequest, ok bool, elapsed time.Duration) {
	rec := traceRecord{
		TraceID: req.TraceID.String(),
		PageID:  req.PageID,
		IsWrite: req.IsWrite,
		OK:      ok,
		Elapsed: elapsed,
	}

	s.traceMu.Lock()
	defer s.traceMu.Unlock()
	s.trace = append(s.trace, rec)
	if len(s.trace) > traceCapacity {
		s.trace = s.trace[len(s.trace)-traceCapacity:]
	}
}

// MeanLatency reports the running average worker-side latency across every
// request processed so far, for diagnostics.
func (s *Scheduler) MeanLatency() time.Duration {
	return time.Duration(s.stats.Mean("disk_request_ns"))
}

// DumpTrace returns a snappy-compressed JSON encoding of the most recent
// completed requests, the same compress-before-persist move
// disk/wal/bwal_log_serde.go makes for log records.
func (s *Scheduler) DumpTrace() ([]byte, error) {
	s.traceMu.Lock()
	records := make([]traceRecord, len(s.trace))
	copy(records, s.trace)
	s.traceMu.Unlock()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(records); err != nil {
		return nil, err
	}
	return snappy.Encode(nil, buf.Bytes()), nil
}
