// Package outbox queues document writes from the store and delivers them to a
// persistence adapter in order, retrying transient failures. Writes that
// still fail are kept as dead letters and reported, never dropped.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
	"github.com/champtrack/champtrack-hub/pkg/retry"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Kind is the adapter call an operation maps to.
type Kind string

const (
	KindSave   Kind = "save"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Operation is one queued write.
type Operation struct {
	Kind       Kind
	Ref        document.Ref
	Doc        document.Document
	Fields     map[string]any
	EnqueuedAt time.Time
}

func (op Operation) String() string {
	return fmt.Sprintf("%s %s", op.Kind, op.Ref)
}

// DeadLetter is an operation that exhausted its attempts.
type DeadLetter struct {
	Operation
	Err      string
	FailedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTBOX
// ══════════════════════════════════════════════════════════════════════════════

// Outbox implements the store's persister on top of a document.Adapter.
type Outbox struct {
	mu      sync.Mutex
	queue   []Operation
	dead    []DeadLetter
	lastErr string
	closed  bool
	retries int

	// drainMu keeps Run and Flush from delivering concurrently.
	drainMu sync.Mutex
	signal  chan struct{}

	adapter    document.Adapter
	retrier    *retry.Retrier
	newRetrier func(...retry.Option) *retry.Retrier
	opTimeout time.Duration
	backlog   int
	clock     timeutil.Clock
	log       *logger.Logger
	publisher shared.EventPublisher
}

// Option configures an Outbox.
type Option func(*Outbox)

func WithRetrier(r *retry.Retrier) Option { return func(o *Outbox) { o.retrier = r } }

// WithRetryConfig builds the retrier from cfg once the outbox exists, so
// retries are logged and counted by the outbox.
func WithRetryConfig(cfg config.OutboxConfig, extra ...retry.Option) Option {
	return func(o *Outbox) {
		o.newRetrier = func(opts ...retry.Option) *retry.Retrier {
			return NewRetrier(cfg, slices.Concat(extra, opts)...)
		}
	}
}

// WithOpTimeout bounds each adapter call.
func WithOpTimeout(d time.Duration) Option { return func(o *Outbox) { o.opTimeout = d } }

// WithBacklogWarning logs a warning whenever the queue grows past n.
func WithBacklogWarning(n int) Option { return func(o *Outbox) { o.backlog = n } }

func WithClock(c timeutil.Clock) Option { return func(o *Outbox) { o.clock = c } }

func WithLogger(l *logger.Logger) Option { return func(o *Outbox) { o.log = l } }

// WithPublisher receives a persistence_failed event per dead letter.
func WithPublisher(p shared.EventPublisher) Option { return func(o *Outbox) { o.publisher = p } }

// ConfigOptions maps the outbox config section onto options.
func ConfigOptions(cfg config.OutboxConfig) []Option {
	return []Option{
		WithRetryConfig(cfg),
		WithOpTimeout(cfg.OpTimeout),
		WithBacklogWarning(cfg.BufferSize),
	}
}

// NewRetrier builds the exponential backoff used for adapter calls.
func NewRetrier(cfg config.OutboxConfig, extra ...retry.Option) *retry.Retrier {
	opts := []retry.Option{
		retry.WithMaxAttempts(cfg.MaxAttempts),
		retry.WithInitialDelay(cfg.InitialBackoff),
		retry.WithMaxDelay(cfg.MaxBackoff),
		retry.WithJitter(cfg.Jitter),
		retry.WithRetryIf(Retryable),
	}
	return retry.New(append(opts, extra...)...)
}

// Retryable reports whether a failed adapter call is worth repeating.
func Retryable(err error) bool {
	return retry.IsRetryable(err) ||
		shared.IsRetryable(err) ||
		errors.Is(err, context.DeadlineExceeded)
}

// New creates an outbox delivering to adapter.
func New(adapter document.Adapter, opts ...Option) *Outbox {
	o := &Outbox{
		signal:    make(chan struct{}, 1),
		adapter:   adapter,
		opTimeout: 10 * time.Second,
		backlog:   256,
		clock:     timeutil.SystemClock(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.Named("outbox")
	switch {
	case o.newRetrier != nil:
		o.retrier = o.newRetrier(retry.WithOnRetry(o.onRetry))
	case o.retrier == nil:
		o.retrier = retry.New(retry.WithRetryIf(Retryable), retry.WithOnRetry(o.onRetry))
	}
	return o
}

func (o *Outbox) onRetry(attempt int, err error, delay time.Duration) {
	o.mu.Lock()
	o.retries++
	o.mu.Unlock()
	o.log.Warn("adapter call failed, retrying",
		logger.Attempt(attempt),
		logger.Duration("delay", delay),
		logger.Err(err),
	)
}

// Save queues a full document write.
func (o *Outbox) Save(doc document.Document) error {
	return o.enqueue(Operation{Kind: KindSave, Ref: doc.Ref, Doc: doc})
}

// Update queues a partial write of top-level fields.
func (o *Outbox) Update(ref document.Ref, fields map[string]any) error {
	return o.enqueue(Operation{Kind: KindUpdate, Ref: ref, Fields: fields})
}

// Delete queues a document removal.
func (o *Outbox) Delete(ref document.Ref) error {
	return o.enqueue(Operation{Kind: KindDelete, Ref: ref})
}

func (o *Outbox) enqueue(op Operation) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return shared.ErrOutboxClosed
	}
	op.EnqueuedAt = o.clock()
	o.queue = append(o.queue, op)
	depth := len(o.queue)
	o.mu.Unlock()

	if o.backlog > 0 && depth > o.backlog {
		o.log.Warn("outbox backlog growing", logger.Int("pending", depth))
	}

	select {
	case o.signal <- struct{}{}:
	default:
	}
	return nil
}

// Close rejects further operations. Queued ones can still be flushed.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
}

// Run delivers operations as they arrive until ctx is done.
func (o *Outbox) Run(ctx context.Context) error {
	o.log.Info("outbox worker started")
	for {
		if err := o.Flush(ctx); err != nil {
			o.log.Info("outbox worker stopped", logger.Int("pending", o.Pending()))
			return err
		}
		select {
		case <-ctx.Done():
			o.log.Info("outbox worker stopped", logger.Int("pending", o.Pending()))
			return ctx.Err()
		case <-o.signal:
		}
	}
}

// Flush delivers everything queued. It returns early only when ctx is done;
// the interrupted operation stays at the head of the queue.
func (o *Outbox) Flush(ctx context.Context) error {
	o.drainMu.Lock()
	defer o.drainMu.Unlock()

	for {
		op, ok := o.peek()
		if !ok {
			return nil
		}
		err := o.deliver(ctx, op)
		if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
			return ctxErr
		}
		o.pop()
		if err != nil {
			o.bury(op, err)
		}
	}
}

func (o *Outbox) peek() (Operation, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 {
		return Operation{}, false
	}
	return o.queue[0], true
}

func (o *Outbox) pop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = o.queue[1:]
}

func (o *Outbox) deliver(ctx context.Context, op Operation) error {
	start := o.clock()
	attempts := 0
	err := o.retrier.Do(ctx, func(ctx context.Context) error {
		attempts++
		callCtx := ctx
		if o.opTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, o.opTimeout)
			defer cancel()
		}
		return o.apply(callCtx, op)
	})
	if err == nil {
		o.log.Debug("operation delivered",
			logger.Operation(string(op.Kind)),
			logger.Collection(string(op.Ref.Collection)),
			logger.EntityID(op.Ref.ID),
			logger.Attempt(attempts),
			logger.Latency(o.clock().Sub(start)),
		)
		return nil
	}
	return &deliveryError{op: op, attempts: attempts, err: err}
}

func (o *Outbox) apply(ctx context.Context, op Operation) error {
	switch op.Kind {
	case KindSave:
		return o.adapter.Save(ctx, op.Doc)
	case KindUpdate:
		return o.adapter.Update(ctx, op.Ref, op.Fields)
	case KindDelete:
		return o.adapter.Delete(ctx, op.Ref)
	default:
		return retry.Permanent(fmt.Errorf("unknown operation kind %q", op.Kind))
	}
}

type deliveryError struct {
	op       Operation
	attempts int
	err      error
}

func (e *deliveryError) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *deliveryError) Unwrap() error { return e.err }

func (o *Outbox) bury(op Operation, err error) {
	now := o.clock()
	attempts := 1
	var de *deliveryError
	if errors.As(err, &de) {
		attempts = de.attempts
	}

	o.mu.Lock()
	o.dead = append(o.dead, DeadLetter{Operation: op, Err: err.Error(), FailedAt: now})
	o.lastErr = err.Error()
	o.mu.Unlock()

	o.log.Error("persistence failed",
		logger.Operation(string(op.Kind)),
		logger.Collection(string(op.Ref.Collection)),
		logger.EntityID(op.Ref.ID),
		logger.Attempt(attempts),
		logger.Err(err),
	)
	if o.publisher != nil {
		ev := shared.NewPersistenceFailedEvent(op.Ref.ID, string(op.Ref.Collection), string(op.Kind), err.Error(), attempts, now)
		if perr := o.publisher.Publish(ev); perr != nil {
			o.log.Warn("publish persistence failure", logger.Err(perr))
		}
	}
}

// Requeue moves every dead letter back onto the queue and clears the last
// error. It returns how many were moved.
func (o *Outbox) Requeue() int {
	o.mu.Lock()
	n := len(o.dead)
	for _, d := range o.dead {
		o.queue = append(o.queue, d.Operation)
	}
	o.dead = nil
	o.lastErr = ""
	o.mu.Unlock()

	if n > 0 {
		select {
		case o.signal <- struct{}{}:
		default:
		}
	}
	return n
}

// LastError is the message of the latest dead letter, or "".
func (o *Outbox) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Pending counts queued operations.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// DeadLetters returns a copy of the failed operations, oldest first.
func (o *Outbox) DeadLetters() []DeadLetter {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]DeadLetter, len(o.dead))
	copy(out, o.dead)
	return out
}

// Retries counts adapter calls repeated after a transient failure.
func (o *Outbox) Retries() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.retries
}

// DeadLetterCount counts failed operations awaiting requeue.
func (o *Outbox) DeadLetterCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.dead)
}
