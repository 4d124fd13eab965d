package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/gallerykeeper/internal/common"
	"github.com/dmitrijs2005/gallerykeeper/internal/digest"
	"github.com/dmitrijs2005/gallerykeeper/internal/ledger"
	"github.com/dmitrijs2005/gallerykeeper/internal/logging"
	"github.com/dmitrijs2005/gallerykeeper/internal/storage"
)

// Hasher resolves a (bucket, key) reference into a content digest.
type Hasher interface {
	HashObject(ctx context.Context, bucket, key string) (digest.Result, error)
}

// Recorder persists one upload event in the ledger, atomically.
type Recorder interface {
	Record(ctx context.Context, req ledger.RecordRequest) (ledger.RecordResult, error)
}

// Mover performs the storage side-effects.
type Mover interface {
	Archive(ctx context.Context, src storage.ObjectRef, archiveKey string) error
	Evict(ctx context.Context, ref storage.ObjectRef) error
}

// Config tunes one orchestrator instance.
type Config struct {
	// OwnerID is recorded as reference provenance; one logical owner per
	// staging bucket.
	OwnerID string

	// StepTimeout bounds every single attempt of a step that crosses the
	// network.
	StepTimeout time.Duration

	// RetryMaxAttempts and RetryBaseDelay shape the exponential backoff
	// applied to transient step failures.
	RetryMaxAttempts uint64
	RetryBaseDelay   time.Duration
}

// Orchestrator drives the traversal state machine. One instance serves
// any number of concurrent traversals; it holds no per-event state.
type Orchestrator struct {
	hasher   Hasher
	recorder Recorder
	mover    Mover
	logger   logging.Logger
	cfg      Config
}

func NewOrchestrator(hasher Hasher, recorder Recorder, mover Mover, logger logging.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		hasher:   hasher,
		recorder: recorder,
		mover:    mover,
		logger:   logger,
		cfg:      cfg,
	}
}

// traversal is the transient unit of work: the event plus everything the
// steps have derived so far.
type traversal struct {
	event   Event
	outcome Outcome
}

// Run executes one traversal to a terminal state. On Failed the partially
// populated outcome is returned alongside the error so an operator can
// inspect or re-drive it. Steps already durably completed are idempotent,
// so re-driving the same event after a partial failure is safe.
func (o *Orchestrator) Run(ctx context.Context, ev Event) (*Outcome, error) {
	tr := &traversal{event: ev}
	tr.outcome.Bucket = ev.Bucket
	tr.outcome.Key = ev.Key

	state := StateStart
	log := o.logger.With("bucket", ev.Bucket, "key", ev.Key)

	for {
		log.Debug(ctx, "state transition", "state", string(state))

		var next State
		var err error

		switch state {
		case StateStart:
			next, err = o.stepStart(tr)
		case StateHashing:
			next, err = o.stepHashing(ctx, tr)
		case StateRecording:
			next, err = o.stepRecording(ctx, tr)
		case StateBranch:
			next = o.stepBranch(tr)
		case StateArchiving:
			next, err = o.stepArchiving(ctx, tr)
		case StateEvicting:
			next, err = o.stepEvicting(ctx, tr)
		case StateDone:
			log.Info(ctx, "traversal done",
				"digest", tr.outcome.Digest,
				"exists", tr.outcome.Exists,
				"copied", tr.outcome.Archived,
				"deleted", tr.outcome.Deleted)
			return &tr.outcome, nil
		case StateFailed:
			// Unreachable: failures return below before entering the state.
			return &tr.outcome, fmt.Errorf("traversal failed")
		default:
			return &tr.outcome, fmt.Errorf("unknown state %q", state)
		}

		if err != nil {
			log.Error(ctx, "traversal failed", "state", string(state), "error", err)
			return &tr.outcome, err
		}
		state = next
	}
}

func (o *Orchestrator) stepStart(tr *traversal) (State, error) {
	if tr.event.Bucket == "" || tr.event.Key == "" {
		return StateFailed, fmt.Errorf("%w: bucket=%q key=%q",
			common.ErrMalformedEvent, tr.event.Bucket, tr.event.Key)
	}
	tr.outcome.Folder, tr.outcome.Filename = SplitKey(tr.event.Key)
	return StateHashing, nil
}

func (o *Orchestrator) stepHashing(ctx context.Context, tr *traversal) (State, error) {
	var res digest.Result
	err := o.retryStep(ctx, func(ctx context.Context) error {
		var err error
		res, err = o.hasher.HashObject(ctx, tr.event.Bucket, tr.event.Key)
		return err
	})
	if err != nil {
		return StateFailed, fmt.Errorf("hashing: %w", err)
	}
	tr.outcome.Digest = res.Digest
	tr.outcome.Algorithm = res.Algorithm
	return StateRecording, nil
}

func (o *Orchestrator) stepRecording(ctx context.Context, tr *traversal) (State, error) {
	var res ledger.RecordResult
	err := o.retryStep(ctx, func(ctx context.Context) error {
		var err error
		res, err = o.recorder.Record(ctx, ledger.RecordRequest{
			Digest:    tr.outcome.Digest,
			Algorithm: tr.outcome.Algorithm,
			OwnerID:   o.cfg.OwnerID,
			Filename:  tr.outcome.Filename,
			Folder:    tr.outcome.Folder,
		})
		return err
	})
	if err != nil {
		return StateFailed, fmt.Errorf("recording: %w", err)
	}
	tr.outcome.ContentID = res.ContentID
	tr.outcome.ReferenceID = res.ReferenceID
	tr.outcome.Exists = res.Existed
	return StateBranch, nil
}

// stepBranch is the only fork in the machine: first-seen content must be
// archived before the staging copy goes away; already-seen content is
// in the gallery already and only needs eviction.
func (o *Orchestrator) stepBranch(tr *traversal) State {
	if tr.outcome.Exists {
		return StateEvicting
	}
	return StateArchiving
}

func (o *Orchestrator) stepArchiving(ctx context.Context, tr *traversal) (State, error) {
	src := storage.ObjectRef{Bucket: tr.event.Bucket, Key: tr.event.Key}
	err := o.retryStep(ctx, func(ctx context.Context) error {
		return o.mover.Archive(ctx, src, tr.outcome.Digest)
	})
	if err != nil {
		return StateFailed, fmt.Errorf("archiving: %w", err)
	}
	tr.outcome.Archived = true
	return StateEvicting, nil
}

// stepEvicting runs only after the ledger write has committed (and, on
// the first-seen path, after the archive copy). Each delete attempt is
// dispatched on a detached context so an operator cancellation cannot
// abandon an in-flight destructive call; cancellation is honored between
// attempts.
func (o *Orchestrator) stepEvicting(ctx context.Context, tr *traversal) (State, error) {
	ref := storage.ObjectRef{Bucket: tr.event.Bucket, Key: tr.event.Key}
	detached := context.WithoutCancel(ctx)
	err := o.retryStep(ctx, func(context.Context) error {
		attemptCtx, cancel := context.WithTimeout(detached, o.cfg.StepTimeout)
		defer cancel()
		return o.mover.Evict(attemptCtx, ref)
	})
	if err != nil {
		return StateFailed, fmt.Errorf("evicting: %w", err)
	}
	tr.outcome.Deleted = true
	return StateDone, nil
}

// retryStep applies the per-step policy: a timeout on every attempt and
// exponential backoff across attempts, but only for transient error
// classes. Referential and malformed-event failures fail the traversal
// immediately.
func (o *Orchestrator) retryStep(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(o.cfg.RetryMaxAttempts, retry.NewExponential(o.cfg.RetryBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
		defer cancel()

		err := fn(attemptCtx)
		if err != nil && common.IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
