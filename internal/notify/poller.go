// Package notify feeds the workflow with upload events. It stands in for
// an object-created notification stream by sweeping the staging bucket:
// anything present in staging is, by definition, awaiting processing.
// Objects whose traversal fails stay in staging and are re-driven by a
// later sweep.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/gallerykeeper/internal/logging"
	"github.com/dmitrijs2005/gallerykeeper/internal/workflow"
)

// Lister is the slice of the S3 client the poller needs.
type Lister interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Runner executes one traversal. Satisfied by *workflow.Orchestrator.
type Runner interface {
	Run(ctx context.Context, ev workflow.Event) (*workflow.Outcome, error)
}

// Poller sweeps the staging bucket on an interval and fans traversals
// out to a bounded number of concurrent workers. A key is never
// dispatched twice while its traversal is in flight.
type Poller struct {
	api      Lister
	runner   Runner
	logger   logging.Logger
	bucket   string
	interval time.Duration

	sem chan struct{}

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewPoller(api Lister, runner Runner, logger logging.Logger, bucket string, interval time.Duration, workers int) *Poller {
	if workers < 1 {
		workers = 1
	}
	return &Poller{
		api:      api,
		runner:   runner,
		logger:   logger,
		bucket:   bucket,
		interval: interval,
		sem:      make(chan struct{}, workers),
		inflight: map[string]struct{}{},
	}
}

// Run sweeps until the context is cancelled, then waits for in-flight
// traversals to finish. The returned error is the context's cause.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup

	// One sweep up front so a freshly started worker drains a backlog
	// without waiting a full interval.
	p.sweep(ctx, &wg)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			p.sweep(ctx, &wg)
		}
	}
}

func (p *Poller) sweep(ctx context.Context, wg *sync.WaitGroup) {
	var token *string
	for {
		out, err := p.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(p.bucket),
			ContinuationToken: token,
		})
		if err != nil {
			p.logger.Warn(ctx, "staging sweep failed", "bucket", p.bucket, "error", err)
			return
		}

		for _, obj := range out.Contents {
			p.dispatch(ctx, wg, aws.ToString(obj.Key))
		}

		if !aws.ToBool(out.IsTruncated) {
			return
		}
		token = out.NextContinuationToken
	}
}

func (p *Poller) dispatch(ctx context.Context, wg *sync.WaitGroup, key string) {
	if key == "" {
		return
	}

	p.mu.Lock()
	if _, busy := p.inflight[key]; busy {
		p.mu.Unlock()
		return
	}
	p.inflight[key] = struct{}{}
	p.mu.Unlock()

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		p.release(key)
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() { <-p.sem }()
		defer p.release(key)

		out, err := p.runner.Run(ctx, workflow.Event{Bucket: p.bucket, Key: key})
		if err != nil {
			// The object stays in staging; the next sweep re-drives it.
			p.logger.Warn(ctx, "traversal failed, will re-drive",
				"key", key, "error", err, "outcome", out)
		}
	}()
}

func (p *Poller) release(key string) {
	p.mu.Lock()
	delete(p.inflight, key)
	p.mu.Unlock()
}
