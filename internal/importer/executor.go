package importer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edgeops/sensorctl/internal/api"
)

// Submitter is the slice of the API client the executor needs.
type Submitter interface {
	SubmitNumericBatch(ctx context.Context, proto api.Protocol, definitionID string, sensors []api.NumericSensor) (api.BatchResult, error)
	SubmitNonNumericBatch(ctx context.Context, proto api.Protocol, definitionID string, sensors []api.NonNumericSensor) (api.BatchResult, error)
}

// RetryPolicy bounds the executor's retries. Exposed as a struct so tests
// can inject fast settings.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the documented config defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}
}

// Delay returns the backoff before retry number attempt (1-based), doubling
// from BaseDelay up to MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Executor submits batches and aggregates per-record outcomes. Batches
// are independent: a failed batch never cancels the others, and committed
// batches are never rolled back.
type Executor struct {
	client       Submitter
	proto        api.Protocol
	class        api.SensorClass
	definitionID string
	retry        RetryPolicy
	maxInFlight  int
	log          *zap.Logger

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor builds an executor for one definition and sensor class.
func NewExecutor(client Submitter, proto api.Protocol, class api.SensorClass, definitionID string,
	retry RetryPolicy, maxInFlight int, log *zap.Logger) *Executor {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &Executor{
		client:       client,
		proto:        proto,
		class:        class,
		definitionID: definitionID,
		retry:        retry,
		maxInFlight:  maxInFlight,
		log:          log.With(zap.String("module", "executor")),
		sleep:        sleepContext,
	}
}

// Execute submits every batch, at most maxInFlight concurrently, and
// records each record's outcome in report. Closing stop halts issuing of
// new batches; in-flight batches finish (bounded by ctx) and are
// recorded, and batches never issued are marked Failed. Report mutation
// is serialized under an internal lock.
func (e *Executor) Execute(ctx context.Context, stop <-chan struct{}, batches []ImportBatch, report *ImportReport) {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, e.maxInFlight)
	)

	record := func(apply func(*ImportReport)) {
		mu.Lock()
		apply(report)
		mu.Unlock()
	}

	for _, b := range batches {
		stopped := ctx.Err() != nil
		if !stopped && stop != nil {
			select {
			case <-stop:
				stopped = true
			default:
			}
		}
		if stopped {
			e.log.Warn("run interrupted, skipping batch", zap.Int("batch", b.Seq))
			record(func(r *ImportReport) {
				for _, rec := range b.Records {
					r.Add(rec, OutcomeFailed, "run interrupted before batch was sent")
				}
			})
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(b ImportBatch) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := e.submit(ctx, b)
			record(func(r *ImportReport) {
				e.apply(r, b, res, err)
			})
		}(b)
	}
	wg.Wait()
}

// submit sends one batch, retrying transient failures with bounded
// exponential backoff.
func (e *Executor) submit(ctx context.Context, b ImportBatch) (api.BatchResult, error) {
	var (
		res api.BatchResult
		err error
	)
	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		e.log.Debug("submitting batch", zap.Int("batch", b.Seq),
			zap.Int("records", len(b.Records)), zap.Int("attempt", attempt))
		res, err = e.send(ctx, b)
		if err == nil {
			return res, nil
		}
		if !api.IsTransient(err) {
			return res, err
		}
		if attempt == e.retry.MaxAttempts {
			break
		}
		delay := e.retry.Delay(attempt)
		e.log.Warn("transient failure, retrying batch", zap.Int("batch", b.Seq),
			zap.Duration("backoff", delay), zap.Error(err))
		if serr := e.sleep(ctx, delay); serr != nil {
			return res, serr
		}
	}
	return res, err
}

func (e *Executor) send(ctx context.Context, b ImportBatch) (api.BatchResult, error) {
	if e.class == api.ClassNonNumeric {
		sensors := make([]api.NonNumericSensor, len(b.Records))
		for i, rec := range b.Records {
			sensors[i] = rec.NonNumericSensor()
		}
		return e.client.SubmitNonNumericBatch(ctx, e.proto, e.definitionID, sensors)
	}
	sensors := make([]api.NumericSensor, len(b.Records))
	for i, rec := range b.Records {
		sensors[i] = rec.NumericSensor()
	}
	return e.client.SubmitNumericBatch(ctx, e.proto, e.definitionID, sensors)
}

// apply folds one batch result into the report. The platform reports
// per-record verdicts when it has them; otherwise the whole batch shares
// one outcome.
func (e *Executor) apply(r *ImportReport, b ImportBatch, res api.BatchResult, err error) {
	switch {
	case err == nil:
		e.applyResults(r, b, res.Results, OutcomeCommitted, "")

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// run timeout or interrupt hit mid-submission; the platform never
		// refused these records
		for _, rec := range b.Records {
			r.Add(rec, OutcomeFailed, "run interrupted: "+err.Error())
		}

	case api.IsTransient(err):
		// retries exhausted
		for _, rec := range b.Records {
			r.Add(rec, OutcomeFailed, err.Error())
		}

	default:
		var rej *api.RemoteRejection
		if errors.As(err, &rej) && rej.Result != nil {
			e.applyResults(r, b, rej.Result.Results, OutcomeRejected, "rejected by platform")
			return
		}
		for _, rec := range b.Records {
			r.Add(rec, OutcomeRejected, err.Error())
		}
	}
}

// applyResults maps per-record verdicts by index; records without a
// verdict get the batch default.
func (e *Executor) applyResults(r *ImportReport, b ImportBatch, results []api.BatchRecordResult,
	def Outcome, defReason string) {
	byIndex := make(map[int]api.BatchRecordResult, len(results))
	for _, res := range results {
		byIndex[res.Index] = res
	}
	for i, rec := range b.Records {
		res, ok := byIndex[i]
		if !ok {
			r.Add(rec, def, defReason)
			continue
		}
		if res.Committed() {
			r.Add(rec, OutcomeCommitted, "")
		} else {
			r.Add(rec, OutcomeRejected, res.Message)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
