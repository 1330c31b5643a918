// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package pipeline

//go:generate mockgen -source=pipeline.go -destination=mocks/mocks.go -package=mocks Classifier,Resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/hostname"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/metrics"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/safebrowsing"
	x509chain "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/logger"
)

const (
	// DefaultConcurrency bounds parallel resolutions when none is configured.
	DefaultConcurrency = 8

	tracerName = "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/pipeline"
)

// ErrIndeterminate means the batch could not be classified and no result was
// produced.
var ErrIndeterminate = errors.New("pipeline: batch could not be classified")

// Classifier looks up the threat status of a set of domains.
type Classifier interface {
	Classify(ctx context.Context, domains []string) (safebrowsing.Verdict, error)
}

// Resolver fetches the certificate record for a domain.
type Resolver interface {
	Resolve(ctx context.Context, domain string, wantRoot bool) (*x509chain.Record, error)
}

// Classification is the final state of a domain in a run.
type Classification int

const (
	Resolved Classification = iota
	SyntaxInvalid
	ThreatFlagged
	ResolutionFailed
)

func (c Classification) String() string {
	switch c {
	case Resolved:
		return "resolved"
	case SyntaxInvalid:
		return "syntax_invalid"
	case ThreatFlagged:
		return "threat_flagged"
	case ResolutionFailed:
		return "resolution_failed"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// Valid is a resolved domain with its certificate record.
type Valid struct {
	Domain string
	Record *x509chain.Record
}

// Invalid is a rejected domain and the reason it was rejected.
type Invalid struct {
	Domain string
	Reason Classification
}

// Result is the outcome of a completed run. Both partitions follow the order
// of the input batch, including duplicates.
type Result struct {
	RunID   string
	Valid   []Valid
	Invalid []Invalid
}

// ValidDomains returns the domains of the valid partition.
func (r *Result) ValidDomains() []string {
	out := make([]string, 0, len(r.Valid))
	for _, v := range r.Valid {
		out = append(out, v.Domain)
	}
	return out
}

// InvalidDomains returns the domains of the invalid partition.
func (r *Result) InvalidDomains() []string {
	out := make([]string, 0, len(r.Invalid))
	for _, v := range r.Invalid {
		out = append(out, v.Domain)
	}
	return out
}

// Config tunes a [Pipeline]. Zero values select the defaults.
type Config struct {
	// Concurrency bounds parallel certificate resolutions.
	Concurrency int
	// BatchTimeout bounds a whole run. Zero means no bound beyond the
	// caller's context.
	BatchTimeout time.Duration

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Pipeline runs batches. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	classifier   Classifier
	resolver     Resolver
	concurrency  int
	batchTimeout time.Duration
	log          logger.Logger
	metrics      *metrics.Metrics
}

// New returns a pipeline over the given collaborators.
func New(classifier Classifier, resolver Resolver, cfg Config) *Pipeline {
	p := &Pipeline{
		classifier:   classifier,
		resolver:     resolver,
		concurrency:  cfg.Concurrency,
		batchTimeout: cfg.BatchTimeout,
		log:          cfg.Logger,
		metrics:      cfg.Metrics,
	}
	if p.concurrency <= 0 {
		p.concurrency = DefaultConcurrency
	}
	if p.log == nil {
		p.log = logger.NewJSONLogger(io.Discard, true)
	}
	return p
}

// RunBundle removes duplicate domains, keeping the first occurrence, and runs
// the remainder in trust-anchor mode.
func (p *Pipeline) RunBundle(ctx context.Context, batch []string) (*Result, error) {
	return p.Run(ctx, Dedupe(batch), true)
}

// Run classifies batch. With wantRoot the records carry trust anchors,
// otherwise leaf certificates.
func (p *Pipeline) Run(ctx context.Context, batch []string, wantRoot bool) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.Int("batch.size", len(batch)),
		attribute.Bool("want_root", wantRoot),
	)

	if p.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.batchTimeout)
		defer cancel()
	}

	classes, candidates := partition(batch)

	clean, err := p.classify(ctx, candidates, classes)
	if err != nil {
		p.log.Printf("run %s: %v", runID, err)
		p.metrics.IncrementRun("indeterminate")
		p.metrics.ObserveRun(time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "indeterminate")
		return nil, err
	}

	records := p.resolveAll(ctx, runID, clean, wantRoot, classes)

	res := &Result{RunID: runID}
	counts := make(map[Classification]int, 4)
	for _, d := range batch {
		c := classes[d]
		counts[c]++
		if c == Resolved {
			res.Valid = append(res.Valid, Valid{Domain: d, Record: records[d]})
			continue
		}
		res.Invalid = append(res.Invalid, Invalid{Domain: d, Reason: c})
	}

	for c, n := range counts {
		p.metrics.AddDomains(c.String(), n)
	}
	p.metrics.IncrementRun("completed")
	p.metrics.ObserveRun(time.Since(start))
	span.SetAttributes(
		attribute.Int("result.valid", len(res.Valid)),
		attribute.Int("result.invalid", len(res.Invalid)),
	)
	return res, nil
}

// partition applies the hostname grammar to the distinct values of batch.
// Valid domains are provisionally marked Resolved and returned in first-seen
// order.
func partition(batch []string) (map[string]Classification, []string) {
	classes := make(map[string]Classification, len(batch))
	var candidates []string
	for _, d := range batch {
		if _, seen := classes[d]; seen {
			continue
		}
		if !hostname.IsValid(d) {
			classes[d] = SyntaxInvalid
			continue
		}
		classes[d] = Resolved
		candidates = append(candidates, d)
	}
	return classes, candidates
}

// classify marks flagged candidates and returns the clean ones. A candidate
// the classifier reports in neither partition fails the run.
func (p *Pipeline) classify(ctx context.Context, candidates []string, classes map[string]Classification) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	start := time.Now()
	verdict, err := p.classifier.Classify(ctx, candidates)
	p.metrics.ObserveClassify(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndeterminate, err)
	}

	flagged := make(map[string]struct{}, len(verdict.Flagged))
	for _, d := range verdict.Flagged {
		flagged[d] = struct{}{}
	}
	reported := make(map[string]struct{}, len(verdict.Clean))
	for _, d := range verdict.Clean {
		reported[d] = struct{}{}
	}

	clean := make([]string, 0, len(candidates))
	for _, d := range candidates {
		if _, ok := flagged[d]; ok {
			classes[d] = ThreatFlagged
			continue
		}
		if _, ok := reported[d]; !ok {
			return nil, fmt.Errorf("%w: no verdict for %q", ErrIndeterminate, d)
		}
		clean = append(clean, d)
	}
	return clean, nil
}

// resolveAll resolves each clean domain once on a bounded pool. Failures
// mark the domain ResolutionFailed; workers never return an error to the
// group, so one failure cannot cancel the others.
func (p *Pipeline) resolveAll(ctx context.Context, runID string, clean []string, wantRoot bool, classes map[string]Classification) map[string]*x509chain.Record {
	records := make(map[string]*x509chain.Record, len(clean))
	if len(clean) == 0 {
		return records
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for _, d := range clean {
		g.Go(func() error {
			rec, err := p.resolve(ctx, runID, d, wantRoot)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				classes[d] = ResolutionFailed
				return nil
			}
			records[d] = rec
			return nil
		})
	}
	_ = g.Wait()

	return records
}

func (p *Pipeline) resolve(ctx context.Context, runID, domain string, wantRoot bool) (*x509chain.Record, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.resolve",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("domain", domain)),
	)
	defer span.End()

	start := time.Now()
	rec, err := p.resolver.Resolve(ctx, domain, wantRoot)
	p.metrics.ObserveResolve(time.Since(start))

	if err == nil && rec == nil {
		err = fmt.Errorf("resolver returned no record for %s", domain)
	}
	if err != nil {
		kind := x509chain.KindOf(err)
		if kind == "" {
			kind = "unknown"
		}
		p.log.Printf("run %s: %s resolution failed (%s): %v", runID, domain, kind, err)
		p.metrics.IncrementResolveFailure(string(kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		return nil, err
	}
	return rec, nil
}

// Dedupe returns the distinct values of batch in first-occurrence order.
func Dedupe(batch []string) []string {
	seen := make(map[string]struct{}, len(batch))
	out := make([]string, 0, len(batch))
	for _, d := range batch {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
