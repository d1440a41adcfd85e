// Package scraper coordinates scrape runs: one run at a time, per bank
// extraction in parallel, staging of the extracted candidates one bank after another.
package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/coolviki/paywise/pkg/metrics"
	"github.com/coolviki/paywise/pkg/otellib"
	"github.com/coolviki/paywise/repository"
	"github.com/coolviki/paywise/service/resolver"
	"github.com/coolviki/paywise/service/staging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RunResult ...
type RunResult string

const (
	// RunResultSuccess ...
	RunResultSuccess RunResult = "success"
	// RunResultPartial means at least one bank failed
	RunResultPartial RunResult = "partial"
	// RunResultFailed means no bank could be processed
	RunResultFailed RunResult = "failed"
)

// RunState is the status of the current or last run
type RunState struct {
	IsRunning   bool
	RunID       string
	CurrentBank string
	LastRun     time.Time
	LastResult  RunResult

	BenefitsFound           int
	CampaignsFound          int
	PendingCreated          int
	PendingCampaignsCreated int
	BrandsCreated           int
	CardsCreated            int
	CandidatesSkipped       int
	CandidatesFailed        int

	Errors []string
}

func (s RunState) clone() RunState {
	s.Errors = append([]string(nil), s.Errors...)
	return s
}

// Config ...
type Config struct {
	Banks             []string
	RequestsPerSecond float64
	Parallelism       int
}

// Coordinator ...
type Coordinator struct {
	provider    repository.Provider
	catalogRepo repository.Catalog
	extractor   Extractor
	manager     *staging.Manager
	resolver    *resolver.Resolver

	conf    Config
	limiter *rate.Limiter
	now     func() time.Time

	mu    sync.Mutex
	state RunState
}

// Option ...
type Option func(c *Coordinator)

// WithNow ...
func WithNow(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator ...
func NewCoordinator(
	provider repository.Provider,
	catalogRepo repository.Catalog,
	extractor Extractor,
	manager *staging.Manager,
	res *resolver.Resolver,
	conf Config,
	options ...Option,
) *Coordinator {
	if conf.Parallelism <= 0 {
		conf.Parallelism = 1
	}
	limit := rate.Inf
	if conf.RequestsPerSecond > 0 {
		limit = rate.Limit(conf.RequestsPerSecond)
	}

	c := &Coordinator{
		provider:    provider,
		catalogRepo: catalogRepo,
		extractor:   extractor,
		manager:     manager,
		resolver:    res,

		conf:    conf,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Status returns a copy of the run state, safe to call while a run is going on
func (c *Coordinator) Status() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Coordinator) update(fn func(s *RunState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}

func (c *Coordinator) addError(err error) {
	c.update(func(s *RunState) {
		s.Errors = append(s.Errors, err.Error())
	})
}

// start flips the running flag, failing fast when a run is active
func (c *Coordinator) start() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsRunning {
		return "", fmt.Errorf("run %s: %w", c.state.RunID, apperr.ErrAlreadyRunning)
	}

	runID := uuid.New().String()
	c.state = RunState{
		IsRunning:  true,
		RunID:      runID,
		LastRun:    c.now(),
		LastResult: c.state.LastResult,
	}
	return runID, nil
}

func (c *Coordinator) finish(result RunResult) {
	c.update(func(s *RunState) {
		s.IsRunning = false
		s.CurrentBank = ""
		s.LastResult = result
	})
}

// targetBanks returns the bank to run, or every configured bank when bankCode is empty
func (c *Coordinator) targetBanks(ctx context.Context, bankCode string) ([]string, error) {
	if bankCode == "" {
		return c.conf.Banks, nil
	}

	nullBank, err := c.catalogRepo.GetBankByCode(c.provider.Readonly(ctx), bankCode)
	if err != nil {
		return nil, err
	}
	if !nullBank.Valid {
		return nil, apperr.NewValidationError("bank", fmt.Sprintf("unknown bank %q", bankCode))
	}
	return []string{bankCode}, nil
}

type bankExtraction struct {
	bank       model.Bank
	extraction Extraction
	err        error
}

// Run scrapes one bank, or every configured bank when bankCode is empty, and stages the candidates.
// A failing bank is recorded in the run errors and the run goes on with the remaining banks.
func (c *Coordinator) Run(ctx context.Context, bankCode string) (RunState, error) {
	banks, err := c.targetBanks(ctx, bankCode)
	if err != nil {
		return RunState{}, err
	}

	runID, err := c.start()
	if err != nil {
		return RunState{}, err
	}

	startedAt := time.Now()
	logger := otellib.Extract(ctx).With(zap.String("run_id", runID))
	ctx = otellib.ToContext(ctx, logger)
	logger.Info("scrape run started", zap.Strings("banks", banks))

	defer func() {
		if r := recover(); r != nil {
			c.addError(fmt.Errorf("run panicked: %v", r))
			c.finish(RunResultFailed)
			metrics.RecordRun(string(RunResultFailed), time.Since(startedAt))
			panic(r)
		}
	}()

	c.resolver.Reset()

	extractions := c.extractAll(ctx, banks)

	succeeded := 0
	for _, e := range extractions {
		if e.err != nil {
			logger.Error("extraction failed", zap.String("bank", e.bank.Code), zap.Error(e.err))
			metrics.RecordExtractionFailure(e.bank.Code)
			c.addError(e.err)
			continue
		}
		c.stage(ctx, e)
		succeeded++
	}

	result := RunResultFailed
	switch {
	case succeeded == len(extractions):
		result = RunResultSuccess
	case succeeded > 0:
		result = RunResultPartial
	}

	c.finish(result)
	metrics.RecordRun(string(result), time.Since(startedAt))
	logger.Info("scrape run finished", zap.String("result", string(result)))

	return c.Status(), nil
}

// extractAll runs the extractors in parallel, results keep the order of banks
func (c *Coordinator) extractAll(ctx context.Context, banks []string) []bankExtraction {
	results := make([]bankExtraction, len(banks))
	sem := make(chan struct{}, c.conf.Parallelism)

	var wg sync.WaitGroup
	for i, code := range banks {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = c.extractBank(ctx, code)
		}(i, code)
	}
	wg.Wait()
	return results
}

func (c *Coordinator) extractBank(ctx context.Context, code string) (result bankExtraction) {
	result.bank.Code = code
	fail := func(err error) bankExtraction {
		result.err = &apperr.ExtractionError{Bank: code, Err: err}
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result = fail(fmt.Errorf("extractor panicked: %v", r))
		}
	}()

	nullBank, err := c.catalogRepo.GetBankByCode(c.provider.Readonly(ctx), code)
	if err != nil {
		return fail(err)
	}
	if !nullBank.Valid {
		return fail(fmt.Errorf("bank %q is not in the catalog", code))
	}
	result.bank = nullBank.Bank

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	c.update(func(s *RunState) {
		s.CurrentBank = code
	})

	extraction, err := c.extractor.Extract(ctx, code)
	if err != nil {
		return fail(err)
	}
	result.extraction = extraction
	return result
}

// stage runs single threaded so that check-then-insert of pending rows never races
func (c *Coordinator) stage(ctx context.Context, e bankExtraction) {
	c.update(func(s *RunState) {
		s.CurrentBank = e.bank.Code
		s.BenefitsFound += len(e.extraction.Benefits)
		s.CampaignsFound += len(e.extraction.Campaigns)
	})

	var r staging.Result
	r.Add(c.manager.IngestBenefits(ctx, e.bank, e.extraction.Benefits))
	r.Add(c.manager.IngestCampaigns(ctx, e.bank, e.extraction.Campaigns))

	c.update(func(s *RunState) {
		s.PendingCreated += r.PendingCreated
		s.PendingCampaignsCreated += r.PendingCampaignsCreated
		s.BrandsCreated += r.BrandsCreated
		s.CardsCreated += r.CardsCreated
		s.CandidatesSkipped += r.Skipped
		s.CandidatesFailed += r.Failed
	})

	otellib.Extract(ctx).Info("bank staged",
		zap.String("bank", e.bank.Code),
		zap.Int("benefits_found", len(e.extraction.Benefits)),
		zap.Int("campaigns_found", len(e.extraction.Campaigns)),
		zap.Int("pending_created", r.PendingCreated),
		zap.Int("pending_campaigns_created", r.PendingCampaignsCreated),
		zap.Int("cards_created", r.CardsCreated),
		zap.Int("brands_created", r.BrandsCreated),
	)
}
