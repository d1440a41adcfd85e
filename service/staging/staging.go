// Package staging turns scraped candidates into pending rows awaiting review.
// Every candidate is staged in its own transaction, a failing candidate is
// logged and skipped without touching the rest of the batch.
package staging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/coolviki/paywise/pkg/metrics"
	"github.com/coolviki/paywise/pkg/normalize"
	"github.com/coolviki/paywise/pkg/otellib"
	"github.com/coolviki/paywise/repository"
	"github.com/coolviki/paywise/service/resolver"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Outcome of staging one candidate
type Outcome string

const (
	// OutcomeStaged means a pending benefit or campaign was created
	OutcomeStaged Outcome = "staged"
	// OutcomeCardStaged means the card was unresolved and a pending card was created
	OutcomeCardStaged Outcome = "card_staged"
	// OutcomeBrandStaged means the brand was unresolved and a pending brand was created
	OutcomeBrandStaged Outcome = "brand_staged"
	// OutcomeAlreadyPending means a pending row with the same natural key exists
	OutcomeAlreadyPending Outcome = "already_pending"
	// OutcomeUnchanged means production already holds the same values
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeUnresolved means the card or brand is unresolved but nothing new could be staged for it
	OutcomeUnresolved Outcome = "unresolved"
)

// Result aggregates the outcomes of one batch
type Result struct {
	PendingCreated          int
	PendingCampaignsCreated int
	CardsCreated            int
	BrandsCreated           int
	Skipped                 int
	Failed                  int
}

// Add ...
func (r *Result) Add(other Result) {
	r.PendingCreated += other.PendingCreated
	r.PendingCampaignsCreated += other.PendingCampaignsCreated
	r.CardsCreated += other.CardsCreated
	r.BrandsCreated += other.BrandsCreated
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

func (r *Result) count(outcome Outcome, campaign bool) {
	switch outcome {
	case OutcomeStaged:
		if campaign {
			r.PendingCampaignsCreated++
		} else {
			r.PendingCreated++
		}
	case OutcomeCardStaged:
		r.CardsCreated++
	case OutcomeBrandStaged:
		r.BrandsCreated++
	default:
		r.Skipped++
	}
}

// Manager stages candidates
type Manager struct {
	provider     repository.Provider
	catalogRepo  repository.Catalog
	benefitRepo  repository.Benefit
	campaignRepo repository.Campaign
	pendingRepo  repository.Pending
	resolver     *resolver.Resolver

	keywords map[string][]string
	now      func() time.Time
}

// Option ...
type Option func(m *Manager)

// WithBrandKeywords sets the keywords given to auto-discovered brands, keyed by brand name
func WithBrandKeywords(keywords map[string][]string) Option {
	return func(m *Manager) {
		for name, list := range keywords {
			m.keywords[normalize.CanonicalKey(name)] = list
		}
	}
}

// WithNow overrides the clock used for scraped_at
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager ...
func NewManager(
	provider repository.Provider,
	catalogRepo repository.Catalog,
	benefitRepo repository.Benefit,
	campaignRepo repository.Campaign,
	pendingRepo repository.Pending,
	res *resolver.Resolver,
	options ...Option,
) *Manager {
	m := &Manager{
		provider:     provider,
		catalogRepo:  catalogRepo,
		benefitRepo:  benefitRepo,
		campaignRepo: campaignRepo,
		pendingRepo:  pendingRepo,
		resolver:     res,

		keywords: map[string][]string{},
		now:      time.Now,
	}
	for _, o := range options {
		o(m)
	}
	return m
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{Valid: s != "", String: s}
}

func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

//------------------------------------------------
// Batches
//------------------------------------------------

// IngestBenefits stages every candidate of one bank
func (m *Manager) IngestBenefits(ctx context.Context, bank model.Bank, candidates []model.ScrapedBenefit) Result {
	var result Result
	for _, c := range candidates {
		outcome, err := m.IngestBenefit(ctx, bank, c)
		if err != nil {
			otellib.Extract(ctx).Warn("skip benefit candidate",
				zap.String("bank", bank.Code),
				zap.String("card_name", c.CardName),
				zap.String("brand_name", c.BrandName),
				zap.Error(err),
			)
			metrics.RecordSkipped(string(model.PendingKindBenefit), "error")
			result.Failed++
			continue
		}
		result.count(outcome, false)
	}
	return result
}

// IngestCampaigns stages every campaign candidate of one bank
func (m *Manager) IngestCampaigns(ctx context.Context, bank model.Bank, candidates []model.ScrapedCampaign) Result {
	var result Result
	for _, c := range candidates {
		outcome, err := m.IngestCampaign(ctx, bank, c)
		if err != nil {
			otellib.Extract(ctx).Warn("skip campaign candidate",
				zap.String("bank", bank.Code),
				zap.String("card_name", c.CardName),
				zap.String("brand_name", c.BrandName),
				zap.Error(err),
			)
			metrics.RecordSkipped(string(model.PendingKindCampaign), "error")
			result.Failed++
			continue
		}
		result.count(outcome, true)
	}
	return result
}

//------------------------------------------------
// Benefits
//------------------------------------------------

func validateBenefit(c model.ScrapedBenefit) error {
	switch {
	case cleanName(c.CardName) == "":
		return apperr.NewValidationError("card_name", "must not be empty")
	case cleanName(c.BrandName) == "":
		return apperr.NewValidationError("brand_name", "must not be empty")
	case strings.TrimSpace(c.BenefitType) == "":
		return apperr.NewValidationError("benefit_type", "must not be empty")
	case c.BenefitRate.IsNegative():
		return apperr.NewValidationError("benefit_rate", "must not be negative")
	case model.RoundRate(c.BenefitRate).GreaterThan(model.MaxRate):
		return apperr.NewValidationError("benefit_rate", "must not exceed "+model.MaxRate.StringFixed(model.RateScale))
	}
	return nil
}

// mergedDescription keeps the production description when the candidate has none
func mergedDescription(candidate sql.NullString, existing sql.NullString) sql.NullString {
	if c := nullString(candidate.String); candidate.Valid && c.Valid {
		return c
	}
	return existing
}

func benefitChanged(old model.BenefitSnapshot, rate decimal.Decimal, benefitType string, desc sql.NullString) bool {
	return !old.BenefitRate.Equal(rate) || old.BenefitType != benefitType || old.Description != desc
}

// IngestBenefit stages one benefit candidate
func (m *Manager) IngestBenefit(ctx context.Context, bank model.Bank, c model.ScrapedBenefit) (Outcome, error) {
	if err := validateBenefit(c); err != nil {
		return "", err
	}

	var outcome Outcome
	err := m.provider.Transact(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = m.ingestBenefit(ctx, bank, c)
		return err
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (m *Manager) ingestBenefit(ctx context.Context, bank model.Bank, c model.ScrapedBenefit) (Outcome, error) {
	kind := model.PendingKindBenefit
	card, brand, outcome, err := m.resolveTargets(ctx, kind, bank, c.CardName, c.BrandName, c.SourceURL)
	if err != nil || outcome != "" {
		return outcome, err
	}

	nullPending, err := m.pendingRepo.FindPendingBenefit(ctx, card.ID, brand.ID)
	if err != nil {
		return "", err
	}
	if nullPending.Valid {
		metrics.RecordSkipped(string(kind), string(OutcomeAlreadyPending))
		return OutcomeAlreadyPending, nil
	}

	nullBenefit, err := m.benefitRepo.FindActiveBenefit(ctx, card.ID, brand.ID)
	if err != nil {
		return "", err
	}

	change := model.PendingEcosystemChange{
		CardID:      card.ID,
		BrandID:     brand.ID,
		BenefitRate: model.RoundRate(c.BenefitRate),
		BenefitType: strings.TrimSpace(c.BenefitType),
		Description: nullString(c.Description.String),
		SourceURL:   nullString(c.SourceURL.String),
		ChangeType:  model.ChangeTypeNew,
		Status:      model.PendingStatusPending,
		ScrapedAt:   m.now(),
	}

	if nullBenefit.Valid {
		old := nullBenefit.Benefit.Snapshot()
		change.Description = mergedDescription(c.Description, old.Description)
		if !benefitChanged(old, change.BenefitRate, change.BenefitType, change.Description) {
			metrics.RecordSkipped(string(kind), string(OutcomeUnchanged))
			return OutcomeUnchanged, nil
		}
		change.ChangeType = model.ChangeTypeUpdate
		change.OldValues = model.NewBenefitSnapshot(old)
	}

	id, err := m.pendingRepo.InsertPendingBenefit(ctx, change)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		metrics.RecordSkipped(string(kind), string(OutcomeAlreadyPending))
		return OutcomeAlreadyPending, nil
	}
	if err != nil {
		return "", err
	}

	otellib.Extract(ctx).Info("staged ecosystem change",
		zap.Int64("id", id),
		zap.String("change_type", string(change.ChangeType)),
		zap.String("card_name", card.Name),
		zap.String("brand_name", brand.Name),
	)
	metrics.RecordStaged(string(kind), string(change.ChangeType))
	return OutcomeStaged, nil
}

//------------------------------------------------
// Campaigns
//------------------------------------------------

func validateCampaign(c model.ScrapedCampaign) error {
	switch {
	case cleanName(c.CardName) == "":
		return apperr.NewValidationError("card_name", "must not be empty")
	case cleanName(c.BrandName) == "":
		return apperr.NewValidationError("brand_name", "must not be empty")
	case strings.TrimSpace(c.BenefitType) == "":
		return apperr.NewValidationError("benefit_type", "must not be empty")
	case c.BenefitRate.IsNegative():
		return apperr.NewValidationError("benefit_rate", "must not be negative")
	case model.RoundRate(c.BenefitRate).GreaterThan(model.MaxRate):
		return apperr.NewValidationError("benefit_rate", "must not exceed "+model.MaxRate.StringFixed(model.RateScale))
	case c.StartDate.IsZero() || c.EndDate.IsZero():
		return apperr.NewValidationError("start_date", "start and end dates are required")
	case model.DateOf(c.StartDate).After(model.DateOf(c.EndDate)):
		return apperr.NewValidationError("start_date", "must not be after end_date")
	}
	return nil
}

func campaignChanged(old model.CampaignSnapshot, change model.PendingCampaign) bool {
	return !old.BenefitRate.Equal(change.BenefitRate) ||
		old.BenefitType != change.BenefitType ||
		old.Description != change.Description ||
		old.TermsURL != change.TermsURL
}

// IngestCampaign stages one campaign candidate, keyed by card, brand and date range
func (m *Manager) IngestCampaign(ctx context.Context, bank model.Bank, c model.ScrapedCampaign) (Outcome, error) {
	if err := validateCampaign(c); err != nil {
		return "", err
	}

	var outcome Outcome
	err := m.provider.Transact(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = m.ingestCampaign(ctx, bank, c)
		return err
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (m *Manager) ingestCampaign(ctx context.Context, bank model.Bank, c model.ScrapedCampaign) (Outcome, error) {
	kind := model.PendingKindCampaign
	card, brand, outcome, err := m.resolveTargets(ctx, kind, bank, c.CardName, c.BrandName, c.SourceURL)
	if err != nil || outcome != "" {
		return outcome, err
	}

	startDate := model.DateOf(c.StartDate)
	endDate := model.DateOf(c.EndDate)

	nullPending, err := m.pendingRepo.FindPendingCampaign(ctx, card.ID, brand.ID, startDate, endDate)
	if err != nil {
		return "", err
	}
	if nullPending.Valid {
		metrics.RecordSkipped(string(kind), string(OutcomeAlreadyPending))
		return OutcomeAlreadyPending, nil
	}

	nullCampaign, err := m.campaignRepo.FindCampaign(ctx, card.ID, brand.ID, startDate, endDate)
	if err != nil {
		return "", err
	}

	change := model.PendingCampaign{
		CardID:      card.ID,
		BrandID:     brand.ID,
		BenefitRate: model.RoundRate(c.BenefitRate),
		BenefitType: strings.TrimSpace(c.BenefitType),
		Description: nullString(c.Description.String),
		TermsURL:    nullString(c.TermsURL.String),
		StartDate:   startDate,
		EndDate:     endDate,
		SourceURL:   nullString(c.SourceURL.String),
		ChangeType:  model.ChangeTypeNew,
		Status:      model.PendingStatusPending,
		ScrapedAt:   m.now(),
	}

	if nullCampaign.Valid {
		existing := nullCampaign.Campaign
		old := existing.Snapshot()
		change.Description = mergedDescription(c.Description, old.Description)
		change.TermsURL = mergedDescription(c.TermsURL, old.TermsURL)
		if !campaignChanged(old, change) {
			metrics.RecordSkipped(string(kind), string(OutcomeUnchanged))
			return OutcomeUnchanged, nil
		}
		change.ChangeType = model.ChangeTypeUpdate
		change.ExistingCampaignID = sql.NullInt64{Valid: true, Int64: existing.ID}
		change.OldValues = model.NewCampaignSnapshot(old)
	}

	id, err := m.pendingRepo.InsertPendingCampaign(ctx, change)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		metrics.RecordSkipped(string(kind), string(OutcomeAlreadyPending))
		return OutcomeAlreadyPending, nil
	}
	if err != nil {
		return "", err
	}

	otellib.Extract(ctx).Info("staged campaign",
		zap.Int64("id", id),
		zap.String("change_type", string(change.ChangeType)),
		zap.String("card_name", card.Name),
		zap.String("brand_name", brand.Name),
		zap.Time("start_date", startDate),
		zap.Time("end_date", endDate),
	)
	metrics.RecordStaged(string(kind), string(change.ChangeType))
	return OutcomeStaged, nil
}

//------------------------------------------------
// Unresolved cards and brands
//------------------------------------------------

// resolveTargets returns a non-empty outcome when the candidate must wait for a card or brand
func (m *Manager) resolveTargets(
	ctx context.Context, kind model.PendingKind, bank model.Bank,
	cardName string, brandName string, sourceURL sql.NullString,
) (model.Card, model.Brand, Outcome, error) {
	nullCard, err := m.resolver.FindCard(ctx, cardName, bank.Code)
	if err != nil {
		return model.Card{}, model.Brand{}, "", err
	}
	if !nullCard.Valid {
		outcome, err := m.stageCard(ctx, bank, cardName, sourceURL)
		if err == nil {
			metrics.RecordSkipped(string(kind), "card_unresolved")
		}
		return model.Card{}, model.Brand{}, outcome, err
	}

	nullBrand, err := m.resolver.FindBrand(ctx, brandName)
	if err != nil {
		return model.Card{}, model.Brand{}, "", err
	}
	if !nullBrand.Valid {
		outcome, err := m.stageBrand(ctx, bank, brandName, cardName, sourceURL)
		if err == nil {
			metrics.RecordSkipped(string(kind), "brand_unresolved")
		}
		return model.Card{}, model.Brand{}, outcome, err
	}

	return nullCard.Card, nullBrand.Brand, "", nil
}

func inferCardType(name string) model.CardType {
	if strings.Contains(strings.ToLower(name), "debit") {
		return model.CardTypeDebit
	}
	return model.CardTypeCredit
}

func inferNetwork(name string) sql.NullString {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "visa"):
		return nullString("visa")
	case strings.Contains(lower, "mastercard"), strings.Contains(lower, "master card"):
		return nullString("mastercard")
	case strings.Contains(lower, "rupay"):
		return nullString("rupay")
	case strings.Contains(lower, "amex"), strings.Contains(lower, "american express"):
		return nullString("amex")
	}
	return sql.NullString{}
}

func (m *Manager) stageCard(ctx context.Context, bank model.Bank, rawName string, sourceURL sql.NullString) (Outcome, error) {
	name := cleanName(rawName)
	canonical := normalize.CanonicalKey(normalize.NormalizeCardName(name))
	logger := otellib.Extract(ctx).With(zap.String("bank", bank.Code), zap.String("card_name", name))

	cards, err := m.catalogRepo.ListCards(ctx)
	if err != nil {
		return "", err
	}
	for _, card := range cards {
		if card.BankID == bank.ID && normalize.CanonicalKey(normalize.NormalizeCardName(card.Name)) == canonical {
			logger.Debug("card already exists", zap.Int64("card_id", card.ID))
			return OutcomeUnresolved, nil
		}
	}

	nullPending, err := m.pendingRepo.FindPendingCard(ctx, bank.ID, canonical)
	if err != nil {
		return "", err
	}
	if nullPending.Valid {
		return OutcomeAlreadyPending, nil
	}

	change := model.PendingCardChange{
		BankID:        bank.ID,
		Name:          name,
		CanonicalName: canonical,
		CardType:      inferCardType(name),
		CardNetwork:   inferNetwork(name),
		SourceURL:     nullString(sourceURL.String),
		SourceBank:    nullString(bank.Code),
		ChangeType:    model.ChangeTypeNew,
		Status:        model.PendingStatusPending,
		ScrapedAt:     m.now(),
	}
	id, err := m.pendingRepo.InsertPendingCard(ctx, change)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return OutcomeAlreadyPending, nil
	}
	if err != nil {
		return "", err
	}

	logger.Info("staged pending card", zap.Int64("id", id))
	metrics.RecordStaged(string(model.PendingKindCard), string(model.ChangeTypeNew))
	return OutcomeCardStaged, nil
}

// brandKeywords returns the known keywords of a brand, else its lowercased name
func (m *Manager) brandKeywords(name string) []string {
	key := normalize.CanonicalKey(name)
	if list, ok := m.keywords[key]; ok && len(list) > 0 {
		return append([]string(nil), list...)
	}
	return []string{key}
}

func (m *Manager) stageBrand(
	ctx context.Context, bank model.Bank, rawName string, cardName string, sourceURL sql.NullString,
) (Outcome, error) {
	name := cleanName(rawName)
	code := normalize.BrandCode(name)
	logger := otellib.Extract(ctx).With(zap.String("bank", bank.Code), zap.String("brand_name", name))

	nullBrand, err := m.catalogRepo.GetBrandByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if nullBrand.Valid {
		logger.Debug("brand code already exists", zap.String("code", code))
		return OutcomeUnresolved, nil
	}

	nullPending, err := m.pendingRepo.FindPendingBrand(ctx, code)
	if err != nil {
		return "", err
	}
	if nullPending.Valid {
		return OutcomeAlreadyPending, nil
	}

	change := model.PendingBrandChange{
		Name:        name,
		Code:        code,
		Description: nullString(fmt.Sprintf("Auto-discovered from %s scraping", cleanName(cardName))),
		Keywords:    m.brandKeywords(name),
		SourceURL:   nullString(sourceURL.String),
		SourceBank:  nullString(bank.Code),
		ChangeType:  model.ChangeTypeNew,
		Status:      model.PendingStatusPending,
		ScrapedAt:   m.now(),
	}
	id, err := m.pendingRepo.InsertPendingBrand(ctx, change)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return OutcomeAlreadyPending, nil
	}
	if err != nil {
		return "", err
	}

	logger.Info("staged pending brand", zap.Int64("id", id), zap.String("code", code))
	metrics.RecordStaged(string(model.PendingKindBrand), string(model.ChangeTypeNew))
	return OutcomeBrandStaged, nil
}
