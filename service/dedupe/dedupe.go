// Package dedupe finds production cards that are the same card under different
// names and merges them into one.
package dedupe

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/coolviki/paywise/pkg/metrics"
	"github.com/coolviki/paywise/pkg/normalize"
	"github.com/coolviki/paywise/pkg/otellib"
	"github.com/coolviki/paywise/repository"
	"go.uber.org/zap"
)

// MergeReviewer closes pending rows that collide while merging
const MergeReviewer = "system:merge"

// Group is a set of cards sharing one dedup key, ordered by id
type Group struct {
	Key   string
	Cards []model.Card
}

// MergeResult ...
type MergeResult struct {
	KeptID   int64
	MergedID []int64
	Repoint  repository.RepointResult
}

// AutoResult ...
type AutoResult struct {
	GroupsProcessed int
	GroupsFailed    int
	CardsMerged     int
}

// Detector ...
type Detector struct {
	provider    repository.Provider
	catalogRepo repository.Catalog
	mergeRepo   repository.Merge

	now func() time.Time
}

// Option ...
type Option func(d *Detector)

// WithNow ...
func WithNow(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// NewDetector ...
func NewDetector(
	provider repository.Provider, catalogRepo repository.Catalog, mergeRepo repository.Merge,
	options ...Option,
) *Detector {
	d := &Detector{
		provider:    provider,
		catalogRepo: catalogRepo,
		mergeRepo:   mergeRepo,
		now:         time.Now,
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// FindDuplicates groups every card by bank code and canonical name, returning groups of more than one card
func (d *Detector) FindDuplicates(ctx context.Context) ([]Group, error) {
	ctx = d.provider.Readonly(ctx)

	banks, err := d.catalogRepo.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	cards, err := d.catalogRepo.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	return groupCards(banks, cards), nil
}

func groupCards(banks []model.Bank, cards []model.Card) []Group {
	bankCodes := make(map[int64]string, len(banks))
	for _, b := range banks {
		bankCodes[b.ID] = b.Code
	}

	byKey := map[string][]model.Card{}
	for _, c := range cards {
		key := normalize.DedupKey(bankCodes[c.BankID], c.Name)
		byKey[key] = append(byKey[key], c)
	}

	var groups []Group
	for key, list := range byKey {
		if len(list) < 2 {
			continue
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].ID < list[j].ID
		})
		groups = append(groups, Group{Key: key, Cards: list})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// pickKeep returns the card with the shortest name, the lowest id on ties
func pickKeep(cards []model.Card) model.Card {
	keep := cards[0]
	for _, c := range cards[1:] {
		n, k := utf8.RuneCountInString(strings.TrimSpace(c.Name)), utf8.RuneCountInString(strings.TrimSpace(keep.Name))
		if n < k || (n == k && c.ID < keep.ID) {
			keep = c
		}
	}
	return keep
}

// Merge re-points every reference of the duplicates to keepID and deletes them, all in one transaction.
// Cards are locked in ascending id order. A duplicate equal to keepID or already gone is skipped.
func (d *Detector) Merge(ctx context.Context, keepID int64, duplicateIDs []int64) (MergeResult, error) {
	ids := []int64{keepID}
	seen := map[int64]struct{}{keepID: {}}
	for _, id := range duplicateIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	review := model.Review{
		Status:     model.PendingStatusRejected,
		ReviewedAt: d.now(),
		ReviewedBy: MergeReviewer,
	}
	logger := otellib.Extract(ctx).With(zap.Int64("keep_id", keepID))

	result := MergeResult{KeptID: keepID}
	err := d.provider.Transact(ctx, func(ctx context.Context) error {
		result.MergedID = nil
		result.Repoint = repository.RepointResult{}

		exists := map[int64]bool{}
		for _, id := range ids {
			nullCard, err := d.catalogRepo.LockCard(ctx, id)
			if err != nil {
				return err
			}
			exists[id] = nullCard.Valid
		}
		if !exists[keepID] {
			return apperr.NewNotFoundError("card", keepID)
		}

		for _, id := range ids {
			if id == keepID {
				continue
			}
			if !exists[id] {
				logger.Warn("duplicate card is already gone", zap.Int64("id", id))
				continue
			}

			r, err := d.mergeRepo.RepointCard(ctx, id, keepID, review)
			if err != nil {
				return err
			}
			result.Repoint = result.Repoint.Add(r)
			result.MergedID = append(result.MergedID, id)
		}
		return nil
	})
	if err != nil {
		return MergeResult{}, err
	}

	logger.Info("merged duplicate cards",
		zap.Int64s("merged", result.MergedID),
		zap.Int64("benefits_moved", result.Repoint.BenefitsMoved),
		zap.Int64("benefits_deactivated", result.Repoint.BenefitsDeactivated),
		zap.Int64("pending_rejected", result.Repoint.PendingRejected),
	)
	metrics.RecordCardsMerged(len(result.MergedID))
	return result, nil
}

// AutoDedupe merges every duplicate group into its shortest-named card.
// Each group is merged in its own transaction, a failing group is logged and counted.
func (d *Detector) AutoDedupe(ctx context.Context) (AutoResult, error) {
	groups, err := d.FindDuplicates(ctx)
	if err != nil {
		return AutoResult{}, err
	}

	var result AutoResult
	for _, g := range groups {
		keep := pickKeep(g.Cards)
		var dups []int64
		for _, c := range g.Cards {
			if c.ID != keep.ID {
				dups = append(dups, c.ID)
			}
		}

		merged, err := d.Merge(ctx, keep.ID, dups)
		if err != nil {
			otellib.Extract(ctx).Error("auto dedupe group failed",
				zap.String("key", g.Key), zap.Int64("keep_id", keep.ID), zap.Error(err))
			result.GroupsFailed++
			continue
		}
		result.GroupsProcessed++
		result.CardsMerged += len(merged.MergedID)
	}
	return result, nil
}
