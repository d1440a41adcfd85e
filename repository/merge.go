package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
)

// Merge moves every reference of one card onto another
type Merge interface {
	// RepointCard must run inside a transaction holding locks on both cards.
	// Rows of fromID that would collide with rows of toID are deactivated (benefits)
	// or closed with review (pending rows) before being moved. The fromID card is deleted.
	RepointCard(ctx context.Context, fromID int64, toID int64, review model.Review) (RepointResult, error)
}

type mergeImpl struct {
}

// NewMerge ...
func NewMerge() Merge {
	return &mergeImpl{}
}

type mergeStep struct {
	what  string
	query string
	args  func(fromID, toID int64, review model.Review) []interface{}
	count func(r *RepointResult) *int64
}

func moveArgs(fromID, toID int64, _ model.Review) []interface{} {
	return []interface{}{toID, fromID}
}

func conflictArgs(fromID, toID int64, review model.Review) []interface{} {
	return []interface{}{toID, review.ReviewedAt, review.ReviewedBy, fromID}
}

var mergeSteps = []mergeStep{
	{
		what: "deactivate colliding benefits",
		query: `
UPDATE card_ecosystem_benefits d
JOIN card_ecosystem_benefits k
	ON k.card_id = ? AND k.brand_id = d.brand_id AND k.is_active = TRUE
SET d.is_active = FALSE
WHERE d.card_id = ? AND d.is_active = TRUE`,
		args: func(fromID, toID int64, _ model.Review) []interface{} {
			return []interface{}{toID, fromID}
		},
		count: func(r *RepointResult) *int64 { return &r.BenefitsDeactivated },
	},
	{
		what: "reject colliding pending benefits",
		query: `
UPDATE pending_ecosystem_changes d
JOIN pending_ecosystem_changes k
	ON k.card_id = ? AND k.brand_id = d.brand_id AND k.status = 'pending'
SET d.status = 'rejected', d.reviewed_at = ?, d.reviewed_by = ?
WHERE d.card_id = ? AND d.status = 'pending'`,
		args:  conflictArgs,
		count: func(r *RepointResult) *int64 { return &r.PendingRejected },
	},
	{
		what: "reject colliding pending campaigns",
		query: `
UPDATE pending_campaigns d
JOIN pending_campaigns k
	ON k.card_id = ? AND k.brand_id = d.brand_id
	AND k.start_date = d.start_date AND k.end_date = d.end_date
	AND k.status = 'pending'
SET d.status = 'rejected', d.reviewed_at = ?, d.reviewed_by = ?
WHERE d.card_id = ? AND d.status = 'pending'`,
		args:  conflictArgs,
		count: func(r *RepointResult) *int64 { return &r.PendingRejected },
	},
	{
		what:  "move benefits",
		query: `UPDATE card_ecosystem_benefits SET card_id = ? WHERE card_id = ?`,
		args:  moveArgs,
		count: func(r *RepointResult) *int64 { return &r.BenefitsMoved },
	},
	{
		what:  "move campaigns",
		query: `UPDATE campaigns SET card_id = ? WHERE card_id = ?`,
		args:  moveArgs,
		count: func(r *RepointResult) *int64 { return &r.CampaignsMoved },
	},
	{
		what:  "move pending benefits",
		query: `UPDATE pending_ecosystem_changes SET card_id = ? WHERE card_id = ?`,
		args:  moveArgs,
		count: func(r *RepointResult) *int64 { return &r.PendingBenefitsMoved },
	},
	{
		what:  "move pending campaigns",
		query: `UPDATE pending_campaigns SET card_id = ? WHERE card_id = ?`,
		args:  moveArgs,
		count: func(r *RepointResult) *int64 { return &r.PendingCampaignsMoved },
	},
	{
		what:  "move pending card changes",
		query: `UPDATE pending_card_changes SET existing_card_id = ? WHERE existing_card_id = ?`,
		args:  moveArgs,
		count: func(r *RepointResult) *int64 { return &r.PendingCardsMoved },
	},
}

// RepointCard ...
func (m *mergeImpl) RepointCard(
	ctx context.Context, fromID int64, toID int64, review model.Review,
) (RepointResult, error) {
	var result RepointResult
	for _, step := range mergeSteps {
		n, err := exec(ctx, step.what, step.query, step.args(fromID, toID, review)...)
		if err != nil {
			return RepointResult{}, err
		}
		*step.count(&result) += n
	}

	_, err := exec(ctx, "delete merged card", `DELETE FROM cards WHERE id = ?`, fromID)
	if err != nil {
		return RepointResult{}, err
	}
	return result, nil
}
