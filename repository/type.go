package repository

// RepointResult counts the rows touched while moving a duplicate card onto the kept card
type RepointResult struct {
	BenefitsMoved         int64
	BenefitsDeactivated   int64
	CampaignsMoved        int64
	PendingBenefitsMoved  int64
	PendingCampaignsMoved int64
	PendingCardsMoved     int64
	PendingRejected       int64
}

// Add ...
func (r RepointResult) Add(other RepointResult) RepointResult {
	return RepointResult{
		BenefitsMoved:         r.BenefitsMoved + other.BenefitsMoved,
		BenefitsDeactivated:   r.BenefitsDeactivated + other.BenefitsDeactivated,
		CampaignsMoved:        r.CampaignsMoved + other.CampaignsMoved,
		PendingBenefitsMoved:  r.PendingBenefitsMoved + other.PendingBenefitsMoved,
		PendingCampaignsMoved: r.PendingCampaignsMoved + other.PendingCampaignsMoved,
		PendingCardsMoved:     r.PendingCardsMoved + other.PendingCardsMoved,
		PendingRejected:       r.PendingRejected + other.PendingRejected,
	}
}
