package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/service/approval"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultReviewer = "admin"

func parseKind(s string) (model.PendingKind, error) {
	for _, k := range model.PendingKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q, expected one of %v", s, model.PendingKinds)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func parseKindAndID(args []string) (model.PendingKind, int64, error) {
	kind, err := parseKind(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := parseID(args[1])
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

func pendingCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "review staged changes, kind is one of benefit, card, brand, campaign",
	}
	cmd.AddCommand(
		pendingListCommand(flags),
		pendingGetCommand(flags),
		pendingApproveCommand(flags),
		pendingRejectCommand(flags),
		pendingBulkApproveCommand(flags),
		pendingUpdateCommand(flags),
		pendingDeleteCommand(flags),
	)
	return cmd
}

func pendingListCommand(flags *rootFlags) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "list pending rows of a kind, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			ctx := a.context(cmd)
			filter := model.PendingStatus(status)

			var result interface{}
			switch kind {
			case model.PendingKindBenefit:
				result, err = a.workflow.ListBenefitChanges(ctx, filter)
			case model.PendingKindCard:
				result, err = a.workflow.ListCardChanges(ctx, filter)
			case model.PendingKindBrand:
				result, err = a.workflow.ListBrandChanges(ctx, filter)
			case model.PendingKindCampaign:
				result, err = a.workflow.ListCampaigns(ctx, filter)
			}
			if err != nil {
				return err
			}
			return printYAML(result)
		}),
	}
	cmd.Flags().StringVar(&status, "status", string(model.PendingStatusPending),
		"pending, approved or rejected, empty for every status")
	return cmd
}

func pendingGetCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "show one pending row",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			kind, id, err := parseKindAndID(args)
			if err != nil {
				return err
			}
			ctx := a.context(cmd)

			var result interface{}
			switch kind {
			case model.PendingKindBenefit:
				result, err = a.workflow.GetBenefitChange(ctx, id)
			case model.PendingKindCard:
				result, err = a.workflow.GetCardChange(ctx, id)
			case model.PendingKindBrand:
				result, err = a.workflow.GetBrandChange(ctx, id)
			case model.PendingKindCampaign:
				result, err = a.workflow.GetCampaign(ctx, id)
			}
			if err != nil {
				return err
			}
			return printYAML(result)
		}),
	}
}

func pendingApproveCommand(flags *rootFlags) *cobra.Command {
	var reviewer string

	cmd := &cobra.Command{
		Use:   "approve <kind> <id>",
		Short: "apply a pending row to production",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			kind, id, err := parseKindAndID(args)
			if err != nil {
				return err
			}
			if err := a.workflow.Approve(a.context(cmd), kind, id, reviewer); err != nil {
				return err
			}
			fmt.Printf("approved %s %d\n", kind, id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&reviewer, "reviewer", defaultReviewer, "recorded as reviewed_by")
	return cmd
}

func pendingRejectCommand(flags *rootFlags) *cobra.Command {
	var reviewer string

	cmd := &cobra.Command{
		Use:   "reject <kind> <id>",
		Short: "discard a pending row",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			kind, id, err := parseKindAndID(args)
			if err != nil {
				return err
			}
			if err := a.workflow.Reject(a.context(cmd), kind, id, reviewer); err != nil {
				return err
			}
			fmt.Printf("rejected %s %d\n", kind, id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&reviewer, "reviewer", defaultReviewer, "recorded as reviewed_by")
	return cmd
}

func pendingBulkApproveCommand(flags *rootFlags) *cobra.Command {
	var reviewer string

	cmd := &cobra.Command{
		Use:   "bulk-approve <kind> <id>...",
		Short: "approve several pending rows, a failing id does not stop the others",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(args)-1)
			for _, s := range args[1:] {
				id, err := parseID(s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			result := a.workflow.BulkApprove(a.context(cmd), kind, ids, reviewer)
			return printYAML(result)
		}),
	}
	cmd.Flags().StringVar(&reviewer, "reviewer", defaultReviewer, "recorded as reviewed_by")
	return cmd
}

func pendingDeleteCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "remove a pending row without reviewing it",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			kind, id, err := parseKindAndID(args)
			if err != nil {
				return err
			}
			if err := a.workflow.DeletePending(a.context(cmd), kind, id); err != nil {
				return err
			}
			fmt.Printf("deleted %s %d\n", kind, id)
			return nil
		}),
	}
}

//------------------------------------------------
// Update
//------------------------------------------------

type updateFlags struct {
	rate        string
	benefitType string
	description string
	termsURL    string
	startDate   string
	endDate     string

	name           string
	code           string
	cardType       string
	network        string
	annualFee      string
	rewardType     string
	baseRewardRate string
	keywords       []string
}

func (f *updateFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.rate, "rate", "", "benefit rate (benefit, campaign)")
	fs.StringVar(&f.benefitType, "type", "", "benefit type (benefit, campaign)")
	fs.StringVar(&f.description, "description", "", "description (benefit, brand, campaign)")
	fs.StringVar(&f.termsURL, "terms-url", "", "terms url (campaign)")
	fs.StringVar(&f.startDate, "start", "", "start date YYYY-MM-DD (campaign)")
	fs.StringVar(&f.endDate, "end", "", "end date YYYY-MM-DD (campaign)")

	fs.StringVar(&f.name, "name", "", "name (card, brand)")
	fs.StringVar(&f.code, "code", "", "brand code (brand)")
	fs.StringVar(&f.cardType, "card-type", "", "credit or debit (card)")
	fs.StringVar(&f.network, "network", "", "card network (card)")
	fs.StringVar(&f.annualFee, "annual-fee", "", "annual fee (card)")
	fs.StringVar(&f.rewardType, "reward-type", "", "reward type (card)")
	fs.StringVar(&f.baseRewardRate, "base-rate", "", "base reward rate (card)")
	fs.StringSliceVar(&f.keywords, "keywords", nil, "keywords added to the brand (brand)")
}

// stringFlag returns nil when the flag was not given, so that an empty value still clears the field
func stringFlag(fs *pflag.FlagSet, name string, value string) *string {
	if !fs.Changed(name) {
		return nil
	}
	return &value
}

func decimalFlag(fs *pflag.FlagSet, name string, value string) (*decimal.Decimal, error) {
	if !fs.Changed(name) {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

func dateFlag(fs *pflag.FlagSet, name string, value string) (*time.Time, error) {
	if !fs.Changed(name) {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func (f *updateFlags) benefitPatch(fs *pflag.FlagSet) (approval.BenefitPatch, error) {
	rate, err := decimalFlag(fs, "rate", f.rate)
	if err != nil {
		return approval.BenefitPatch{}, err
	}
	return approval.BenefitPatch{
		BenefitRate: rate,
		BenefitType: stringFlag(fs, "type", f.benefitType),
		Description: stringFlag(fs, "description", f.description),
	}, nil
}

func (f *updateFlags) cardPatch(fs *pflag.FlagSet) (approval.CardPatch, error) {
	fee, err := decimalFlag(fs, "annual-fee", f.annualFee)
	if err != nil {
		return approval.CardPatch{}, err
	}
	baseRate, err := decimalFlag(fs, "base-rate", f.baseRewardRate)
	if err != nil {
		return approval.CardPatch{}, err
	}

	patch := approval.CardPatch{
		Name:           stringFlag(fs, "name", f.name),
		CardNetwork:    stringFlag(fs, "network", f.network),
		AnnualFee:      fee,
		RewardType:     stringFlag(fs, "reward-type", f.rewardType),
		BaseRewardRate: baseRate,
	}
	if fs.Changed("card-type") {
		cardType := model.CardType(f.cardType)
		patch.CardType = &cardType
	}
	return patch, nil
}

func (f *updateFlags) brandPatch(fs *pflag.FlagSet) approval.BrandPatch {
	return approval.BrandPatch{
		Name:        stringFlag(fs, "name", f.name),
		Code:        stringFlag(fs, "code", f.code),
		Description: stringFlag(fs, "description", f.description),
		Keywords:    f.keywords,
	}
}

func (f *updateFlags) campaignPatch(fs *pflag.FlagSet) (approval.CampaignPatch, error) {
	rate, err := decimalFlag(fs, "rate", f.rate)
	if err != nil {
		return approval.CampaignPatch{}, err
	}
	start, err := dateFlag(fs, "start", f.startDate)
	if err != nil {
		return approval.CampaignPatch{}, err
	}
	end, err := dateFlag(fs, "end", f.endDate)
	if err != nil {
		return approval.CampaignPatch{}, err
	}
	return approval.CampaignPatch{
		BenefitRate: rate,
		BenefitType: stringFlag(fs, "type", f.benefitType),
		Description: stringFlag(fs, "description", f.description),
		TermsURL:    stringFlag(fs, "terms-url", f.termsURL),
		StartDate:   start,
		EndDate:     end,
	}, nil
}

func pendingUpdateCommand(flags *rootFlags) *cobra.Command {
	f := &updateFlags{}

	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "edit a pending row before approving it, only the given flags change",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			kind, id, err := parseKindAndID(args)
			if err != nil {
				return err
			}
			ctx := a.context(cmd)
			fs := cmd.Flags()

			var result interface{}
			switch kind {
			case model.PendingKindBenefit:
				patch, err := f.benefitPatch(fs)
				if err != nil {
					return err
				}
				result, err = a.workflow.UpdateBenefitChange(ctx, id, patch)
				if err != nil {
					return err
				}

			case model.PendingKindCard:
				patch, err := f.cardPatch(fs)
				if err != nil {
					return err
				}
				result, err = a.workflow.UpdateCardChange(ctx, id, patch)
				if err != nil {
					return err
				}

			case model.PendingKindBrand:
				result, err = a.workflow.UpdateBrandChange(ctx, id, f.brandPatch(fs))
				if err != nil {
					return err
				}

			case model.PendingKindCampaign:
				patch, err := f.campaignPatch(fs)
				if err != nil {
					return err
				}
				result, err = a.workflow.UpdateCampaign(ctx, id, patch)
				if err != nil {
					return err
				}
			}
			return printYAML(result)
		}),
	}
	f.register(cmd.Flags())
	return cmd
}
