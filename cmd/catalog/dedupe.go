package main

import (
	"github.com/spf13/cobra"
)

func duplicatesCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "list groups of cards that share a bank and canonical name",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, _ []string, a *app) error {
			groups, err := a.detector.FindDuplicates(a.context(cmd))
			if err != nil {
				return err
			}
			return printYAML(groups)
		}),
	}
}

func mergeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <keep id> <duplicate id>...",
		Short: "move every reference of the duplicate cards to the kept card and delete the duplicates",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			keepID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var dupIDs []int64
			for _, s := range args[1:] {
				id, err := parseID(s)
				if err != nil {
					return err
				}
				dupIDs = append(dupIDs, id)
			}

			result, err := a.detector.Merge(a.context(cmd), keepID, dupIDs)
			if err != nil {
				return err
			}
			return printYAML(result)
		}),
	}
}

func autoDedupeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "auto-dedupe",
		Short: "merge every duplicate group into its shortest-named card",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, _ []string, a *app) error {
			result, err := a.detector.AutoDedupe(a.context(cmd))
			if err != nil {
				return err
			}
			return printYAML(result)
		}),
	}
}
