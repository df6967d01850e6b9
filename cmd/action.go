package main

import (
	"github.com/spf13/cobra"
)

var (
	actionIssue   string
	actionProduct string
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Infer the corrective action for a described issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := initPipeline()
		if err != nil {
			return err
		}

		res, err := p.InferAction(cmd.Context(), actionIssue, actionProduct)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	actionCmd.Flags().StringVar(&actionIssue, "issue", "", "issue description (required)")
	actionCmd.Flags().StringVar(&actionProduct, "product", "", "product or context, if known")
	_ = actionCmd.MarkFlagRequired("issue")
	rootCmd.AddCommand(actionCmd)
}
