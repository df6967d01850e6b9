package main

import (
	"github.com/spf13/cobra"
)

var triageFile string

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Run a single branch extraction directly, skipping classification",
}

var triageQuoteCmd = &cobra.Command{
	Use:   "quote [message]",
	Short: "Extract quote readiness and per-product quantities",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readMessage(triageFile, args)
		if err != nil {
			return err
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		res, err := p.TriageQuote(cmd.Context(), text)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var triageAftersalesCmd = &cobra.Command{
	Use:   "aftersales [message]",
	Short: "Extract aftersales readiness and the customer's issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readMessage(triageFile, args)
		if err != nil {
			return err
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		res, err := p.TriageAftersales(cmd.Context(), text)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	triageCmd.PersistentFlags().StringVar(&triageFile, "file", "", "read the message from a file instead of args/stdin")
	triageCmd.AddCommand(triageQuoteCmd)
	triageCmd.AddCommand(triageAftersalesCmd)
	rootCmd.AddCommand(triageCmd)
}
