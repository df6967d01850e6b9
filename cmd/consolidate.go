package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var consolidateFile string

var consolidateCmd = &cobra.Command{
	Use:   "consolidate [message]",
	Short: "Run the full pipeline for one message",
	Long:  "Classifies the message, runs the branch extraction its label routes to, and prints the consolidated triage record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		text, err := readMessage(consolidateFile, args)
		if err != nil {
			return err
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		res, err := p.Consolidate(ctx, text)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	consolidateCmd.Flags().StringVar(&consolidateFile, "file", "", "read the message from a file instead of args/stdin")
	rootCmd.AddCommand(consolidateCmd)
}
