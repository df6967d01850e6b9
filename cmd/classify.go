package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var classifyFile string

var classifyCmd = &cobra.Command{
	Use:   "classify [message]",
	Short: "Assign a taxonomy label to one message",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readMessage(classifyFile, args)
		if err != nil {
			return err
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		res, err := p.Classify(cmd.Context(), text)
		if err != nil {
			return err
		}

		zap.L().Info("message classified",
			zap.String("label", string(res.Label)),
			zap.String("branch", string(res.Label.Branch())),
		)
		return printJSON(res)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyFile, "file", "", "read the message from a file instead of args/stdin")
	rootCmd.AddCommand(classifyCmd)
}
