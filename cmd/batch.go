package main

import (
	"bufio"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hd-crm/support-triage/internal/model"
)

var (
	batchInput   string
	batchOutput  string
	batchNoBatch bool
)

// batchLine is one record of the JSONL input file.
type batchLine struct {
	Text string `json:"text"`
}

// batchOutcomeLine is one record of the JSONL output. Exactly one of Result
// and Error is set.
type batchOutcomeLine struct {
	Index  int                       `json:"index"`
	Result *model.ConsolidatedResult `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Triage many messages from a JSONL file",
	Long:  "Reads one JSON object per line ({\"text\": \"...\"}) and writes one consolidated record or error per line, in input order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		texts, err := readBatchInput(batchInput)
		if err != nil {
			return err
		}
		if len(texts) == 0 {
			zap.L().Info("no messages found in input")
			return nil
		}

		if batchNoBatch {
			cfg.Anthropic.NoBatch = true
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		zap.L().Info("processing batch",
			zap.Int("messages", len(texts)),
			zap.Bool("no_batch", cfg.Anthropic.NoBatch),
		)

		outcomes, err := p.ConsolidateAll(ctx, texts, cfg.Batch)
		if err != nil {
			return eris.Wrap(err, "batch run")
		}

		out := os.Stdout
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		var succeeded, failed int
		for _, oc := range outcomes {
			line := batchOutcomeLine{Index: oc.Index, Result: oc.Result}
			if oc.Err != nil {
				line.Error = oc.Err.Error()
				failed++
			} else {
				succeeded++
			}
			if err := enc.Encode(line); err != nil {
				return eris.Wrap(err, "write output line")
			}
		}

		zap.L().Info("batch complete",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "JSONL file with one message object per line (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output JSONL file (default stdout)")
	batchCmd.Flags().BoolVar(&batchNoBatch, "no-batch", false, "force direct API calls instead of the Batch API")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// readBatchInput parses the JSONL input, skipping blank lines. A line that
// is not valid JSON or has empty text is an error: silently dropping
// messages would desync output indices from the input file.
func readBatchInput(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open input file")
	}
	defer f.Close()

	var texts []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec batchLine
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, eris.Wrapf(err, "input line %d", lineNo)
		}
		if strings.TrimSpace(rec.Text) == "" {
			return nil, eris.Errorf("input line %d: empty text", lineNo)
		}
		texts = append(texts, rec.Text)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "read input file")
	}
	return texts, nil
}
