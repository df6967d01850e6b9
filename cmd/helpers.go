package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hd-crm/support-triage/internal/triage"
	anthropicpkg "github.com/hd-crm/support-triage/pkg/anthropic"
)

// initPipeline builds the triage pipeline from the loaded configuration.
func initPipeline() (*triage.Pipeline, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is not set (TRIAGE_ANTHROPIC_KEY)")
	}
	ai := anthropicpkg.NewClient(cfg.Anthropic.Key)
	return triage.New(ai, cfg), nil
}

// readMessage resolves the message text for single-message commands: an
// explicit --file path wins, then a positional argument, then stdin.
func readMessage(path string, args []string) (string, error) {
	var text string
	switch {
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrap(err, "read message file")
		}
		text = string(b)
	case len(args) > 0:
		text = strings.Join(args, " ")
	default:
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", eris.Wrap(err, "read message from stdin")
		}
		text = string(b)
	}

	if strings.TrimSpace(text) == "" {
		return "", eris.New("message text is empty")
	}
	return text, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
