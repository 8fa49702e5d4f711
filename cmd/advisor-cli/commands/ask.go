package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/phonepilot/advisor-engine/cmd/advisor-cli/ui"
	"github.com/phonepilot/advisor-engine/internal/assistant"
	"github.com/phonepilot/advisor-engine/internal/convo"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question about the phone catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ui.Init(noColor)

	r, err := newServiceRuntime(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	question := strings.Join(args, " ")
	return streamAnswer(ctx, r.svc, question, nil)
}

// streamAnswer runs one turn and prints the response as it arrives, with a
// spinner covering the wait for the first chunk.
func streamAnswer(ctx context.Context, svc *assistant.Service, question string, history convo.History) error {
	stream, err := svc.HandleUserQuery(ctx, question, history)
	if err != nil {
		return err
	}

	sp := ui.NewSpinner("thinking...")
	sp.Start()
	first := true
	for chunk := range stream.Chunks() {
		if first {
			sp.Stop()
			ui.AdvisorLabel()
			first = false
		}
		ui.Chunk(chunk)
	}
	if first {
		sp.Stop()
	}
	ui.Newline()

	if err := stream.Err(); err != nil {
		ui.Error("generation ended with an error: %v", err)
	}
	return nil
}
