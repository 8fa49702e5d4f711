package commands

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phonepilot/advisor-engine/cmd/advisor-cli/ui"
	"github.com/phonepilot/advisor-engine/internal/convo"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Hold an interactive conversation with the phone advisor",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui.Init(noColor)

	r, err := newServiceRuntime(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	ui.Info("Phone advisor ready. Ask about the catalog; type 'exit' to quit.")
	ui.Newline()

	var history convo.History
	scanner := bufio.NewScanner(os.Stdin)
	for {
		ui.Prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		stream, err := r.svc.HandleUserQuery(ctx, line, history)
		if err != nil {
			ui.Error("%v", err)
			continue
		}

		sp := ui.NewSpinner("thinking...")
		sp.Start()
		var reply strings.Builder
		first := true
		for chunk := range stream.Chunks() {
			if first {
				sp.Stop()
				ui.AdvisorLabel()
				first = false
			}
			ui.Chunk(chunk)
			reply.WriteString(chunk)
		}
		if first {
			sp.Stop()
		}
		ui.Newline()
		ui.Newline()

		if err := stream.Err(); err != nil {
			r.log.Warn().Err(err).Msg("turn ended with an error")
		}

		history = history.Merge(convo.History{
			convo.NewMessage(convo.RoleUser, line),
			convo.NewMessage(convo.RoleAssistant, reply.String()),
		})
	}
	return scanner.Err()
}
