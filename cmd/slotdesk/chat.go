package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
	"github.com/hrygo/slotdesk/server"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the booking assistant from the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}
		slog.SetDefault(newLogger(instanceProfile.Mode, os.Stderr))

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		cal, err := server.NewCalendar(ctx, instanceProfile, storeInstance)
		if err != nil {
			return err
		}
		return runChat(ctx, server.NewOrchestrator(instanceProfile, cal), os.Stdin, cmd.OutOrStdout())
	},
}

// runChat reads one utterance per line and prints each reply.
// The session lives in memory for the whole run.
func runChat(ctx context.Context, turns interface {
	HandleTurn(ctx context.Context, utterance string, prior *agent.SessionState) agent.TurnResult
}, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Type a request such as \"book Friday at 2pm\". Ctrl-D to quit.")
	state := agent.NewSessionState()
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result := turns.HandleTurn(ctx, line, state)
		state = result.Session
		fmt.Fprintln(out, result.Response)
	}
}
