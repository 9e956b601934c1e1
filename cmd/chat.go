package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent from the terminal",
		Long: "chat reads one message per line and prints the agent's reply.\n" +
			"Type /model <name> to switch model, or exit to quit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sessionID == "" {
				sessionID = uuid.NewString()
			} else if _, err := uuid.Parse(sessionID); err != nil {
				return fmt.Errorf("--session must be a UUID: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := wireApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s\n", sessionID)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case strings.HasPrefix(line, "/model "):
					name := strings.TrimSpace(strings.TrimPrefix(line, "/model "))
					if err := a.orch.SelectModel(ctx, sessionID, name); err != nil {
						if errors.Is(err, contractx.ErrUnsupportedModel) {
							fmt.Fprintf(out, "model %q is not supported\n", name)
							continue
						}
						return err
					}
					fmt.Fprintf(out, "using %s\n", name)
					continue
				}

				reply, err := a.orch.HandleMessage(ctx, sessionID, line)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, reply)
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id to resume (UUID)")
	return cmd
}
