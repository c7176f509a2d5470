package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"intent-engine/internal/engine/resolver"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Hold a conversation with the engine",
	Long: `Chat reads one question per line and keeps the conversation context between
them, so follow-ups like "only the late ones" filter the previous answer. Data
intents need --fixture to produce rows. Type "exit" to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		comp, err := buildComponents(ctx)
		if err != nil {
			return err
		}
		defer comp.Close()

		return runChat(ctx, comp.Engine, cmd.InOrStdin(), cmd.OutOrStdout(), userID)
	},
}

func runChat(ctx context.Context, engine *resolver.Engine, in io.Reader, out io.Writer, user string) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit":
			return nil
		default:
			handleLine(ctx, engine, out, line, user)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}
