package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"amlchat/internal/service"
)

func newSendCmd(root *rootOptions) *cobra.Command {
	var (
		conversationID string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "send [--conversation id] <prompt>",
		Short: "Send one prompt and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			id := strings.TrimSpace(conversationID)
			if id == "" {
				id = uuid.New().String()
			}
			req := service.PromptRequest{Pieces: []service.PromptRequestPiece{
				service.NewTextPiece(id, strings.Join(args, " ")),
			}}

			resp, err := a.Target.SendPrompt(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			if _, err := fmt.Fprintf(out, "[%s] %s\n", id, resp.Content()); err != nil {
				return err
			}
			if resp.IsError() {
				return fmt.Errorf("endpoint rejected the prompt")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Conversation to continue (default: a new one).")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON.")

	return cmd
}
