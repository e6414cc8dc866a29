package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <conversation-id>",
		Short: "Print the stored turns of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			turns, err := a.Target.History(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, turn := range turns {
				if _, err := fmt.Fprintf(out, "%s: %s\n", turn.Role, turn.Content); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
