package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSubscribeCommand(opts *rootOptions) *cobra.Command {
	var email, listID string

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe an address to a list, creating the member if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.loadService()
			if err != nil {
				return err
			}
			if err := svc.Subscribe(cmd.Context(), email, listID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subscribed to %s\n", listID)
			return nil
		},
	}

	addMemberFlags(cmd, &email, &listID)
	return cmd
}

func newUnsubscribeCommand(opts *rootOptions) *cobra.Command {
	var email, listID string

	cmd := &cobra.Command{
		Use:   "unsubscribe",
		Short: "Unsubscribe an address from a list",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.loadService()
			if err != nil {
				return err
			}
			if err := svc.Unsubscribe(cmd.Context(), email, listID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unsubscribed from %s\n", listID)
			return nil
		},
	}

	addMemberFlags(cmd, &email, &listID)
	return cmd
}

func addMemberFlags(cmd *cobra.Command, email, listID *string) {
	cmd.Flags().StringVar(email, "email", "", "Email address")
	cmd.Flags().StringVar(listID, "list", "", "List id")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("list")
}
