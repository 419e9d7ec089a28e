package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ignite/list-subscriptions/internal/domain"
)

func newListsCommand(opts *rootOptions) *cobra.Command {
	var email, output string

	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show every list and the action available to an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.loadService()
			if err != nil {
				return err
			}
			views, err := svc.ListStatuses(cmd.Context(), email)
			if err != nil {
				return err
			}
			return printViews(cmd.OutOrStdout(), views, output)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address to check")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func printViews(w io.Writer, views []domain.SubscriptionView, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tACTION")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Name, v.Action)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}
