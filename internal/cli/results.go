package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/dilemmagame/internal/api/response"
)

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Browse archived match results",
	}

	cmd.AddCommand(newResultsListCmd())
	cmd.AddCommand(newResultsGetCmd())

	return cmd
}

func newResultsListCmd() *cobra.Command {
	var (
		room  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if room != "" {
				query.Set("room", room)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}

			path := "/api/v1/results"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var result response.ResultList
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&room, "room", "", "Only show results for this room")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (server default 20)")

	return cmd
}

func newResultsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <result-id>",
		Short: "Show one archived result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Result

			if err := client.Get(cmd.Context(), "/api/v1/results/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
