package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [name]",
		Short: "Search characters by name",
		Long:  "Search the way the bot does: a normalized exact match first, otherwise every name containing the query (at most 25).",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	svc, records := openService(cmd)
	defer records.Close()

	res, err := svc.Search(cmd.Context(), query)
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "text" {
		for _, c := range res.Matches {
			fmt.Printf("%d\t%s\t%s\n", c.Ordinal, c.Name, c.Description)
		}
		if res.Total > len(res.Matches) {
			fmt.Printf("... %d more\n", res.Total-len(res.Matches))
		}
		return
	}
	printJSON(res)
}
