package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List characters",
		Run:   runList,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max results (0 for all)")
	cmd.Flags().Bool("names-only", false, "Only output names")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	namesOnly, _ := cmd.Flags().GetBool("names-only")

	svc, records := openService(cmd)
	defer records.Close()

	all, err := svc.List(cmd.Context())
	if err != nil {
		exitErr("list", err)
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	if namesOnly || formatFlag == "text" {
		for _, c := range all {
			fmt.Println(c.Name)
		}
		return
	}
	printJSON(all)
}
