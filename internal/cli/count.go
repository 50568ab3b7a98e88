package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Show the number of registered characters",
		Run:   runCount,
	}

	RootCmd.AddCommand(cmd)
}

func runCount(cmd *cobra.Command, args []string) {
	svc, records := openService(cmd)
	defer records.Close()

	n, err := svc.Count(cmd.Context())
	if err != nil {
		exitErr("count", err)
	}
	if formatFlag == "text" {
		fmt.Println(n)
		return
	}
	fmt.Printf(`{"count":%d}`+"\n", n)
}
