package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random character",
		Run:   runRandom,
	}

	RootCmd.AddCommand(cmd)
}

func runRandom(cmd *cobra.Command, args []string) {
	svc, records := openService(cmd)
	defer records.Close()

	c, err := svc.Random(cmd.Context())
	if err != nil {
		exitErr("random", err)
	}
	if formatFlag == "text" {
		fmt.Println(c.Name)
		return
	}
	printJSON(c)
}
