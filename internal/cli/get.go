package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [name]",
		Short: "Show one character by exact name",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	svc, records := openService(cmd)
	defer records.Close()

	c, err := svc.Get(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		exitErr("get", err)
	}
	printJSON(c)
}
