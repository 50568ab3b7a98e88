package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm [name]",
		Short: "Delete a character",
		Long:  "Delete a character by exact name, together with its images in the Drive folder. Requires --yes.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRm,
	}

	cmd.Flags().BoolP("yes", "y", false, "Confirm the deletion (required)")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	name := strings.Join(args, " ")

	svc, records := openService(cmd)
	defer records.Close()

	pending, err := svc.PrepareDelete(cmd.Context(), name)
	if err != nil {
		exitErr("rm", err)
	}
	if !yes {
		fmt.Fprintf(cmd.OutOrStdout(), `{"ok":false,"name":%q,"row":%d,"images":%d,"hint":"pass --yes to delete"}`+"\n",
			pending.Character.Name, pending.Character.Ordinal, len(pending.ImageIDs))
		return
	}
	if err := svc.CommitDelete(cmd.Context(), pending); err != nil {
		exitErr("rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"name":%q}`+"\n", pending.Character.Name)
}
