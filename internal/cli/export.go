package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export characters as JSON",
		Long:  "Export every character as a JSON array, in sheet order. The output can be fed to import.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	svc, records := openService(cmd)
	defer records.Close()

	all, err := svc.List(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	printJSON(all)
}
