package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/charabot/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import characters from JSON",
		Long:  "Import characters from JSON on stdin, in the format produced by export. Existing names are skipped; image links are copied as is.",
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var chars []model.Character
	if err := json.Unmarshal(data, &chars); err != nil {
		exitErr("parse json", err)
	}

	svc, records := openService(cmd)
	defer records.Close()

	imported, err := svc.Import(cmd.Context(), chars)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d,"skipped":%d}`+"\n", imported, len(chars)-imported)
}
