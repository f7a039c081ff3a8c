// Command csvmap runs the import engine on a local file: it parses the
// CSV, proposes a column mapping and prints the records that would be
// imported. It never touches a database.
package main

import (
	"fmt"
	"os"

	_ "github.com/JonMunkholm/detailflow/internal/core/kinds" // register import kinds
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "csvmap",
		Short:         "Preview how a CSV file maps onto an import kind",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMapCmd(), newKindsCmd())
	return root
}
