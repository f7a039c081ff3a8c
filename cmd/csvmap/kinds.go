package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/detailflow/internal/core"
	"github.com/spf13/cobra"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List import kinds and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tLABEL\tFIELDS")
			for _, def := range core.All() {
				keys := make([]string, len(def.Fields))
				for i, f := range def.Fields {
					keys[i] = f.Key
					if f.Required {
						keys[i] += "*"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Info.Key, def.Info.Label, strings.Join(keys, ", "))
			}
			return tw.Flush()
		},
	}
}
