package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/detailflow/internal/core"
	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/spf13/cobra"
)

type mapOptions struct {
	kind    string
	out     string
	set     []string
	skip    []string
	maxSize int64
}

// mapReport is what `csvmap map` prints.
type mapReport struct {
	Kind     string                    `json:"kind"`
	Headers  []string                  `json:"headers"`
	Mappings []csvimport.ColumnMapping `json:"mappings"`
	Ready    bool                      `json:"ready"`
	Missing  []string                  `json:"missing"`
	Records  []csvimport.Record        `json:"records"`
}

func newMapCmd() *cobra.Command {
	var opts mapOptions

	cmd := &cobra.Command{
		Use:   "map FILE",
		Short: "Auto-map a CSV file and print the transformed records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			if opts.out != "" {
				w, err := os.Create(opts.out)
				if err != nil {
					return err
				}
				defer w.Close()
				out = w
			}
			return runMap(f, out, opts)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", "", "Import kind (see `csvmap kinds`)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Override a mapping, header=field (repeatable)")
	cmd.Flags().StringArrayVar(&opts.skip, "skip", nil, "Leave a column unmapped (repeatable)")
	cmd.Flags().Int64Var(&opts.maxSize, "max-size", 10<<20, "Reject files larger than this many bytes")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

// runMap writes the report to out. It returns csvimport.ErrNotReady after
// writing when a required field is still unmapped.
func runMap(r io.Reader, out io.Writer, opts mapOptions) error {
	def, ok := core.Get(opts.kind)
	if !ok {
		return fmt.Errorf("%w: %s (have %s)", core.ErrUnknownKind, opts.kind, strings.Join(core.Keys(), ", "))
	}

	text, err := csvimport.ReadText(r, opts.maxSize)
	if err != nil {
		return err
	}

	sess := csvimport.NewSession(def.Fields, def.Synonyms)
	if err := sess.Load(text); err != nil {
		return err
	}

	for _, s := range opts.set {
		header, field, found := strings.Cut(s, "=")
		if !found {
			return fmt.Errorf("invalid --set %q: want header=field", s)
		}
		if err := sess.Assign(strings.TrimSpace(header), strings.TrimSpace(field)); err != nil {
			return err
		}
	}
	for _, header := range opts.skip {
		if err := sess.Skip(header); err != nil {
			return err
		}
	}

	snap := sess.Snapshot()
	report := mapReport{
		Kind:     def.Info.Key,
		Headers:  snap.Headers,
		Mappings: snap.Mappings,
		Ready:    snap.Ready,
		Missing:  make([]string, 0, len(snap.Missing)),
		Records:  sess.Records(),
	}
	for _, f := range snap.Missing {
		report.Missing = append(report.Missing, f.Label)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if !report.Ready {
		return fmt.Errorf("%w: %s", csvimport.ErrNotReady, strings.Join(report.Missing, ", "))
	}
	return nil
}
