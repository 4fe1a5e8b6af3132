package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devon-mar/nextlinks/utils/linkhdr"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var parseCmd = &cobra.Command{
	Use:   "parse [HEADER]",
	Short: "Print the next links of a Link header.",
	Long: `Print the next links of a Link header, one per line.

The header is read from stdin if it is not given as an argument.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hdr string
		if len(args) == 1 {
			hdr = args[0]
		} else {
			if cmd.InOrStdin() == os.Stdin && stdinIsTerminal() {
				return errors.New("no header given")
			}
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hdr = string(b)
		}
		return runParse(cmd.OutOrStdout(), strings.TrimRight(hdr, "\r\n"), parseAll, parseFirst)
	},
}

var (
	parseAll   bool
	parseFirst bool
)

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseAll, "all", false, "print every relation type as rel<TAB>uri")
	parseCmd.Flags().BoolVar(&parseFirst, "first", false, "only print the first next link")
	parseCmd.MarkFlagsMutuallyExclusive("all", "first")
}

func runParse(w io.Writer, hdr string, all bool, first bool) error {
	if all {
		rels, err := linkhdr.Parse(hdr)
		if err != nil {
			return err
		}
		keys := maps.Keys(rels)
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\n", k, rels[k])
		}
		return nil
	}

	links, err := linkhdr.NextStrings(hdr)
	if err != nil {
		return err
	}
	if first && len(links) > 1 {
		links = links[:1]
	}
	for _, l := range links {
		fmt.Fprintln(w, l)
	}
	return nil
}

// stdinIsTerminal is used to avoid blocking on an interactive stdin.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
