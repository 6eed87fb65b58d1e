package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marketlens/oppscan/internal/detect"
)

var flagSubset string

var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "List the detector catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := detect.DefaultRegistry()
		if err != nil {
			return err
		}

		var list []detect.Detector
		switch flagSubset {
		case "all":
			list = registry.All()
		case "equity":
			list = registry.EquityOnly()
		case "index":
			list = registry.IndexOnly()
		case "options":
			list = registry.OptionsDependent()
		case "flow":
			list = registry.FlowPrimary()
		case "backtest":
			list = registry.Backtestable()
		default:
			return fmt.Errorf("unknown subset %q (all|equity|index|options|flow|backtest)", flagSubset)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tDIRECTION\tCLASSES\tOPTIONS\tFACTORS")
		for _, d := range list {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%d\n",
				d.Type, d.Direction, d.AssetClasses, d.RequiresOptionsData, len(d.ScoreFactors))
		}
		return w.Flush()
	},
}

func init() {
	detectorsCmd.Flags().StringVar(&flagSubset, "subset", "all", "subset to list (all|equity|index|options|flow|backtest)")
	rootCmd.AddCommand(detectorsCmd)
}
