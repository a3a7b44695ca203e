package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newParamsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the effective tracking parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			params, err := cfg.Params()
			if err != nil {
				return err
			}

			formatFloat := func(v float64) string {
				return strconv.FormatFloat(v, 'g', -1, 64)
			}
			rows := [][]string{
				{"field", cfg.Tracking.Field, "tracked field"},
				{"field_thresh", formatFloat(params.FieldThresh), "detection threshold"},
				{"min_size", strconv.Itoa(params.MinSize), "minimum cell size (pixels)"},
				{"search_margin", formatFloat(params.SearchMargin), "candidate search half-width (pixels)"},
				{"flow_margin", strconv.Itoa(params.FlowMargin), "ambient flow margin (pixels)"},
				{"max_flow_mag", formatFloat(params.MaxFlowMag), "maximum global shift (pixels)"},
				{"max_disparity", formatFloat(params.MaxDisparity), "maximum match disparity"},
				{"max_shift_disp", formatFloat(params.MaxShiftDisp), "maximum shift disagreement (m/s)"},
				{"iso_thresh", formatFloat(params.IsoThresh), "isolation threshold"},
				{"iso_smooth", formatFloat(params.IsoSmooth), "isolation smoothing sigma (pixels)"},
				{"gs_alt", formatFloat(params.GSAlt), "phase correlation altitude (m)"},
				{"near_thresh", formatFloat(params.NearThresh), "split detection distance (pixels)"},
				{"algorithm", params.Algorithm.String(), "pair resolution"},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Parameter", "Value", "Description"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}
