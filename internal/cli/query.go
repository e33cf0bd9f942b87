package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"kordash/internal/engine"
	"kordash/internal/export"
	"kordash/internal/models"
)

// selectionFlags binds --indicator/--from/--to. Unset flags fall back to the
// dashboard's default selection.
type selectionFlags struct {
	indicator string
	from      int
	to        int
}

func (s *selectionFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.indicator, "indicator", "", "indicator name (default: first dashboard indicator)")
	fs.IntVar(&s.from, "from", 0, "first year, inclusive (default: configured default range)")
	fs.IntVar(&s.to, "to", 0, "last year, inclusive (default: configured default range)")
}

func (s *selectionFlags) resolve(fs *pflag.FlagSet, d *engine.Dashboard) (string, models.YearRange) {
	indicator, yr := d.DefaultSelection()
	if fs.Changed("indicator") {
		indicator = s.indicator
	}
	if fs.Changed("from") {
		yr.From = s.from
	}
	if fs.Changed("to") {
		yr.To = s.to
	}
	return indicator, yr
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func newIndicatorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "indicators",
		Short: "List the dashboard's indicators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			list := d.IndicatorList()
			out := cmd.OutOrStdout()
			if a.output == "json" {
				return a.printJSON(out, list)
			}
			for _, name := range list.Indicators {
				marker := " "
				if name == list.DefaultIndicator {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func newSeriesCmd(a *app) *cobra.Command {
	var (
		sel     selectionFlags
		nonNull bool
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print one indicator as a long-format series",
		Example: `  kordash series --indicator "Unemployment, total (% of total labor force) (national estimate)" --from 2010 --to 2022
  kordash series --non-null -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			indicator, yr := sel.resolve(cmd.Flags(), d)

			reshape := engine.Reshape
			if nonNull {
				reshape = engine.ReshapeNonNull
			}
			points, err := reshape(d.Table(), indicator, yr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.output == "json" {
				if points == nil {
					points = []models.SeriesPoint{}
				}
				return a.printJSON(out, points)
			}
			if len(points) == 0 {
				fmt.Fprintln(out, models.NoDataAnnotation)
				return nil
			}
			tw := newTabWriter(out)
			fmt.Fprintln(tw, "COUNTRY\tYEAR\tVALUE")
			for _, p := range points {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Country, p.Year, formatValue(p.Value))
			}
			return tw.Flush()
		},
	}
	sel.register(cmd.Flags())
	cmd.Flags().BoolVar(&nonNull, "non-null", false, "drop years without a value")
	return cmd
}

func newCardsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cards",
		Short: "Print the latest value of each key indicator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			cards := d.Cards()
			out := cmd.OutOrStdout()
			if a.output == "json" {
				return a.printJSON(out, cards)
			}
			tw := newTabWriter(out)
			fmt.Fprintln(tw, "TITLE\tLATEST")
			for _, c := range cards {
				fmt.Fprintf(tw, "%s\t%s\n", c.Title, c.Text)
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		sel selectionFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the selection as an XLSX workbook or Arrow IPC stream",
		Long:  "Writes a workbook, or an Arrow IPC stream of the long-format series when --out ends in .arrow.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			indicator, yr := sel.resolve(cmd.Flags(), d)

			if strings.EqualFold(filepath.Ext(out), ".arrow") {
				points, err := engine.Reshape(d.Table(), indicator, yr)
				if err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := export.WriteArrow(f, points); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			} else {
				bundle := d.Update(indicator, yr)
				if bundle.Status == models.StatusInvalidRange {
					return errors.New(bundle.Error)
				}
				wb, err := export.Workbook(d.Table(), bundle, d.Cards())
				if err != nil {
					return err
				}
				defer wb.Close()
				if err := wb.SaveAs(out); err != nil {
					return fmt.Errorf("save %s: %w", out, err)
				}
			}

			a.logger.Info("export written", "path", out, "indicator", indicator, "range", yr.String())
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	sel.register(cmd.Flags())
	cmd.Flags().StringVar(&out, "out", "", "output file (.xlsx or .arrow)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
