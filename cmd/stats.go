package cmd

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/hprofdump/hprof"
	"github.com/mabhi256/hprofdump/utils"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <dump.hprof>",
	Short: "Render a bar chart of top-level record tag frequency",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(
		[]string{".hprof", ".bin"}, false),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	src, err := hprof.OpenFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer src.Close()

	counts := make(map[string]int)
	it := src.Records()
	for it.Next() {
		counts[it.Record().Tag().String()]++
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("error while counting records: %w", err)
	}

	bars := make([]barchart.BarData, 0, len(counts))
	barStyle := lipgloss.NewStyle().Foreground(utils.InfoColor)
	for _, name := range sortedKeys(counts) {
		bars = append(bars, barchart.BarData{
			Label: name,
			Values: []barchart.BarValue{
				{Name: name, Value: float64(counts[name]), Style: barStyle},
			},
		})
	}

	chart := barchart.New(60, len(bars)+4, barchart.WithHorizontalBars())
	chart.PushDataSet(bars)
	chart.Draw()

	fmt.Println(utils.TitleStyle.Render("Record tag frequency"))
	fmt.Println(chart.View())
	return nil
}
