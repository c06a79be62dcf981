package cmd

import (
	"fmt"

	"github.com/mabhi256/hprofdump/hprof"
	"github.com/mabhi256/hprofdump/utils"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <dump.hprof>",
	Short: "Print an HPROF dump's header and a tag-count summary",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(
		[]string{".hprof", ".bin"}, false),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	src, err := hprof.OpenFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer src.Close()

	fmt.Println(utils.TitleStyle.Render("HPROF dump"))
	fmt.Println(utils.FormatKeyValue("idsize", fmt.Sprintf("%d bytes", src.IDSize()), 12))
	fmt.Println(utils.FormatKeyValue("starttime", src.StartTime().Format("2006-01-02 15:04:05.000 MST"), 12))

	counts := make(map[string]int)
	var total int
	it := src.Records()
	for it.Next() {
		counts[it.Record().Tag().String()]++
		total++
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("stopped at record %d: %w", total, err)
	}

	fmt.Println()
	fmt.Println(utils.TitleStyle.Render(fmt.Sprintf("%d top-level records", total)))
	for _, name := range sortedKeys(counts) {
		fmt.Println(utils.FormatKeyValue(name, fmt.Sprintf("%d", counts[name]), 20))
	}
	return nil
}
