package cmd

import (
	"fmt"

	"github.com/mabhi256/hprofdump/hprof"
	"github.com/mabhi256/hprofdump/utils"
	"github.com/spf13/cobra"
)

var recordsFilterTag string

var recordsCmd = &cobra.Command{
	Use:   "records <dump.hprof>",
	Short: "Stream a dump's top-level records, one line at a time",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(
		[]string{".hprof", ".bin"}, false),
	RunE: runRecords,
}

func init() {
	recordsCmd.Flags().StringVar(&recordsFilterTag, "tag", "", "only print records with this tag name")
	rootCmd.AddCommand(recordsCmd)
}

// runRecords walks Source.Records() one façade at a time, printing each
// as it's produced. It never buffers more than the current record, and
// for heap-dump segments it walks HeapDumpSegment.Subrecords() the same
// way, so a multi-gigabyte dump costs no more memory here than a small one.
func runRecords(cmd *cobra.Command, args []string) error {
	src, err := hprof.OpenFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer src.Close()

	it := src.Records()
	for it.Next() {
		rec := it.Record()
		if recordsFilterTag != "" && rec.Tag().String() != recordsFilterTag {
			continue
		}
		fmt.Printf("0x%08x  %s\n", rec.Address(), rec.String())

		seg, ok := rec.(hprof.HeapDumpSegment)
		if !ok {
			continue
		}
		sub := seg.Subrecords()
		for sub.Next() {
			sr := sub.Record()
			fmt.Printf("    0x%08x  %s\n", sr.Address(), sr.String())
		}
		if err := sub.Err(); err != nil {
			return fmt.Errorf("error while walking subrecords of record at 0x%x: %w", rec.Address(), err)
		}
	}
	return it.Err()
}
