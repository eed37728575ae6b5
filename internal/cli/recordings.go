package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List stored recordings",
		Run:   runRecordings,
	}

	cmd.Flags().Bool("ids-only", false, "Only output recording ids")

	RootCmd.AddCommand(cmd)
}

func runRecordings(cmd *cobra.Command, _ []string) {
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	ids, err := s.ListRecordings()
	if err != nil {
		exitErr("list recordings", err)
	}

	for _, id := range ids {
		if idsOnly {
			fmt.Println(id)
			continue
		}
		rec, err := s.LoadRecording(id)
		if err != nil {
			exitErr("load recording", err)
		}
		fmt.Printf("%s\t%s\t%d events\t%d anomalies\t%.1fs\n",
			rec.ID, rec.SourceID, len(rec.Events), len(rec.Anomalies), rec.TotalDuration.Seconds())
	}
}
