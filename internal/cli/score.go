package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/dojo/internal/app"
	"github.com/okian/dojo/internal/domain/scoring"
)

func init() {
	cmd := &cobra.Command{
		Use:   "score <pattern> <recording-id>",
		Short: "Score a saved recording against a pattern",
		Args:  cobra.ExactArgs(2),
		Run:   runScore,
	}

	cmd.Flags().Float64("penalty", -1, "Score deduction per extra input (default from config)")
	cmd.Flags().Bool("save", true, "Save the report to score history")

	RootCmd.AddCommand(cmd)
}

func runScore(cmd *cobra.Command, args []string) {
	patternName, recordingID := args[0], args[1]
	penalty, _ := cmd.Flags().GetFloat64("penalty")
	save, _ := cmd.Flags().GetBool("save")

	if penalty < 0 {
		penalty = cfg.PenaltyPerExtra
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	p, err := s.LoadPattern(patternName)
	if err != nil {
		exitErr("load pattern", err)
	}
	rec, err := s.LoadRecording(recordingID)
	if err != nil {
		exitErr("load recording", err)
	}

	report := app.Compare(p, rec, scoring.New(scoring.WithExtraPenalty(penalty)))

	if save {
		h, err := openHistory()
		if err != nil {
			exitErr("open history", err)
		}
		defer h.Close()
		if _, err := h.SaveReport(cmd.Context(), rec.ID, report); err != nil {
			exitErr("save report", err)
		}
	}

	body, err := report.JSON()
	if err != nil {
		exitErr("render report", err)
	}
	fmt.Println(string(body))
}
