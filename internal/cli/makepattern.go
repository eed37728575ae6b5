package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/dojo/internal/domain/pattern"
)

func init() {
	cmd := &cobra.Command{
		Use:   "make-pattern <name> <recording-id>",
		Short: "Author a pattern from a saved recording",
		Long: "Turns a saved recording into a named reference pattern. The " +
			"recording's events become the pattern's actions with the default " +
			"tolerance window; anomalies were already dropped at record time.",
		Args: cobra.ExactArgs(2),
		Run:  runMakePattern,
	}

	cmd.Flags().Float64("tolerance", 0, "Default tolerance window in ms (default from config)")

	RootCmd.AddCommand(cmd)
}

func runMakePattern(cmd *cobra.Command, args []string) {
	name, recordingID := args[0], args[1]
	tolerance, _ := cmd.Flags().GetFloat64("tolerance")

	if tolerance <= 0 {
		tolerance = cfg.DefaultToleranceMS
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	rec, err := s.LoadRecording(recordingID)
	if err != nil {
		exitErr("load recording", err)
	}

	b := pattern.NewBuilder(name, tolerance)
	for _, ev := range rec.Events {
		b.Add(ev.Time, ev.Key, ev.Action)
	}
	p, err := b.Build()
	if err != nil {
		exitErr("build pattern", err)
	}

	if err := s.SavePattern(p); err != nil {
		exitErr("save pattern", err)
	}

	fmt.Printf("pattern %q saved with %d actions (tolerance %.0fms)\n", p.Name(), p.Len(), tolerance)
}
