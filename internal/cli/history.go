package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/dojo/internal/adapters/history"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [pattern]",
		Short: "List saved score reports",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHistory,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("best", false, "Only output the best score for the pattern")

	RootCmd.AddCommand(cmd)
}

// historyRow is the summary line printed per stored report.
type historyRow struct {
	ID          string    `json:"id"`
	Pattern     string    `json:"pattern"`
	RecordingID string    `json:"recording_id,omitempty"`
	TotalScore  float64   `json:"total_score"`
	Hits        int       `json:"hits"`
	Misses      int       `json:"misses"`
	Extras      int       `json:"extras"`
	MaxCombo    int       `json:"max_combo"`
	CreatedAt   time.Time `json:"created_at"`
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	best, _ := cmd.Flags().GetBool("best")

	var patternName string
	if len(args) > 0 {
		patternName = args[0]
	}

	h, err := openHistory()
	if err != nil {
		exitErr("open history", err)
	}
	defer h.Close()

	var entries []history.Entry
	if best {
		if patternName == "" {
			exitErr("history", fmt.Errorf("--best requires a pattern name"))
		}
		e, err := h.Best(cmd.Context(), patternName)
		if err != nil {
			exitErr("best score", err)
		}
		entries = []history.Entry{e}
	} else {
		entries, err = h.ListByPattern(cmd.Context(), patternName, limit)
		if err != nil {
			exitErr("list history", err)
		}
	}

	rows := make([]historyRow, len(entries))
	for i, e := range entries {
		rows[i] = historyRow{
			ID:          e.ID,
			Pattern:     e.Pattern,
			RecordingID: e.RecordingID,
			TotalScore:  e.TotalScore,
			Hits:        e.Hits,
			Misses:      e.Misses,
			Extras:      e.Extras,
			MaxCombo:    e.MaxCombo,
			CreatedAt:   e.CreatedAt,
		}
	}

	b, _ := json.MarshalIndent(rows, "", "  ")
	fmt.Println(string(b))
}
