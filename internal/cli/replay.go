package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/okian/dojo/internal/app"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/pkg/logger"
	"github.com/okian/dojo/pkg/metrics"
)

func init() {
	cmd := &cobra.Command{
		Use:   "replay <pattern> <recording-id>",
		Short: "Replay a saved recording through the live session pipeline",
		Long: "Feeds a saved recording back through the merged session queue " +
			"as if its events were arriving live. Useful for verifying that " +
			"a replay scores identically to the original session, and for " +
			"exercising the pipeline with the optional /metrics listener.",
		Args: cobra.ExactArgs(2),
		Run:  runReplay,
	}

	RootCmd.AddCommand(cmd)
}

func runReplay(cmd *cobra.Command, args []string) {
	patternName, recordingID := args[0], args[1]
	ctx := cmd.Context()

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

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	session := app.NewSession(p, rec.SourceID,
		app.WithQueueSize(cfg.QueueSize),
		app.WithExtraPenalty(cfg.PenaltyPerExtra),
		app.WithDuration(rec.TotalDuration),
		app.WithLookahead(cfg.LookaheadSeconds),
	)
	if err := session.Start(ctx); err != nil {
		exitErr("start session", err)
	}

	// Each recorded event becomes a clock tick at its own timestamp followed
	// by the input, reproducing the causal order of the original session.
	for _, ev := range rec.Events {
		if !session.OfferSample(ctx, model.ClockSample{Wall: time.Now(), Reading: ev.Time}) {
			exitErr("replay", fmt.Errorf("clock sample at %v rejected", ev.Time))
		}
		if !session.OfferInput(ctx, model.RawInput{Wall: time.Now(), Key: ev.Key, Action: ev.Action}) {
			exitErr("replay", fmt.Errorf("input %s at %v rejected", ev.Key, ev.Time))
		}
	}
	if rec.TotalDuration > 0 {
		session.OfferSample(ctx, model.ClockSample{Wall: time.Now(), Reading: rec.TotalDuration})
	}

	outcome, err := session.Stop(ctx)
	if err != nil {
		exitErr("stop session", err)
	}

	body, err := outcome.Report.JSON()
	if err != nil {
		exitErr("render report", err)
	}
	fmt.Println(string(body))
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Get().Named("metrics").Error(context.Background(), "metrics listener failed", logger.Error(err))
	}
}
