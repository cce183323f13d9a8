package main

import (
	"context"
	"log/slog"

	"kyb-backend/lib/directories/gmaps"
	"kyb-backend/lib/directories/linkedin"
	"kyb-backend/lib/directories/yelp"
	"kyb-backend/lib/llm"
	"kyb-backend/lib/restyutil"
	"kyb-backend/lib/serviceutil"
	"kyb-backend/lib/telemetry"
	"kyb-backend/services/kyb"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	t, err := telemetry.SetupFromEnv(ctx, "kyb-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		t.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	kyb.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/kyb"),
	)
	llm.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/llm"),
	)
	yelp.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/yelp"),
	)
	gmaps.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/gmaps"),
	)
	linkedin.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/linkedin"),
	)
}
