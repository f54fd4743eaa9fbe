package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	app "github.com/okian/stipend/internal/app"
	"github.com/okian/stipend/internal/batchrun"
	"github.com/okian/stipend/internal/config"
	"github.com/okian/stipend/pkg/logger"
)

func main() {
	var (
		origin      = flag.String("origin", "", "Home location every trip starts from")
		conferences = flag.String("conferences", "", "Comma-separated conference IDs (default: all)")
		output      = flag.String("output", "", `Output file, "-" for stdout (default: stipends_TIMESTAMP.jsonl)`)
		verbose     = flag.Bool("verbose", false, "Log every trip as it finishes")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		batchrun.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("stipend-batch")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, &batchrun.Config{
		Origin:      *origin,
		Conferences: batchrun.SplitIDs(*conferences),
		OutputFile:  *output,
		Verbose:     *verbose,
	}, log); err != nil {
		log.Error(ctx, "batch failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, runCfg *batchrun.Config, log logger.Logger) error {
	svc := app.New(app.WithConfig(cfg), app.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	w, name, err := batchrun.OpenOutput(runCfg.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Error(context.Background(), "failed to close output", logger.Error(err))
		}
	}()
	log.Info(ctx, "writing breakdowns", logger.String("output", name))

	_, err = batchrun.Run(ctx, runCfg, svc, svc, w, log)
	return err
}
