package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/pevans/nbudigest"
	"github.com/pevans/nbudigest/config"
	"github.com/pevans/nbudigest/discovery"
	"github.com/pevans/nbudigest/history"
	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	subcommand := os.Args[1]
	args := os.Args[2:]

	var err error
	switch subcommand {
	case "fetch":
		err = handleFetch(ctx, args)
	case "summarize":
		err = handleSummarize(ctx, args)
	case "send":
		err = handleSend(ctx, args)
	case "run":
		err = handleRun(ctx, args)
	case "daemon":
		err = handleDaemon(ctx, args)
	case "history":
		err = handleHistory(ctx, args)
	case "records":
		err = handleRecords(args)
	case "init":
		err = handleInit(args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("nbudigest - Daily digest of bank.gov.ua news")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  nbudigest <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  fetch      Extract today's records into the processed list")
	fmt.Println("  summarize  Summarize the processed list")
	fmt.Println("  send       Mail the summarized list")
	fmt.Println("  run        Fetch, summarize and send once")
	fmt.Println("  daemon     Run on the configured schedule (and serve the API)")
	fmt.Println("  history    List recent runs")
	fmt.Println("  records    Show the processed or summarized list")
	fmt.Println("  init       Write a default config file")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Common flags:")
	fmt.Println("  --config PATH    Config file (default: ~/.nbudigest/config.yaml)")
	fmt.Println("  --env-file PATH  Environment file (default: .env)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  NBUDIGEST_CONFIG      Config file path")
	fmt.Println("  NBUDIGEST_DATA_DIR    Directory for the JSON lists and history.db")
	fmt.Println("  OPENAI_API_KEY        Completion API key")
	fmt.Println("  EMAIL_USER            SMTP username and default sender")
	fmt.Println("  EMAIL_PASS            SMTP password")
	fmt.Println("  EMAIL_RECIPIENTS      Comma-separated digest recipients")
}

func handleFetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	common := addCommonFlags(fs)
	mode := fs.String("mode", "", "Publication day to keep: today, yesterday or none")
	ignoreDate := fs.Bool("ignore-date", false, "Keep records regardless of their date")
	fs.Parse(args)

	a, err := loadApp(common)
	if err != nil {
		return err
	}
	defer a.Close()

	if *mode != "" {
		a.cfg.Pipeline.Mode = *mode
	}
	if *ignoreDate {
		a.cfg.Pipeline.IgnoreDate = true
	}

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}
	result, err := pipeline.Run(ctx)
	if result != nil {
		printResult(result, a.processed.Path())
	}
	if errors.Is(err, discovery.ErrListingUnavailable) {
		// An empty list was written; the run itself is not fatal
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return nil
	}
	return err
}

func handleSummarize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	a, err := loadApp(common)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.summarizer()
	if err != nil {
		return err
	}
	records, err := s.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Summarized %d records into %s\n", len(records), a.summarized.Path())
	return nil
}

func handleSend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	a, err := loadApp(common)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.mailer()
	if err != nil {
		return err
	}
	sent, err := m.Run(ctx)
	if err != nil {
		return err
	}
	if sent {
		fmt.Printf("Digest sent to %d recipients\n", len(a.cfg.Mail.Recipients))
	} else {
		fmt.Println("Nothing to send.")
	}
	return nil
}

func handleRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	a, err := loadApp(common)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}
	run, err := svc.RunOnce(ctx, history.TriggerManual)
	if run != nil {
		printRunTable([]history.Run{*run}, a.loc)
	}
	return err
}

func handleDaemon(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	common := addCommonFlags(fs)
	listen := fs.String("listen", "", "Serve the read-only API on this address")
	noStartRun := fs.Bool("no-start-run", false, "Skip the run at startup")
	fs.Parse(args)

	a, err := loadApp(common)
	if err != nil {
		return err
	}
	defer a.Close()

	if *listen != "" {
		a.cfg.API.Listen = *listen
	}
	if *noStartRun {
		a.cfg.Schedule.RunOnStart = false
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := svc.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if a.cfg.API.Listen != "" {
		api := nbudigest.NewAPIServer(a.processed, a.summarized, a.history)
		a.logger.Info("serving API", "addr", a.cfg.API.Listen)
		g.Go(func() error { return api.Serve(gctx, a.cfg.API.Listen) })
	}
	return g.Wait()
}

func handleHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "Maximum number of runs to show")
	format := fs.String("format", "table", "Output format: table or json")
	fs.Parse(args)

	a, err := loadApp(common)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	runs, err := store.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}

	if *format == "json" {
		return printJSON(runs)
	}
	printRunTable(runs, a.loc)
	return nil
}

func handleRecords(args []string) error {
	fs := flag.NewFlagSet("records", flag.ExitOnError)
	common := addCommonFlags(fs)
	stage := fs.String("stage", "summarized", "List to show: processed or summarized")
	format := fs.String("format", "table", "Output format: table or json")
	fs.Parse(args)

	a, err := loadApp(common)
	if err != nil {
		return err
	}
	defer a.Close()

	store := a.summarized
	switch *stage {
	case "summarized":
	case "processed":
		store = a.processed
	default:
		return fmt.Errorf("invalid stage %q: must be processed or summarized", *stage)
	}

	records, err := store.Load()
	if err != nil {
		return err
	}
	if *format == "json" {
		return printJSON(records)
	}
	printRecordTable(records)
	return nil
}

func handleInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", "", "Where to write the config (default: ~/.nbudigest/config.yaml)")
	force := fs.Bool("force", false, "Overwrite an existing config file")
	fs.Parse(args)

	if *path == "" {
		var err error
		if *path, err = config.FilePath(); err != nil {
			return err
		}
	}

	created, err := config.WriteDefaultFile(*path, *force)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("  ✓ Config file: %s\n", *path)
	} else {
		fmt.Printf("  Config file: %s (already exists)\n", *path)
	}
	return nil
}
