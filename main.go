package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"amsflow/ams"
	"amsflow/auth"
	"amsflow/blob"
	"amsflow/config"
	"amsflow/ledger"
	"amsflow/logger"
	"amsflow/poller"
	"amsflow/sinks"
	"amsflow/workflow"
)

const usage = `usage: amsflow <command> [flags]

commands:
  analyze   upload the input file, run the analyzer transform and download the insights
  encrypt   encode for adaptive streaming behind an AES clear key and print a player URL
  live      create an RTMP live event with an archive and print its URLs
  cleanup   delete resources recorded by earlier runs (all, or --run <id>)
  runs      list recorded runs (--prune <age> drops old finished ones)

flags:
`

type options struct {
	configPath    string
	yes           bool
	audioOnly     bool
	audioLanguage string
	runID         string
	prune         time.Duration
}

func main() {
	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	var opts options
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", config.DefaultSettingsFile, "path to settings.ini")
	fs.BoolVar(&opts.yes, "yes", false, "do not wait for enter at interactive pauses")
	fs.BoolVar(&opts.audioOnly, "audio-only", false, "analyze: use the audio analyzer preset")
	fs.StringVar(&opts.audioLanguage, "lang", workflow.DefaultAudioLanguage, "analyze: audio language")
	fs.StringVar(&opts.runID, "run", "", "cleanup: only this run")
	fs.DurationVar(&opts.prune, "prune", 0, "runs: delete finished runs older than this")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	if err := run(command, opts); err != nil {
		logger.Fatalf("%s failed: %v", command, err)
	}
	logger.Close()
}

func run(command string, opts options) error {
	switch command {
	case "analyze", "encrypt", "live", "cleanup", "runs":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	settings, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	// main closes the log file so the final failure line still reaches it.
	if err := logger.Init(settings.LogFile, true, level); err != nil {
		return err
	}

	dataDir := config.GetDataDir(settings.DataDir)
	if err := os.MkdirAll(dataDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	logger.Debug("Opening run ledger")
	runs, err := ledger.Open(config.GetRunsDBPath(dataDir))
	if err != nil {
		return err
	}
	defer runs.Close()

	if command == "runs" {
		return listRuns(runs, opts.prune)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(settings, runs, opts.yes)
	if err != nil {
		return err
	}

	switch command {
	case "analyze":
		if err := settings.Require(config.KeyTransformName); err != nil {
			return err
		}
		return runner.Analyze(ctx, workflow.AnalyzeOptions{AudioOnly: opts.audioOnly, AudioLanguage: opts.audioLanguage})
	case "encrypt":
		if err := settings.RequireEncryption(); err != nil {
			return err
		}
		return runner.Encrypt(ctx, workflow.EncryptOptions{
			PolicyName: settings.ContentKeyPolicyName,
			Issuer:     settings.Issuer,
			Audience:   settings.Audience,
			ClaimType:  settings.ContentKeyIdentifierClaimType,
		})
	case "live":
		return runner.Live(ctx)
	default:
		if opts.runID != "" {
			return runner.CleanupRun(ctx, opts.runID)
		}
		return runner.CleanupAll(ctx)
	}
}

func newRunner(settings *config.Settings, runs *ledger.Ledger, yes bool) (*workflow.Runner, error) {
	if err := settings.RequireAccount(); err != nil {
		return nil, err
	}

	cred, err := auth.New(auth.Options{
		TenantID:     settings.TenantID,
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
	})
	if err != nil {
		return nil, err
	}

	client, err := ams.New(ams.Account{
		SubscriptionID:    settings.SubscriptionID,
		ResourceGroupName: settings.ResourceGroupName,
		AccountName:       settings.AccountName,
	}, cred, nil)
	if err != nil {
		return nil, err
	}

	sink := sinks.Destination{Type: settings.Sink.Type, Settings: settings.Sink.Settings}
	if strings.EqualFold(sink.Type, sinks.TypeLocal) && sink.Settings["dir"] == "" {
		sink.Settings["dir"] = settings.OutputFolder
	}
	logger.Infof("Output sink: %s", sinks.Describe(sink, ""))

	var prompt workflow.Prompter
	if yes {
		prompt = workflow.AutoConfirm{}
	}

	return workflow.New(workflow.Runner{
		Client:        client,
		Blobs:         blob.New(nil),
		Ledger:        runs,
		Prompt:        prompt,
		Sink:          sink,
		Poll:          poller.FromSettings(settings.Poll),
		TransformName: settings.TransformName,
		InputFile:     settings.InputFile,
	}), nil
}

func listRuns(runs *ledger.Ledger, prune time.Duration) error {
	if prune > 0 {
		removed, err := runs.CleanupOldRecords(prune)
		if err != nil {
			return err
		}
		logger.Infof("Removed %d finished runs older than %v", removed, prune)
	}

	records, err := runs.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWORKFLOW\tSTATE\tSTARTED\tOUTSTANDING\tERROR")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Workflow, r.State, r.Started.Local().Format(time.DateTime), len(r.Resources), firstLine(r.Error))
	}
	return w.Flush()
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(s, "\n")
	return s
}
