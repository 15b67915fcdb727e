package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/handiism/everygarf/internal/config"
	"github.com/handiism/everygarf/internal/download"
	"github.com/handiism/everygarf/internal/http"
	ioutils "github.com/handiism/everygarf/internal/io"
	"github.com/handiism/everygarf/internal/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

var version = "dev"

const description = `Downloads every Garfield strip since 1978 into a folder, one image per day.
Images already in the folder are skipped, so running it again only fetches
what is new. Image URLs are looked up in a shared cache first and the strip
pages are fetched through a CORS proxy to avoid being rate limited.`

func main() {
	app := cli.App{
		Name:                   "everygarf",
		HelpName:               "everygarf",
		Usage:                  "download every Garfield comic, to date",
		UsageText:              "everygarf [options] [folder]",
		Version:                version,
		Description:            description,
		Flags:                  appFlags,
		Action:                 run,
		UseShortOptionHandling: true,
	}

	if err := app.Run(os.Args); err != nil {
		report.Fatal(exitConfig, err.Error(), false)
	}
}

func run(c *cli.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	applyFlags(c, settings)
	report.SetupLogging(settings.Verbose)

	if settings.Folder == "" {
		folder, err := ioutils.DefaultFolder()
		if err != nil {
			fail(settings, exitCreateDir, fmt.Errorf("no output folder given and none found: %w", err))
		}
		settings.Folder = folder
	}

	if err := settings.Validate(time.Now()); err != nil {
		fail(settings, exitConfig, err)
	}

	if saveConfigPath != "" {
		if err := settings.Save(saveConfigPath); err != nil {
			fail(settings, exitConfig, fmt.Errorf("saving settings: %w", err))
		}
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("Interrupted, cancelling...")
		cancel()
	}()

	reporter := report.NewReporter(os.Stderr)
	manager := download.NewManager(settings, afero.NewOsFs(), reporter.Handle)

	log.Info().
		Str("folder", abs(settings.Folder)).
		Str("source", settings.Source).
		Int("jobs", settings.Concurrency).
		Msg("Starting everygarf")

	plan, err := manager.Prepare(ctx)
	if err != nil {
		fail(settings, exitCode(err), err)
	}

	if settings.QueryOnly {
		fmt.Println(len(plan.Missing))
		os.Exit(queryExitCode(len(plan.Missing)))
	}

	if len(plan.Jobs) == 0 {
		log.Info().Msg("Everything is up to date")
		return nil
	}

	if report.UseBar(len(plan.Jobs), settings.Concurrency, settings.ProgressBarMultiplier) {
		reporter.StartBar(len(plan.Jobs))
	}
	summary, err := manager.Run(ctx)
	reporter.Finish()
	log.Info().Msg(report.Summary(summary))

	if err != nil {
		if ctx.Err() != nil {
			log.Warn().Msg("Download cancelled")
			os.Exit(exitInterrupted)
		}
		for _, failure := range summary.Failures {
			log.Error().Str("date", failure.Job.Date.String()).Msg(http.Describe(failure.Err))
		}
		fail(settings, exitCode(err), err)
	}
	return nil
}

func loadSettings() (*config.Settings, error) {
	if configPath == "" {
		return config.DefaultSettings(), nil
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, cli.NewExitError(fmt.Sprintf("Error loading config: %v", err), exitConfig)
	}
	return settings, nil
}

// fail reports err as fatal and exits with code.
func fail(settings *config.Settings, code int, err error) {
	msg := err.Error()
	var de *download.Error
	if errors.As(err, &de) && de.Kind == download.KindNetwork {
		msg += "\n" + http.Describe(de.Err)
	}
	if errors.Is(err, download.ErrJobsFailed) {
		msg += "\nRun again to retry the missing images."
	}
	report.Fatal(code, strings.TrimSpace(msg), settings.Notify)
}

func abs(path string) string {
	if p, err := filepath.Abs(path); err == nil {
		return p
	}
	return path
}
