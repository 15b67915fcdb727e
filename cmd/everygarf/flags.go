package main

import (
	"strings"

	"github.com/handiism/everygarf/internal/config"
	"github.com/handiism/everygarf/internal/model"
	"github.com/handiism/everygarf/internal/source"
	"github.com/urfave/cli"
)

var (
	configPath     string
	saveConfigPath string
	queryOnly      bool
	maxCount       int
	startDate      string
	jobs           int
	timeout        float64
	initialTimeout float64
	attempts       int
	proxyURL       string
	noProxy        bool
	alwaysPing     bool
	proxyImages    bool
	cacheURL       string
	noCache        bool
	saveCache      string
	format         string
	tree           bool
	sourceName     string
	removeAll      bool
	quiet          bool
	verbose        bool
	rateLimit      float64
	failFast       bool
)

var formatNames = func() string {
	names := make([]string, len(model.ImageFormats))
	for i, f := range model.ImageFormats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}()

var appFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "config",
		Usage:       "load settings from a JSON file (flags take precedence)",
		EnvVar:      "EVERYGARF_CONFIG",
		Destination: &configPath,
	},
	cli.StringFlag{
		Name:        "save-config",
		Usage:       "write the effective settings to a JSON file",
		Destination: &saveConfigPath,
	},
	cli.BoolFlag{
		Name:        "count, c",
		Usage:       "only count missing images, exit with code 10 if any are missing",
		Destination: &queryOnly,
	},
	cli.IntFlag{
		Name:        "max, m",
		Usage:       "download at most this many images (0 for no limit)",
		Destination: &maxCount,
	},
	cli.StringFlag{
		Name:        "start",
		Usage:       "first date to download, as YYYY-MM-DD (default: " + model.FirstComic.String() + ")",
		Destination: &startDate,
	},
	cli.IntFlag{
		Name:        "jobs, j",
		Usage:       "number of concurrent downloads",
		EnvVar:      "EVERYGARF_JOBS",
		Destination: &jobs,
	},
	cli.Float64Flag{
		Name:        "timeout, t",
		Usage:       "request timeout in seconds",
		Destination: &timeout,
	},
	cli.Float64Flag{
		Name:        "initial-timeout",
		Usage:       "timeout in seconds for the proxy ping and cache download",
		Destination: &initialTimeout,
	},
	cli.IntFlag{
		Name:        "attempts, a",
		Usage:       "attempts per image before giving up",
		Destination: &attempts,
	},
	cli.StringFlag{
		Name:        "proxy",
		Usage:       "route requests through this CORS proxy",
		Destination: &proxyURL,
	},
	cli.BoolFlag{
		Name:        "no-proxy",
		Usage:       "request source pages directly",
		Destination: &noProxy,
	},
	cli.BoolFlag{
		Name:        "always-ping",
		Usage:       "ping the proxy even for small batches",
		Destination: &alwaysPing,
	},
	cli.BoolFlag{
		Name:        "proxy-images",
		Usage:       "also route image downloads through the proxy",
		Destination: &proxyImages,
	},
	cli.StringFlag{
		Name:        "cache",
		Usage:       "URL or local path of the image URL cache",
		Destination: &cacheURL,
	},
	cli.BoolFlag{
		Name:        "no-cache",
		Usage:       "resolve every image URL from the source",
		Destination: &noCache,
	},
	cli.StringFlag{
		Name:        "save-cache",
		Usage:       "append resolved image URLs to this file",
		Destination: &saveCache,
	},
	cli.StringFlag{
		Name:        "format, f",
		Usage:       "image format: " + formatNames,
		Destination: &format,
	},
	cli.BoolFlag{
		Name:        "tree",
		Usage:       "save as YYYY/MM/DD.ext instead of YYYY-MM-DD.ext",
		Destination: &tree,
	},
	cli.StringFlag{
		Name:        "source",
		Usage:       "where to find strips: " + strings.Join(source.Names(), ", "),
		Destination: &sourceName,
	},
	cli.BoolFlag{
		Name:        "remove-all",
		Usage:       "delete the output folder before downloading",
		Destination: &removeAll,
	},
	cli.BoolFlag{
		Name:        "quiet, q",
		Usage:       "no desktop notification on error",
		Destination: &quiet,
	},
	cli.BoolFlag{
		Name:        "verbose",
		Usage:       "show debug output",
		Destination: &verbose,
	},
	cli.Float64Flag{
		Name:        "rate",
		Usage:       "maximum requests per second (0 for no limit)",
		Destination: &rateLimit,
	},
	cli.BoolFlag{
		Name:        "fail-fast",
		Usage:       "stop at the first image that fails after all attempts",
		Destination: &failFast,
	},
}

// applyFlags overlays the flags given on the command line onto s.
func applyFlags(c *cli.Context, s *config.Settings) {
	if folder := c.Args().First(); folder != "" {
		s.Folder = folder
	}
	if queryOnly {
		s.QueryOnly = true
	}
	if c.IsSet("max") {
		s.MaxCount = maxCount
	}
	if c.IsSet("start") {
		s.StartDate = startDate
	}
	if c.IsSet("jobs") {
		s.Concurrency = jobs
	}
	if c.IsSet("timeout") {
		s.RequestTimeout = timeout
	}
	if c.IsSet("initial-timeout") {
		s.InitialTimeout = initialTimeout
	}
	if c.IsSet("attempts") {
		s.Attempts = attempts
	}
	if c.IsSet("proxy") {
		s.UseProxy = true
		s.ProxyURL = proxyURL
	}
	if noProxy {
		s.UseProxy = false
	}
	if alwaysPing {
		s.AlwaysPing = true
	}
	if proxyImages {
		s.ProxyImages = true
	}
	if c.IsSet("cache") {
		s.UseCache = true
		s.CacheURL = cacheURL
	}
	if noCache {
		s.UseCache = false
	}
	if c.IsSet("save-cache") {
		s.CacheSavePath = saveCache
	}
	if c.IsSet("format") {
		s.Format = format
	}
	if tree {
		s.Layout = model.LayoutTree.String()
	}
	if c.IsSet("source") {
		s.Source = sourceName
	}
	if removeAll {
		s.RemoveAll = true
	}
	if quiet {
		s.Notify = false
	}
	if verbose {
		s.Verbose = true
	}
	if c.IsSet("rate") {
		s.RateLimit = rateLimit
	}
	if failFast {
		s.FailFast = true
	}
}
