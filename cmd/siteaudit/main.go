// Package main is a one-shot command line audit: crawl a site, print
// the text report and optionally write the spreadsheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/site-audit/siteaudit/internal/audit"
	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/fetch"
	"github.com/site-audit/siteaudit/internal/report"
)

func main() {
	var (
		summary  = flag.Bool("summary", false, "run the quick summary profile and print the executive summary")
		xlsxPath = flag.String("xlsx", "", "also write the report as a spreadsheet to this path")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: siteaudit [-summary] [-xlsx report.xlsx] <url>")
		os.Exit(2)
	}
	url := flag.Arg(0)

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stderr)

	config.LoadEnv(log)
	log.SetLevel(config.GetLogLevel())
	settings := config.Load()

	fetcher, err := fetch.NewChromeFetcher(fetch.ChromeOptions{
		UserAgent: settings.UserAgent,
		ExecPath:  settings.ChromePath,
		PoolSize:  settings.Concurrency,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to start browser")
	}
	defer fetcher.Close()

	svc := audit.NewService(audit.Options{
		Fetcher:    fetcher,
		Settings:   settings,
		Logger:     log,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	})

	ctx := context.Background()

	if *summary {
		res, err := svc.ExecutiveSummary(ctx, url)
		if err != nil {
			log.WithError(err).Fatal("Audit failed")
		}
		for _, key := range report.SummaryKeys {
			fmt.Printf("%s: %s\n", key, res.Summary[key])
		}
		return
	}

	r, _, err := svc.Report(ctx, url)
	if err != nil {
		log.WithError(err).Fatal("Audit failed")
	}
	fmt.Print(report.RenderText(r))

	if *xlsxPath != "" {
		f, err := os.Create(*xlsxPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to create spreadsheet file")
		}
		defer f.Close()
		if err := report.ExportXLSX(r, f); err != nil {
			log.WithError(err).Fatal("Failed to write spreadsheet")
		}
		log.WithField("path", *xlsxPath).Info("Spreadsheet written")
	}
}
