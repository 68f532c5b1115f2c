// Command seoapp crawls a site once and prints its ranked keywords.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/pgnikolov/seoapp/internal/config"
	"github.com/pgnikolov/seoapp/internal/crawler"
	"github.com/pgnikolov/seoapp/internal/keywords"
	"github.com/pgnikolov/seoapp/internal/urlutil"
	"github.com/pgnikolov/seoapp/pkg/types"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		rawURL     = flag.String("url", "", "seed URL to analyze (required)")
		pages      = flag.Int("pages", 0, "page budget, overrides config")
		depth      = flag.Int("depth", -1, "link depth, overrides config")
		mode       = flag.String("mode", "", "crawl mode: single or domain")
		subdomains = flag.Bool("subdomains", false, "include subdomains in scope")
		lang       = flag.String("lang", "", "language hint (ISO 639-1)")
		format     = flag.String("format", "table", "output format: table, csv, or json")
		limit      = flag.Int("limit", 0, "maximum keywords to print, overrides config")
	)
	flag.Parse()

	if err := run(*configPath, *rawURL, *pages, *depth, *mode, *subdomains, *lang, *format, *limit); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, rawURL string, pages, depth int, mode string, subdomains bool, lang, format string, limit int) error {
	if rawURL == "" {
		return errors.New("-url is required")
	}
	seed, err := url.Parse(rawURL)
	if err != nil || !urlutil.IsValid(seed) {
		return errors.New("-url must be an absolute http or https URL")
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if pages > 0 {
		cfg.Crawl.MaxPages = pages
	}
	if depth >= 0 {
		cfg.Crawl.MaxDepth = depth
	}
	if mode != "" {
		cfg.Crawl.Mode = mode
	}
	if subdomains {
		cfg.Crawl.IncludeSubdomains = true
	}
	if limit > 0 {
		cfg.Score.MaxResults = limit
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := crawler.New(crawler.Options{
		UserAgent:       cfg.Crawl.UserAgent,
		Concurrency:     cfg.Crawl.Concurrency,
		Delay:           cfg.Crawl.Delay.Duration,
		RequestTimeout:  cfg.Crawl.RequestTimeout.Duration,
		RobotsTimeout:   cfg.Crawl.RobotsTimeout.Duration,
		MaxBodyBytes:    cfg.Crawl.MaxBodyBytes,
		MaxLinksPerPage: cfg.Crawl.MaxLinksPerPage,
	}, logger)

	corpus, err := engine.Crawl(ctx, types.CrawlTarget{
		StartURL:          seed,
		MaxPages:          cfg.Crawl.MaxPages,
		MaxDepth:          cfg.Crawl.MaxDepth,
		Mode:              types.Mode(cfg.Crawl.Mode),
		IncludeSubdomains: cfg.Crawl.IncludeSubdomains,
	})
	if err != nil {
		return err
	}
	logger.Info("crawl finished", "pages", len(corpus))

	scorer := keywords.NewScorer(keywords.Options{
		DefaultLanguage: cfg.Score.DefaultLanguage,
		MaxResults:      cfg.Score.MaxResults,
	})
	results := scorer.Score(corpus, lang)

	switch format {
	case "table":
		return printTable(results)
	case "csv":
		return printCSV(results)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func printTable(results []types.KeywordResult) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tPHRASE\tOCC\tPAGES\tINTENT\tTOP PAGE")
	for _, kw := range results {
		fmt.Fprintf(w, "%.2f\t%s\t%d\t%d\t%s\t%s\n",
			kw.Score, kw.Phrase, kw.Occurrences, kw.PagesCount, kw.Intent, kw.TopPage)
	}
	return w.Flush()
}

func printCSV(results []types.KeywordResult) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"phrase", "score", "occurrences", "pages_count", "top_page", "intent", "language"}); err != nil {
		return err
	}
	for _, kw := range results {
		if err := w.Write([]string{
			kw.Phrase,
			strconv.FormatFloat(kw.Score, 'f', 2, 64),
			strconv.Itoa(kw.Occurrences),
			strconv.Itoa(kw.PagesCount),
			kw.TopPage,
			kw.Intent,
			kw.Language,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
