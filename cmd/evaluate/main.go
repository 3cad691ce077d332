// Command evaluate runs character evaluation batches: it generates
// conversations for a character and scenario matrix, scores them with
// a judge panel, and stores the results under a session.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"charbench/infrastructure/llm"
	"charbench/infrastructure/metrics"
	"charbench/internal/characters"
	"charbench/internal/conversation"
	"charbench/internal/evaluation"
	"charbench/internal/pipeline"
	"charbench/internal/results"
	"charbench/internal/scenarios"
)

const (
	defaultCharactersDir = "characters"
	defaultResultsDir    = "evaluation_results"
	defaultProvider      = "claude"
	defaultJudges        = "deepseek"
	requestTimeout       = 2 * time.Minute
)

var titleCaser = cases.Title(language.English)

func main() {
	var (
		charactersArg = flag.String("characters", "", "Comma-separated character IDs (empty = all)")
		scenariosArg  = flag.String("scenarios", "", "Comma-separated scenario IDs (empty = all)")
		provider      = flag.String("provider", defaultProvider, "Chat provider answering as the character")
		judgesArg     = flag.String("judges", defaultJudges, "Comma-separated judge provider specs")
		workers       = flag.Int("workers", pipeline.DefaultWorkers, "Concurrent evaluation jobs")
		sessionID     = flag.String("session", "", "Session ID (empty = auto-generated)")
		userName      = flag.String("user", conversation.DefaultUserName, "Simulated user name")
		charactersDir = flag.String("characters-dir", defaultCharactersDir, "Directory of character JSON files")
		resultsDir    = flag.String("results-dir", defaultResultsDir, "Directory for stored results")
		configPath    = flag.String("config", "", "YAML run config (overrides individual flags)")
		output        = flag.String("output", "console", "Report format: console, json, or csv")
		compareArg    = flag.String("compare", "", "Compare providers (comma-separated) on one character/scenario")
		list          = flag.Bool("list", false, "List available characters, scenarios, and providers")
		quiet         = flag.Bool("quiet", false, "Only log warnings and errors")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *quiet {
		logLevel = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, runOptions{
		characters:    splitList(*charactersArg),
		scenarios:     splitList(*scenariosArg),
		provider:      *provider,
		judges:        splitList(*judgesArg),
		workers:       *workers,
		sessionID:     *sessionID,
		userName:      *userName,
		charactersDir: *charactersDir,
		resultsDir:    *resultsDir,
		configPath:    *configPath,
		output:        *output,
		compare:       splitList(*compareArg),
		list:          *list,
		quiet:         *quiet,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	characters    []string
	scenarios     []string
	provider      string
	judges        []string
	workers       int
	sessionID     string
	userName      string
	charactersDir string
	resultsDir    string
	configPath    string
	output        string
	compare       []string
	list          bool
	quiet         bool
}

func run(ctx context.Context, logger *slog.Logger, opts runOptions) error {
	manager, err := characters.NewManager(opts.charactersDir, logger)
	if err != nil {
		return err
	}
	catalog := scenarios.NewCatalog()

	collector := metrics.NewPrometheusCollector()
	registry, err := buildRegistry(collector)
	if err != nil {
		return err
	}

	if opts.list {
		printInventory(manager, catalog, registry)
		return nil
	}

	store, err := results.NewStore(opts.resultsDir, logger)
	if err != nil {
		return err
	}

	cfg := pipeline.RunConfig{
		Characters: opts.characters,
		Scenarios:  opts.scenarios,
		Provider:   opts.provider,
		Judges:     opts.judges,
		SessionID:  opts.sessionID,
		Workers:    opts.workers,
		UserName:   opts.userName,
	}
	if opts.configPath != "" {
		cfg, err = pipeline.LoadRunConfig(opts.configPath)
		if err != nil {
			return err
		}
	}

	userClient, err := registry.GetClient("gpt")
	if err != nil {
		return fmt.Errorf("resolving user simulator provider: %w", err)
	}

	generator := conversation.NewGenerator(userClient, logger,
		conversation.WithUserName(cfg.UserName),
		conversation.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))))
	orchestrator := evaluation.NewOrchestrator(logger)
	engine := pipeline.NewEngine(manager, catalog, generator, orchestrator, store, registry, logger,
		pipeline.WithMetrics(collector))

	if len(opts.compare) > 0 {
		return runComparison(ctx, engine, cfg, opts)
	}

	var progress pipeline.ProgressFunc
	if opts.output == "console" && !opts.quiet {
		progress = consoleProgress
	}

	report, err := engine.Run(ctx, cfg, progress)
	if err != nil {
		return err
	}

	switch opts.output {
	case "console":
		printReport(report)
	case "json":
		if err := printJSON(report); err != nil {
			return err
		}
	case "csv":
		path, err := store.ExportCSV(report.SessionID + ".csv")
		if err != nil {
			return err
		}
		fmt.Printf("Exported results to %s\n", path)
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	if report.AllFailed() {
		return fmt.Errorf("all %d evaluation jobs failed", report.Summary.TotalEvaluations)
	}
	return nil
}

// buildRegistry wires the provider registry with retry, rate limiting,
// and per-provider metrics middleware.
func buildRegistry(collector *metrics.PrometheusCollector) (*llm.Registry, error) {
	providers := make(map[string]llm.ProviderConfig, len(llm.DefaultProviders))
	for name, cfg := range llm.DefaultProviders {
		cfg.Middleware = append(cfg.Middleware, llm.MetricsMiddleware(name, collector))
		providers[name] = cfg
	}

	return llm.NewRegistry(llm.RegistryConfig{
		Providers:       providers,
		DefaultProvider: defaultProvider,
		DefaultTimeout:  requestTimeout,
		DefaultMiddleware: []llm.Middleware{
			llm.TracingMiddleware("charbench"),
			llm.RetryMiddleware(3, 500*time.Millisecond, 8*time.Second),
			llm.RateLimitMiddleware(rate.Limit(2), 4),
		},
	})
}

func runComparison(ctx context.Context, engine *pipeline.Engine, cfg pipeline.RunConfig, opts runOptions) error {
	if len(opts.characters) != 1 || len(opts.scenarios) != 1 {
		return fmt.Errorf("provider comparison requires exactly one character and one scenario")
	}

	comparison, err := engine.CompareProviders(ctx, opts.characters[0], opts.scenarios[0], opts.compare, cfg)
	if err != nil {
		return err
	}

	if opts.output == "json" {
		return printJSON(comparison)
	}

	fmt.Printf("\n%s\n", heading("Provider Comparison"))
	fmt.Printf("Character: %s   Scenario: %s\n\n", comparison.CharacterID, comparison.ScenarioID)
	providers := make([]string, 0, len(comparison.Scores))
	for p := range comparison.Scores {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	for _, p := range providers {
		marker := " "
		if p == comparison.BestProvider {
			marker = "*"
		}
		fmt.Printf("  %s %-10s %.1f/10\n", marker, p, comparison.Scores[p])
	}
	fmt.Printf("\nScore difference: %.1f", comparison.ScoreDifference)
	if comparison.SignificantDifference {
		fmt.Print(" (significant)")
	}
	fmt.Println()
	return nil
}

func consoleProgress(completed, total int, result pipeline.JobResult) {
	if result.Completed() {
		fmt.Printf("[%d/%d] %s/%s: %.1f/10 (%.1fs)\n",
			completed, total, result.CharacterID, result.ScenarioID,
			result.OverallScore, result.ExecutionTime.Seconds())
		return
	}
	fmt.Printf("[%d/%d] %s/%s: %s - %s\n",
		completed, total, result.CharacterID, result.ScenarioID,
		result.Status, result.Error)
}

func printReport(report *pipeline.RunReport) {
	fmt.Printf("\n%s\n", heading("Evaluation Report"))
	fmt.Printf("Session: %s\n\n", report.SessionID)

	sorted := make([]pipeline.JobResult, len(report.Results))
	copy(sorted, report.Results)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CharacterID != sorted[j].CharacterID {
			return sorted[i].CharacterID < sorted[j].CharacterID
		}
		return sorted[i].ScenarioID < sorted[j].ScenarioID
	})

	for _, r := range sorted {
		if !r.Completed() {
			fmt.Printf("  %-40s %s\n", r.CharacterID+"/"+r.ScenarioID, r.Status)
			continue
		}
		fmt.Printf("  %-40s %.1f/10  agreement %.2f\n",
			r.CharacterID+"/"+r.ScenarioID, r.OverallScore, r.Consensus.AgreementLevel)
		for _, insight := range r.Consensus.Insights {
			fmt.Printf("      - %s\n", insight)
		}
	}

	s := report.Summary
	fmt.Printf("\n%s\n", heading("Summary"))
	fmt.Printf("Evaluations: %d total, %d successful, %d failed\n",
		s.TotalEvaluations, s.SuccessfulEvaluations, s.FailedEvaluations)
	if s.SuccessfulEvaluations > 0 {
		fmt.Printf("Average score: %.1f/10\n", s.AverageScore)
	}
	fmt.Printf("Total time: %.1fs (%.1fs per evaluation)\n",
		s.TotalTime.Seconds(), s.AverageTime.Seconds())
}

func printInventory(manager *characters.Manager, catalog *scenarios.Catalog, registry *llm.Registry) {
	fmt.Println(heading("Characters"))
	for _, c := range manager.List() {
		fmt.Printf("  %-16s %s [%s]\n", c.ID, c.Name, c.Category)
	}

	fmt.Printf("\n%s\n", heading("Scenarios"))
	for _, s := range catalog.List() {
		fmt.Printf("  %-24s %s (target %d exchanges)\n", s.ID, s.Name, s.TargetExchanges)
	}

	fmt.Printf("\n%s\n", heading("Providers"))
	available := registry.AvailableProviders()
	for _, p := range registry.KnownProviders() {
		status := "missing API key"
		if containsString(available, p) {
			status = "ready"
		}
		fmt.Printf("  %-10s %s\n", p, status)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func heading(s string) string {
	title := titleCaser.String(s)
	return title + "\n" + strings.Repeat("=", len(title))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
