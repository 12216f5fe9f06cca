package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mikeboe/knowledge-aggregator/pkg/aggregator"
	"github.com/mikeboe/knowledge-aggregator/pkg/clients"
	"github.com/mikeboe/knowledge-aggregator/pkg/config"
	"github.com/mikeboe/knowledge-aggregator/pkg/report"
	"github.com/mikeboe/knowledge-aggregator/pkg/scrape"
	"github.com/mikeboe/knowledge-aggregator/pkg/search"
	"github.com/mikeboe/knowledge-aggregator/pkg/summarize"
	"github.com/spf13/cobra"
)

var (
	topic       string
	topics      []string
	maxResults  int
	outputDir   string
	verbose     bool
	statusOnly  bool
	interactive bool
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	rootCmd := &cobra.Command{
		Use:   "aggregator",
		Short: "A terminal-based knowledge aggregation agent",
		Long: `Knowledge Aggregator searches the web for a topic, extracts article
content, summarizes each article with an LLM, and writes a markdown report
plus a JSON backup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

			cfg := config.Load()
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if maxResults > 0 {
				cfg.MaxSearchResults = maxResults
			}

			if statusOnly {
				return runStatus(cfg)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			agg, err := buildAggregator(cfg)
			if err != nil {
				return err
			}

			if interactive {
				return runInteractive(cmd.Context(), agg)
			}

			all := topics
			if topic != "" {
				all = append([]string{topic}, all...)
			}
			if len(all) == 0 {
				return fmt.Errorf("no topic given: use --topic, --topics, or --interactive")
			}

			results := agg.ProcessTopics(cmd.Context(), all, maxResults)
			failed := 0
			for _, r := range results {
				if r.Status == aggregator.StatusFailed {
					failed++
					slog.Error("topic failed", "topic", r.Topic, "error", r.Err)
					continue
				}
				fmt.Print(report.QuickSummary(r.Report, r.ReportPath))
			}
			if len(results) > 1 {
				fmt.Printf("\nProcessed %d topics, %d failed\n", len(results), failed)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d topics failed", failed, len(results))
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to research")
	rootCmd.Flags().StringSliceVar(&topics, "topics", nil, "Comma-separated list of topics to research")
	rootCmd.Flags().IntVarP(&maxResults, "max-results", "m", 0, "Maximum search results per topic")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for reports")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&statusOnly, "status", false, "Validate configuration and exit")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Accept topics interactively")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildAggregator(cfg config.Config) (*aggregator.Aggregator, error) {
	llm, err := clients.NewAzureOpenAI(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing inference client: %w", err)
	}

	return aggregator.New(cfg,
		search.NewClient(cfg, nil),
		scrape.NewScraper(cfg, nil),
		summarize.New(llm, cfg),
		report.NewWriter(cfg),
	), nil
}

// runStatus checks configuration without any network calls.
func runStatus(cfg config.Config) error {
	fmt.Println("Configuration status:")
	fmt.Printf("  Inference endpoint: %s\n", presence(cfg.AzureOpenAIEndpoint))
	fmt.Printf("  Inference API key:  %s\n", presence(cfg.AzureOpenAIKey))
	fmt.Printf("  Deployment:         %s\n", cfg.AzureOpenAIDeployment)
	fmt.Printf("  Output directory:   %s\n", cfg.OutputDir)
	fmt.Printf("  Max results:        %d\n", cfg.MaxSearchResults)

	if err := cfg.Validate(); err != nil {
		fmt.Println("\nStatus: not ready")
		return err
	}
	fmt.Println("\nStatus: ready")
	return nil
}

func presence(v string) string {
	if v == "" {
		return "missing"
	}
	return "configured"
}

func runInteractive(ctx context.Context, agg *aggregator.Aggregator) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Enter a topic per line; 'quit' or 'exit' to stop.")

	for {
		fmt.Print("> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			// EOF counts as an exit signal
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case input == "quit" || input == "exit":
			return nil
		}

		result := agg.ProcessTopic(ctx, input, 0)
		if result.Status == aggregator.StatusFailed {
			slog.Error("topic failed", "topic", result.Topic, "error", result.Err)
			continue
		}
		fmt.Print(report.QuickSummary(result.Report, result.ReportPath))
	}
}
