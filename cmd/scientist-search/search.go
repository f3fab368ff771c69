package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/scientist-search-service/internal/config"
	"github.com/helixir/scientist-search-service/internal/domain"
	"github.com/helixir/scientist-search-service/internal/observability"
	"github.com/helixir/scientist-search-service/internal/papersources"
	"github.com/helixir/scientist-search-service/internal/papersources/pubmed"
	"github.com/helixir/scientist-search-service/internal/scientist"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search PubMed for scientists or articles",
	Long: `Search builds a PubMed query from the given keywords (OR-ed together) and
affiliations (matched against author addresses), fetches one page of articles
and prints the distinct authors with an estimated pagination envelope.

With --articles the parsed articles are printed instead of their authors.`,
	Example: `  scientist-search search --keyword cancer --affiliation Boston
  scientist-search search -k CRISPR -k "gene editing" --page 2 --limit 20
  scientist-search search -a MIT -a Harvard --articles`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArrayP("keyword", "k", nil, "keyword term (repeatable)")
	searchCmd.Flags().StringArrayP("affiliation", "a", nil, "author affiliation term (repeatable)")
	searchCmd.Flags().Int("page", 1, "page number, starting at 1")
	searchCmd.Flags().Int("limit", 0, "page size (default: search.default_limit)")
	searchCmd.Flags().Bool("articles", false, "print articles instead of scientists")
	searchCmd.Flags().BoolP("verbose", "v", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	keywords, _ := cmd.Flags().GetStringArray("keyword")
	affiliations, _ := cmd.Flags().GetStringArray("affiliation")
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	articles, _ := cmd.Flags().GetBool("articles")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if limit == 0 {
		limit = cfg.Search.DefaultLimit
	}
	if limit > cfg.Search.MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", cfg.Search.MaxLimit)
	}

	logger := zerolog.Nop()
	if verbose {
		logger = observability.NewLogger(observability.LoggingConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			TimeFormat: cfg.Logging.TimeFormat,
		})
	}

	source := newSource(cfg, logger)
	service := scientist.NewService(source, logger, nil)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := domain.SearchRequest{
		Keywords:     keywords,
		Affiliations: affiliations,
		Page:         page,
		Limit:        limit,
	}

	var result any
	if articles {
		result, err = service.SearchArticlesPage(ctx, req)
	} else {
		result, err = service.SearchScientists(ctx, req)
	}
	if err != nil {
		return err
	}

	return printJSON(cmd, result)
}

func newSource(cfg *config.Config, logger zerolog.Logger) papersources.DocumentSource {
	return pubmed.New(pubmed.Config{
		BaseURL:    cfg.PubMed.BaseURL,
		APIKey:     cfg.PubMed.APIKey,
		Tool:       cfg.PubMed.Tool,
		Email:      cfg.PubMed.Email,
		Timeout:    cfg.PubMed.Timeout,
		RateLimit:  cfg.PubMed.RateLimit,
		BurstSize:  cfg.PubMed.BurstSize,
		MaxRetries: cfg.PubMed.MaxRetries,
	}, logger, nil)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "failed to write result:", err)
		return err
	}
	return nil
}
