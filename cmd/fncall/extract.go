package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/client"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/client/middleware"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/cost"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/extract"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/overview"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/config"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/scrape"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/utils"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai/openai"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability/otelobs"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability/slogobs"
)

var errNoRows = errors.New("no table rows found")

const systemPrompt = "You convert HTML table fragments into structured data. " +
	"Every fragment starts with the header row. Copy cell text verbatim."

type extractOptions struct {
	url        string
	out        string
	chunkSize  int
	maxRetries int
	model      string
	markdown   bool
	seed       *int
}

// extractSummary is printed when the command completes.
type extractSummary struct {
	URL     string   `json:"url"`
	Output  string   `json:"output"`
	Chunks  int      `json:"chunks"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`

	Calls int           `json:"calls"`
	Usage ai.Usage      `json:"usage"`
	Cost  *cost.Summary `json:"cost,omitempty"`
}

func newExtractCmd(a *app) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the first table of a web page into JSON",
		Long: `Fetches the page, keeps the first <table>, splits its rows into chunks that
each repeat the header row and asks the model to extract every chunk into
the Table shape (see "fncall schema"). The merged result is written to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if cmd.Flags().Changed("chunk-size") {
				a.cfg.Scrape.ChunkSize = opts.chunkSize
			}
			if cmd.Flags().Changed("max-retries") {
				a.cfg.Extraction.MaxRetries = opts.maxRetries
			}
			if opts.model != "" {
				a.cfg.Provider.Model = opts.model
			}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetInt("seed")
				opts.seed = utils.Ptr(seed)
			}

			summary, err := runExtract(cmd.Context(), a.cfg, a.logger, opts)
			if err != nil {
				return err
			}
			return a.output(cmd, summary)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "page containing the table (required)")
	cmd.Flags().StringVar(&opts.out, "out", "output.json", "file the extracted table is written to")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", scrape.DefaultChunkSize, "data rows per model call")
	cmd.Flags().IntVar(&opts.maxRetries, "max-retries", extract.DefaultMaxRetries, "corrective retries per chunk")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides provider.model)")
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "send chunks as Markdown tables instead of HTML rows")
	cmd.Flags().Int("seed", 0, "sampling seed, for providers that support reproducible outputs")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func runExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts *extractOptions) (*extractSummary, error) {
	observer, shutdown := newObserver(cfg.Log.Observer, logger)
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("observer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	scraper := scrape.New(
		scrape.WithUserAgent(cfg.Scrape.UserAgent),
		scrape.WithTimeout(cfg.ScrapeTimeout()),
		scrape.WithLogger(logger),
	)
	rows, err := scraper.Table(ctx, opts.url)
	if err != nil {
		return nil, err
	}
	chunks := scrape.Chunk(rows, cfg.Scrape.ChunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w at %s", errNoRows, opts.url)
	}

	run := overview.New()
	c, err := newClient(cfg, logger, observer, run)
	if err != nil {
		return nil, err
	}
	create := extract.Patch(c.SendFunc(),
		extract.WithLogger(logger),
		extract.WithObserver(observer),
		extract.WithJSONRepair(cfg.Extraction.RepairJSON),
	)

	var merged Table
	for i, chunk := range chunks {
		prompt, err := renderChunk(chunk, opts.markdown)
		if err != nil {
			return nil, err
		}

		request := &ai.ChatRequest{
			Messages: []ai.Message{{Role: ai.RoleUser, Content: prompt}},
		}
		if opts.seed != nil {
			request.GenerationConfig = &ai.GenerationConfig{Seed: opts.seed}
		}
		table, _, err := extract.Extract[Table](ctx, create, request,
			extract.WithMaxRetries(cfg.Extraction.MaxRetries),
			extract.WithStrict(cfg.Extraction.Strict),
		)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}
		logger.InfoContext(ctx, "chunk extracted",
			slog.Int("chunk", i+1),
			slog.Int("chunks", len(chunks)),
			slog.Int("rows", len(table.Rows)),
		)
		merged.merge(table)
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	if err := scrape.SaveJSON(opts.out, raw); err != nil {
		return nil, err
	}

	stats := run.Snapshot()
	summary := &extractSummary{
		URL:     opts.url,
		Output:  opts.out,
		Chunks:  len(chunks),
		Rows:    len(merged.Rows),
		Columns: merged.Columns,
		Calls:   stats.Calls,
		Usage:   stats.Usage,
	}
	attrs := []any{
		slog.Int("calls", stats.Calls),
		slog.Int("total_tokens", stats.Usage.TotalTokens),
		slog.Duration("duration", stats.Duration),
	}
	if !cfg.Provider.Pricing.IsZero() {
		price := cfg.Provider.Pricing.Summary(stats.Usage)
		summary.Cost = &price
		attrs = append(attrs, slog.String("cost", price.String()))
	}
	logger.InfoContext(ctx, "extraction finished", attrs...)
	return summary, nil
}

func renderChunk(chunk []*html.Node, markdown bool) (string, error) {
	if markdown {
		return scrape.Markdown(chunk)
	}
	return scrape.RenderHTML(chunk)
}

// newClient assembles the provider and the send chain: observability
// outermost, then logging, transport retries, the per-attempt timeout and
// the usage tally, which sees every provider call.
func newClient(cfg *config.Config, logger *slog.Logger, observer observability.Provider, run *overview.Overview) (*client.Client, error) {
	provider := openai.New(
		openai.WithLegacyFunctions(cfg.Provider.UseLegacyFunctions),
		openai.WithMaxRetries(0),
	)
	provider.WithBaseURL(cfg.Provider.BaseURL)
	provider.WithAPIKey(cfg.Provider.APIKey)

	middlewares := []client.Middleware{
		middleware.NewLoggingMiddleware(logger, middleware.ParseLogLevel(cfg.Log.Requests)),
	}
	if cfg.Provider.MaxTransportRetries > 0 {
		middlewares = append(middlewares, middleware.NewRetryMiddleware(middleware.RetryConfig{
			MaxRetries: uint(cfg.Provider.MaxTransportRetries),
			OnRetry: func(n uint, err error) {
				logger.Warn("retrying llm send", slog.Uint64("retry", uint64(n)+1), slog.String("error", err.Error()))
			},
		}))
	}
	middlewares = append(middlewares,
		middleware.NewTimeoutMiddleware(cfg.ProviderTimeout()),
		run.Middleware(),
	)

	opts := []client.Option{
		client.WithDefaultModel(cfg.Provider.Model),
		client.WithSystemPrompt(systemPrompt),
		client.WithMiddleware(middlewares...),
	}
	if observer != nil {
		opts = append(opts, client.WithObserver(observer))
	}
	return client.New(provider, opts...)
}

// newObserver returns the configured observer, nil for "none", and a
// shutdown function that is always safe to call.
func newObserver(kind string, logger *slog.Logger) (observability.Provider, func(context.Context) error) {
	noop := func(context.Context) error { return nil }
	switch kind {
	case "otel":
		sdk := otelobs.NewSDK(logger)
		return sdk, sdk.Shutdown
	case "slog":
		return slogobs.New(slogobs.WithLogger(logger)), noop
	default:
		return nil, noop
	}
}
