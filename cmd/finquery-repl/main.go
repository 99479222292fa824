// Command finquery-repl compiles natural-language queries interactively and
// prints the resulting search body, without going through the HTTP API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finquery/internal/compiler"
	"github.com/kailas-cloud/finquery/internal/config"
	"github.com/kailas-cloud/finquery/internal/domain/schema"
	"github.com/kailas-cloud/finquery/internal/interpret"
	logpkg "github.com/kailas-cloud/finquery/internal/logger"
	"github.com/kailas-cloud/finquery/internal/metrics"
	"github.com/kailas-cloud/finquery/internal/prompt"
	"github.com/kailas-cloud/finquery/internal/transport/elastic"
	"github.com/kailas-cloud/finquery/internal/transport/llm/langchain"
	llmOpenAI "github.com/kailas-cloud/finquery/internal/transport/llm/openai"
	"github.com/kailas-cloud/finquery/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterCompilerMetrics()

	ctx := context.Background()

	provider, err := buildProvider(ctx, cfg.LLM, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create model provider:", err)
		os.Exit(1)
	}

	registry := schema.Stocks()
	comp := compiler.New(
		prompt.NewBuilder(registry),
		provider,
		interpret.New(registry),
		logger,
	)

	// Hits are only printed when the index is reachable; the compiler
	// itself never needs it.
	var index *elastic.Client
	if len(cfg.Elastic.Addresses) > 0 {
		cl, err := elastic.New(elastic.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
			Index:     cfg.Elastic.Index,
		})
		if err == nil && cl.Ping(ctx) == nil {
			index = cl
		}
	}

	fmt.Printf("finquery repl %s (%s/%s). Type a query, or \"exit\" to quit.\n",
		version.String(), cfg.LLM.Provider, cfg.LLM.Model)
	if index == nil {
		fmt.Println("index unreachable, printing generated queries only")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		res := comp.Transform(ctx, line)
		if !res.IsSearch() {
			fmt.Println(res.Answer())
			continue
		}

		if res.Answer() != "" {
			fmt.Println("#", res.Answer())
		}
		body, err := json.MarshalIndent(res.Query(), "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "marshal query:", err)
			continue
		}
		fmt.Println(string(body))

		if index == nil {
			continue
		}
		hits, err := index.Search(ctx, res.Query())
		if err != nil {
			fmt.Fprintln(os.Stderr, "execute search:", err)
			continue
		}
		for i, h := range hits {
			if i == 10 {
				break
			}
			fmt.Printf("%2d. %-40v %.3f\n", i+1, h.Fields["name"], h.Score)
		}
	}
}

func buildProvider(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (compiler.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return llmOpenAI.New(&llmOpenAI.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		}), nil
	case "langchain":
		cl, err := langchain.New(ctx, &langchain.Config{
			Backend: cfg.Backend,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("langchain provider: %w", err)
		}
		return cl, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
