// Package compiler orchestrates prompt build, model invocation,
// interpretation and fallback behind the single Transform contract.
package compiler

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finquery/internal/domain/query"
	"github.com/kailas-cloud/finquery/internal/domain/transform"
	"github.com/kailas-cloud/finquery/internal/metrics"
)

// emptyInputAnswer is the terminal reply for empty input. The model is never
// invoked for it.
const emptyInputAnswer = "Please enter a search query."

// Compiler is the facade callers use. It is stateless across calls; the
// prompt builder, provider handle and interpreter are read-only and safe for
// concurrent use.
type Compiler struct {
	prompts Prompter
	prov    Provider
	interp  Interpreter
	logger  *zap.Logger
}

// New creates a compiler.
func New(prompts Prompter, prov Provider, interp Interpreter, logger *zap.Logger) *Compiler {
	return &Compiler{prompts: prompts, prov: prov, interp: interp, logger: logger}
}

// Transform turns a natural-language query into a result. It is total: every
// failure past input validation degrades to a match-all search so downstream
// execution always receives a runnable query. The provider is invoked exactly
// once per call; retries belong to the caller.
func (c *Compiler) Transform(ctx context.Context, nlQuery string) transform.Result {
	if strings.TrimSpace(nlQuery) == "" {
		metrics.TransformsTotal.WithLabelValues("rejected").Inc()
		res, _ := transform.NewAnswer(emptyInputAnswer)
		return res
	}

	sysCtx, instruction := c.prompts.Build(nlQuery)

	raw, err := c.prov.Invoke(ctx, sysCtx, instruction)
	if err != nil {
		c.logger.Error("Model provider failed, degrading to match-all",
			zap.String("input", nlQuery),
			zap.Error(err),
		)
		return c.fallback()
	}

	res, err := c.interp.Interpret(raw)
	if err != nil {
		fields := []zap.Field{
			zap.String("input", nlQuery),
			zap.String("raw_output", raw),
			zap.Error(err),
		}
		var sv *transform.SchemaViolationError
		if errors.As(err, &sv) {
			fields = append(fields, zap.String("violations", query.JoinViolations(sv.Violations)))
		}
		c.logger.Error("Uninterpretable model output, degrading to match-all", fields...)
		return c.fallback()
	}

	if res.IsSearch() {
		metrics.TransformsTotal.WithLabelValues("search").Inc()
	} else {
		metrics.TransformsTotal.WithLabelValues("answer").Inc()
	}
	return res
}

func (c *Compiler) fallback() transform.Result {
	metrics.TransformsTotal.WithLabelValues("fallback").Inc()
	res, _ := transform.NewSearch("", query.MatchAll())
	return res
}
