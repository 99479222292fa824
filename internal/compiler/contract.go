package compiler

import (
	"context"

	"github.com/kailas-cloud/finquery/internal/domain/transform"
)

// Provider invokes a language model. Implementations are selected at the
// composition root; the compiler never depends on a concrete provider.
type Provider interface {
	Invoke(ctx context.Context, systemContext, instruction string) (string, error)
}

// Prompter builds the model instruction set.
type Prompter interface {
	Build(nlQuery string) (systemContext, instruction string)
}

// Interpreter turns raw model output into a validated result.
type Interpreter interface {
	Interpret(raw string) (transform.Result, error)
}
