package ai

import "context"

// Oracle is the external reasoning capability. It receives a fully rendered
// prompt and returns the raw model text.
type Oracle interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

func (f OracleFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
