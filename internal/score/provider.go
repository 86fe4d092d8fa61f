package score

import "context"

// LLMProvider sends a prompt to a text-completion service and returns the raw
// text response. Used only by the LLM scorer; not exported to the rest of the
// system.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
