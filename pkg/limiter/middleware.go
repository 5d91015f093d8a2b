package limiter

import (
	"context"

	"director/pkg/llm"
	"director/pkg/utils"
)

// Pricing holds per-million-token USD prices for spend accounting.
type Pricing struct {
	InputPerMTok  float64 `json:"input_per_mtok"`
	OutputPerMTok float64 `json:"output_per_mtok"`
}

// Cost computes the USD cost of one call.
func (p Pricing) Cost(promptTokens, completionTokens int) float64 {
	const mtok = 1_000_000
	return float64(promptTokens)/mtok*p.InputPerMTok + float64(completionTokens)/mtok*p.OutputPerMTok
}

// estimateTokens approximates a request's prompt tokens plus the reserved
// output budget, which is what the bucket should charge up front.
func estimateTokens(req llm.CompletionRequest) int {
	var promptText string
	for i := range req.Messages {
		promptText += req.Messages[i].Content + "\n"
	}
	return utils.CountTokensSimple(promptText) + req.MaxTokens
}

// Middleware enforces the limiter around every Complete call: it charges the
// token bucket before the request and records USD spend after. sessionID is
// a label for contention logging only.
func Middleware(l *TokenBucketLimiter, pricing Pricing, sessionID string) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				tokens := estimateTokens(req)
				release, err := l.Acquire(ctx, tokens, sessionID)
				if err != nil {
					return llm.CompletionResponse{}, err
				}
				defer release()

				resp, err := next.Complete(ctx, req)
				if err != nil {
					return llm.CompletionResponse{}, err
				}

				promptTokens := tokens - req.MaxTokens
				completionTokens := utils.CountTokensSimple(resp.Content)
				l.RecordSpend(pricing.Cost(promptTokens, completionTokens))
				return resp, nil
			},
			next.Stream,
			next.GetModelName,
		)
	}
}
