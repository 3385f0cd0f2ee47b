package predict

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stock-advisor/internal/domain"
)

const (
	providerName   = "llm"
	recentBars     = 5
	systemPrompt   = "You are an equity analyst for the Indian stock market. Answer tersely and always start with the three requested lines."
	defaultBaseURL = "https://openrouter.ai/api/v1/"
)

// ChatClient sends one system+user exchange and returns the reply text.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type LLMPredictor struct {
	tracer trace.Tracer
	chat   ChatClient
}

func NewLLMPredictor(tracer trace.Tracer, chat ChatClient) *LLMPredictor {
	return &LLMPredictor{tracer: tracer, chat: chat}
}

func (p *LLMPredictor) Predict(ctx context.Context, in Input) (domain.Prediction, error) {
	ctx, span := p.tracer.Start(ctx, "predict.llm")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", in.Symbol))

	if p.chat == nil {
		return domain.Prediction{}, domain.ErrCollaboratorDisabled
	}

	reply, err := p.chat.Complete(ctx, systemPrompt, BuildPrompt(in))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Prediction{}, &domain.UpstreamProviderError{Provider: providerName, Op: "chat completion", Err: err}
	}

	pred, err := ParseReply(reply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Prediction{}, &domain.UpstreamProviderError{Provider: providerName, Op: "parse reply", Err: err}
	}
	span.SetAttributes(
		attribute.String("direction", string(pred.Direction)),
		attribute.Float64("confidence", pred.Confidence),
	)
	return pred, nil
}

// BuildPrompt renders the last few closes and the snapshot flags.
func BuildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following data for %s, predict whether the stock price will go up or down in the next trading day.\n\n", in.Symbol)

	b.WriteString("Recent closes:\n")
	bars := in.Series.Bars
	if len(bars) > recentBars {
		bars = bars[len(bars)-recentBars:]
	}
	for _, bar := range bars {
		fmt.Fprintf(&b, "%s: %.2f\n", bar.Date.Format("2006-01-02"), bar.Close)
	}

	s := in.Snapshot
	b.WriteString("\nTechnical indicators:\n")
	fmt.Fprintf(&b, "Price above 20-day SMA: %s\n", flagText(s.SMA20, s.PriceAboveSMA20))
	fmt.Fprintf(&b, "Price above 50-day SMA: %s\n", flagText(s.SMA50, s.PriceAboveSMA50))
	fmt.Fprintf(&b, "Price above 200-day SMA: %s\n", flagText(s.SMA200, s.PriceAboveSMA200))
	fmt.Fprintf(&b, "Golden cross: %t\n", s.GoldenCross)
	fmt.Fprintf(&b, "Death cross: %t\n", s.DeathCross)
	fmt.Fprintf(&b, "RSI(14): %s\n", valueText(s.RSI))
	fmt.Fprintf(&b, "RSI overbought: %s\n", flagText(s.RSI, s.Overbought))
	fmt.Fprintf(&b, "RSI oversold: %s\n", flagText(s.RSI, s.Oversold))
	fmt.Fprintf(&b, "MACD above signal: %s\n", flagText(s.MACDSignal, s.MACDAboveSignal))
	fmt.Fprintf(&b, "MACD positive: %s\n", flagText(s.MACD, s.MACDPositive))
	if s.BBPosition != "" {
		fmt.Fprintf(&b, "Bollinger position: %s\n", s.BBPosition)
	}
	fmt.Fprintf(&b, "Stochastic %%K: %s\n", valueText(s.StochK))

	b.WriteString("\nReply with exactly these first three lines, then a short explanation:\n")
	b.WriteString("DIRECTION: UP or DOWN\nCONFIDENCE: <0-100>%\nRETURN: <expected next-day return, e.g. +0.8%>\n")
	return b.String()
}

func flagText(input *float64, v bool) string {
	if input == nil {
		return "unknown"
	}
	return fmt.Sprintf("%t", v)
}

func valueText(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2f", *v)
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
}

// OpenAIChat talks to any OpenAI-compatible chat completions endpoint.
type OpenAIChat struct {
	client openai.Client
	model  string
}

func NewOpenAIChat(cfg OpenAIConfig) *OpenAIChat {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(1),
	}
	if cfg.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	return &OpenAIChat{client: openai.NewClient(opts...), model: cfg.Model}
}

func (c *OpenAIChat) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(400),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in completion %s", resp.ID)
	}
	return resp.Choices[0].Message.Content, nil
}
