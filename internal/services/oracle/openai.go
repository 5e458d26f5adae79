package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mcoot/gomoku-arena/internal/model"
)

// OpenAIConfig holds settings shared by every chat-completions call
type OpenAIConfig struct {
	MaxTokens   int
	Temperature float32
	HTTPTimeout time.Duration
}

// DefaultOpenAIConfig returns default chat-completions settings
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		MaxTokens:   50,
		Temperature: 0.2,
		HTTPTimeout: 90 * time.Second,
	}
}

// OpenAI asks an OpenAI-compatible chat-completions endpoint for moves. The
// endpoint, key and model come from each player's AIConfig.
type OpenAI struct {
	httpClient *http.Client
	cfg        OpenAIConfig
	logger     *slog.Logger
}

// Ensure OpenAI implements Oracle
var _ Oracle = (*OpenAI)(nil)

// NewOpenAI creates a new OpenAI-compatible oracle
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAI {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultOpenAIConfig().MaxTokens
	}
	return &OpenAI{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "openai-oracle")),
	}
}

// Propose sends the board to the player's model and parses its reply
func (o *OpenAI) Propose(ctx context.Context, req Request) (Proposal, error) {
	aiCfg := req.Config.Normalize()

	clientCfg := openai.DefaultConfig(aiCfg.Key)
	if aiCfg.URL != "" {
		clientCfg.BaseURL = aiCfg.URL
	}
	clientCfg.HTTPClient = o.httpClient
	client := openai.NewClientWithConfig(clientCfg)

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: aiCfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		o.logger.Warn("chat completion failed",
			slog.String("model", aiCfg.Model),
			slog.Int("player", int(req.Player)),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return Proposal{}, err
	}

	if len(resp.Choices) == 0 {
		return Proposal{}, fmt.Errorf("%w: empty reply", model.ErrNoMoveProposed)
	}

	move, err := ParseMove(resp.Choices[0].Message.Content)
	if err != nil {
		return Proposal{}, err
	}

	o.logger.Debug("move proposed",
		slog.String("model", aiCfg.Model),
		slog.Int("player", int(req.Player)),
		slog.Int("x", move.X),
		slog.Int("y", move.Y),
		slog.Duration("duration", time.Since(start)),
	)

	return Proposal{
		Move: move,
		Log:  fmt.Sprintf("AI player %d chose (%d,%d)", int(req.Player), move.X, move.Y),
	}, nil
}
