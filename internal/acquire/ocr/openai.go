package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const transcribePrompt = `Transcribe every piece of text printed on this invoice page.

Rules:
- Output plain text only, no markdown and no commentary.
- Keep the reading order and put each printed line on its own line.
- Keep table rows on one line with cells separated by two spaces.
- Copy numbers, GSTIN codes and HSN codes exactly as printed.
- If the page is blank, output nothing.`

// chatCompleter is the subset of *openai.Client used by the engine.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIEngine transcribes page images with a vision chat model.
type OpenAIEngine struct {
	client    chatCompleter
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewOpenAIEngine creates a new vision model OCR engine
func NewOpenAIEngine(cfg OpenAIConfig, logger *zap.Logger) *OpenAIEngine {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return newOpenAIEngine(openai.NewClientWithConfig(clientCfg), cfg, logger)
}

func newOpenAIEngine(client chatCompleter, cfg OpenAIConfig, logger *zap.Logger) *OpenAIEngine {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &OpenAIEngine{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Name returns the engine name
func (e *OpenAIEngine) Name() string {
	return EngineOpenAI
}

// Recognize sends the page as a JPEG data URL and returns the transcription.
func (e *OpenAIEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an OCR engine. You return the exact text printed on document images.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: transcribePrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from vision API")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	e.logger.Debug("Vision OCR page transcribed",
		zap.String("model", e.model),
		zap.Int("image_bytes", buf.Len()),
		zap.Int("text_length", len(text)))

	return text, nil
}
