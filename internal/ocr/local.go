package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultLocalModel = "llava"
	localTimeout      = 120 * time.Second
	localPingTimeout  = 5 * time.Second
	localMaxTokens    = 2048
)

// LocalVision transcribes images with a vision model served behind an
// OpenAI-compatible API such as Ollama. The server and model are checked on
// first use.
type LocalVision struct {
	model  string
	client *Lazy[*openai.Client]
}

func NewLocalVision(baseURL, model string) *LocalVision {
	if model == "" {
		model = DefaultLocalModel
	}
	return &LocalVision{
		model: model,
		client: NewLazy(func(ctx context.Context) (*openai.Client, error) {
			if baseURL == "" {
				return nil, fmt.Errorf("%w: local OCR server is not configured", ErrUnavailable)
			}

			config := openai.DefaultConfig("local")
			config.BaseURL = strings.TrimRight(baseURL, "/")
			config.HTTPClient = &http.Client{Timeout: localTimeout}
			client := openai.NewClientWithConfig(config)

			ctx, cancel := context.WithTimeout(ctx, localPingTimeout)
			defer cancel()

			models, err := client.ListModels(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: local OCR server unreachable: %v", ErrUnavailable, err)
			}
			for _, m := range models.Models {
				if m.ID == model || strings.HasPrefix(m.ID, model+":") {
					slog.Info("Local OCR model ready", "model", m.ID, "url", baseURL)
					return client, nil
				}
			}
			return nil, fmt.Errorf("%w: model %q not served by %s", ErrUnavailable, model, baseURL)
		}),
	}
}

func (l *LocalVision) Name() string { return "local-vision" }

func (l *LocalVision) Recognize(ctx context.Context, img Image) (string, error) {
	client, err := l.client.Get(ctx)
	if err != nil {
		return "", err
	}

	dataURI := "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     l.model,
		MaxTokens: localMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: transcribePrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURI,
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("local OCR request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
