package ocr

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	geminiMaxTokens    = 2048
)

const transcribePrompt = `Extract all text from this image exactly as written.
Preserve line breaks and the reading order of tables.
Return only the extracted text, with no commentary.`

// Gemini transcribes images with a remote multimodal model. Without an API key
// the engine reports ErrUnavailable.
type Gemini struct {
	model  string
	client *Lazy[*genai.Client]
}

func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		model: model,
		client: NewLazy(func(ctx context.Context) (*genai.Client, error) {
			if apiKey == "" {
				return nil, fmt.Errorf("%w: gemini API key is not set", ErrUnavailable)
			}
			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: failed to create gemini client: %v", ErrUnavailable, err)
			}
			return client, nil
		}),
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Recognize(ctx context.Context, img Image) (string, error) {
	client, err := g.client.Get(ctx)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIME}},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: geminiMaxTokens,
		Temperature:     genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	return resp.Text(), nil
}
