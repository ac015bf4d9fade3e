package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrEmptyResponse is returned when the model answers with no content.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrImagesDisabled is returned by models built without an image model.
	ErrImagesDisabled = errors.New("image generation is not configured")
)

// Model is the remote generation backend.
type Model interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// GeminiModel implements Model with the Google Gen AI SDK.
type GeminiModel struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewGeminiModel creates a Gemini-backed model. imageModel may be empty
// to disable image rendering.
func NewGeminiModel(ctx context.Context, apiKey, textModel, imageModel string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if textModel == "" {
		textModel = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiModel{
		client:     client,
		textModel:  textModel,
		imageModel: imageModel,
	}, nil
}

// TextModel returns the configured text model name.
func (m *GeminiModel) TextModel() string { return m.textModel }

// ImageModel returns the configured image model name.
func (m *GeminiModel) ImageModel() string { return m.imageModel }

// GenerateText sends a single user prompt and returns the concatenated text parts.
func (m *GeminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.textModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate content failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateImage renders one image for prompt.
func (m *GeminiModel) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if m.imageModel == "" {
		return nil, ErrImagesDisabled
	}

	resp, err := m.client.Models.GenerateImages(ctx, m.imageModel, prompt, &genai.GenerateImagesConfig{})
	if err != nil {
		return nil, fmt.Errorf("GenAI generate images failed: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, ErrEmptyResponse
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &Image{
		MIMEType: mime,
		DataURL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.ImageBytes),
	}, nil
}
