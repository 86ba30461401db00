package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

const (
	defaultModel = "gemini-2.5-flash"
	jsonMIMEType = "application/json"
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type chatsAdapter struct {
	chats *genai.Chats
}

func (a chatsAdapter) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := a.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Request is one structured generation call.
type Request struct {
	System string
	Prompt string
	Images []*ai.Snapshot
	// Schema, when set, asks Gemini for a JSON reply matching it.
	Schema *genai.Schema
}

// Generator talks to Gemini with a single API key.
type Generator struct {
	chats       chatCreator
	model       string
	temperature *float32
	logger      *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		chats:  chatsAdapter{chats: client.Chats},
		model:  model,
		logger: logger,
	}, nil
}

// SetTemperature overrides the sampling temperature. Zero keeps the model default.
func (g *Generator) SetTemperature(t float32) {
	if t <= 0 {
		g.temperature = nil
		return
	}
	g.temperature = &t
}

// Generate sends the request and returns the concatenated text of the reply.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{Temperature: g.temperature}
	if system := strings.TrimSpace(req.System); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.Schema != nil {
		config.ResponseMIMEType = jsonMIMEType
		config.ResponseSchema = req.Schema
	}

	parts := make([]genai.Part, 0, 1+len(req.Images))
	parts = append(parts, genai.Part{Text: prompt})
	for _, image := range req.Images {
		if image == nil || len(image.Data) == 0 {
			continue
		}
		parts = append(parts, genai.Part{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: image.Data}})
	}

	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	g.logger.Debug("gemini send message",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.Int("images", len(parts)-1),
	)

	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
