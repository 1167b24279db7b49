package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jusunglee/mostlybot/internal/llm"
	"google.golang.org/genai"
)

type Model string

const (
	ModelGemma3_27B     Model = "gemma-3-27b-it"
	ModelGemini2_5Flash Model = "gemini-2.5-flash"
)

var DefaultModel Model = ModelGemini2_5Flash

const maxOutputTokens = 300

type Client struct {
	client *genai.Client
	model  Model
}

var _ llm.Client = (*Client)(nil)

func NewClient(ctx context.Context, apiKey string, model Model) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{MaxOutputTokens: maxOutputTokens}
	contents := genai.Text(prompt)

	// Gemma rejects system instructions, fold them into the prompt instead
	if strings.HasPrefix(string(c.model), "gemma") {
		contents = genai.Text(system + "\n\n" + prompt)
	} else {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, string(c.model), contents, config)
	if err != nil {
		return "", fmt.Errorf("google API call failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", errors.New("empty response from google")
	}
	return llm.StripMarkdownCodeBlocks(text), nil
}
