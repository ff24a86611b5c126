package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

const _model = "gemini-2.5-flash"

const (
	_describePrompt  = "Describe the above picture (maximum 50 words) in English."
	_questionsPrompt = `Set 10 questions for the picture above and return the result in English in JSON format with the structure: {"questions": ["question 1", "question 2", "question 3"]}`
	_answerPrompt    = `Answer the following question in English based on the picture: %q`
)

// Client talks to the Gemini API. One client is built per pipeline
// invocation from a freshly fetched API key.
type Client struct {
	client *genai.Client
}

func New(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini - New - genai.NewClient: %w", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	text, err := c.generate(ctx, _describePrompt, image, mimeType, nil)
	if err != nil {
		return "", fmt.Errorf("gemini - Describe: %w", err)
	}

	return text, nil
}

// ListQuestions asks for the question set with a JSON-constrained decoding
// configuration, then runs the typed decode. Parse or shape failures surface
// as errors for the caller to degrade on.
func (c *Client) ListQuestions(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(1.0)),
		TopP:             genai.Ptr(float32(0.95)),
		TopK:             genai.Ptr(float32(40)),
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"questions": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
		},
	}

	text, err := c.generate(ctx, _questionsPrompt, image, mimeType, config)
	if err != nil {
		return nil, fmt.Errorf("gemini - ListQuestions: %w", err)
	}

	questions, err := parseQuestions(text)
	if err != nil {
		return nil, fmt.Errorf("gemini - ListQuestions - parseQuestions: %w", err)
	}

	return questions, nil
}

func (c *Client) Answer(ctx context.Context, question string, image []byte, mimeType string) (string, error) {
	text, err := c.generate(ctx, fmt.Sprintf(_answerPrompt, question), image, mimeType, nil)
	if err != nil {
		return "", fmt.Errorf("gemini - Answer: %w", err)
	}

	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string, image []byte, mimeType string, config *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				// the picture goes first, the prompts refer to it as "above"
				{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
				{Text: prompt},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, _model, contents, config)
	if err != nil {
		return "", fmt.Errorf("c.client.Models.GenerateContent: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty response content")
	}

	var text string
	for i, part := range candidate.Content.Parts {
		if i > 0 {
			text += "\n"
		}
		text += part.Text
	}

	return text, nil
}

func parseQuestions(text string) ([]string, error) {
	var payload struct {
		Questions []string `json:"questions"`
	}

	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	if payload.Questions == nil {
		return nil, fmt.Errorf("questions field missing or not an array")
	}

	return payload.Questions, nil
}
