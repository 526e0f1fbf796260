package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskdo/internal/models"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 60 * time.Second

	systemInstruction = "You are a helpful assistant that generates improved todo tasks based on the user's input initial todo task name. " +
		"For example, if the user inputs \"Buy groceries tomorrow\", the output should be a todo task with the title \"Buy groceries\" and the due date of tomorrow.\n" +
		"Todays Date: "
)

// Client extracts structured task fields from free text via a Gemini-style
// generateContent endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type generateRequest struct {
	SystemInstruction content        `json:"system_instruction"`
	Contents          []content      `json:"contents"`
	GenerationConfig  generateConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateConfig struct {
	Temperature      float64        `json:"temperature"`
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs an extraction client. Empty baseURL and model fall
// back to the public Gemini endpoint and default model.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Extract sends the free text to the model and returns its best-effort
// guess. The guess may miss any field; callers apply fallbacks via Resolve.
func (c *Client) Extract(ctx context.Context, text string) (models.Extraction, error) {
	if c.apiKey == "" {
		return models.Extraction{}, fmt.Errorf("extraction service not configured")
	}

	reqBody := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: systemInstruction + time.Now().UTC().Format(time.RFC3339)}}},
		Contents:          []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: generateConfig{
			Temperature:      0.8,
			ResponseMimeType: "application/json",
			ResponseSchema: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"title":       map[string]any{"type": "STRING", "description": "The title of the todo task"},
					"description": map[string]any{"type": "STRING", "description": "The description/details of the todo task"},
					"due_date":    map[string]any{"type": "STRING", "description": "The due date of the todo task in RFC 3339 timestamp format"},
				},
				"required": []string{"title"},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.Extraction{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return models.Extraction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Extraction{}, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Extraction{}, fmt.Errorf("read response: %w", err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(raw, &genResp); err != nil {
		return models.Extraction{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 {
		if genResp.Error != nil && genResp.Error.Message != "" {
			return models.Extraction{}, fmt.Errorf("extraction service: %s", genResp.Error.Message)
		}
		return models.Extraction{}, fmt.Errorf("extraction service status %d", resp.StatusCode)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return models.Extraction{}, fmt.Errorf("extraction service returned no candidates")
	}

	var extraction models.Extraction
	if err := json.Unmarshal([]byte(genResp.Candidates[0].Content.Parts[0].Text), &extraction); err != nil {
		return models.Extraction{}, fmt.Errorf("decode extraction: %w", err)
	}
	return extraction, nil
}

// Resolve applies the fallback rules to an extraction: a missing title falls
// back to the original input, a missing description to empty, and an absent
// or unparseable due date to no due date.
func Resolve(input string, extraction models.Extraction) (title, description string, dueAt *time.Time) {
	title = extraction.Title
	if title == "" {
		title = input
	}
	description = extraction.Description
	dueAt = ParseDueDate(extraction.DueDate)
	return title, description, dueAt
}

// ParseDueDate parses the model's date-like string. Nothing about the
// contract guarantees the value is present or parseable, so failure means
// no due date rather than an error.
func ParseDueDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
