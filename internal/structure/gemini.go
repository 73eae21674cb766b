// Package structure turns raw OCR text into a delimited invoice item
// table via a hosted text-structuring service.
package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// tablePrompt instructs the model to emit the 7-column layout the
// extract package expects: pipe-separated values, newline-separated rows.
const tablePrompt = "This is extracted OCR text. Return one line per invoice item with " +
	"'|' separated values in this exact column order: item name, quantity, " +
	"unit of measure as printed on the invoice, net price, net worth, vat, gross. " +
	"Separate items with '\\n'. No additional context, formatting or commentary."

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash-lite"

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Structurer produces a delimited item table from OCR text.
type Structurer interface {
	Table(ctx context.Context, text string) (string, error)
}

// Gemini is a Structurer backed by the Gemini generateContent REST API.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewGemini creates a Gemini client. The API key is required here, at
// construction time, rather than read from the environment on first use.
func NewGemini(apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Table sends text with the table prompt and returns the model's reply.
func (g *Gemini) Table(ctx context.Context, text string) (string, error) {
	payload := generateRequest{
		Contents: []content{{Parts: []part{{
			Text: tablePrompt + "\n\nDocument Text:\n" + text,
		}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.2,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 2048,
		},
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gemini: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %s: %s", resp.Status, body)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
