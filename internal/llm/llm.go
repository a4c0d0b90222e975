// Package llm optionally rewrites the executive summary through an
// OpenAI-compatible chat completions API. The deterministic summary is
// always computed first; this layer only polishes the wording, and any
// failure leaves the deterministic text in place.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/site-audit/siteaudit/internal/classify"
	"github.com/site-audit/siteaudit/internal/report"
)

const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	groqModel     = "llama-3.1-8b-instant"
	openaiBaseURL = "https://api.openai.com/v1"
	openaiModel   = "gpt-4o-mini"
)

const systemPrompt = "You are a web consultant writing an executive summary of a website audit. " +
	"You receive a JSON object describing the audit sections. " +
	"Answer with a JSON object holding exactly these string keys: " +
	"overall, performance, seo, ux, accessibility, conversion, critical_bottlenecks. " +
	"Each value must be a single plain sentence of advice, without URLs, numbers or markup."

// Client talks to one OpenAI-compatible endpoint. A key starting with
// "gsk_" selects Groq defaults, anything else OpenAI defaults.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// New builds a client. model and baseURL override the provider
// defaults when non-empty. A client with an empty key is disabled.
func New(apiKey, model, baseURL string) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
	}
	if strings.HasPrefix(apiKey, "gsk_") {
		c.baseURL, c.model = groqBaseURL, groqModel
	} else {
		c.baseURL, c.model = openaiBaseURL, openaiModel
	}
	if model != "" {
		c.model = model
	}
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// Enabled reports whether a key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type chatRequest struct {
	Model          string         `json:"model"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
	Messages       []chatMessage  `json:"messages"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type sectionPayload struct {
	Status      string           `json:"status"`
	Summary     string           `json:"summary"`
	Findings    []findingPayload `json:"findings,omitempty"`
	NextActions []string         `json:"next_actions,omitempty"`
}

type findingPayload struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	HowToFix string `json:"how_to_fix"`
}

// RefineSummary asks the model for a rewritten summary. It returns an
// error when the endpoint fails or the answer does not carry every key
// as a non-empty string; callers keep the deterministic text then.
func (c *Client) RefineSummary(ctx context.Context, r *report.Report) (map[string]string, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("llm: no API key configured")
	}

	payload, err := json.Marshal(summaryPayload(r))
	if err != nil {
		return nil, fmt.Errorf("llm: encode payload: %w", err)
	}

	reqBody, err := json.Marshal(chatRequest{
		Model:          c.model,
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(payload)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: endpoint returned %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("llm: response carries no choices")
	}

	var answer map[string]string
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &answer); err != nil {
		return nil, fmt.Errorf("llm: answer is not a JSON object of strings: %w", err)
	}

	out := make(map[string]string, len(report.SummaryKeys))
	for _, key := range report.SummaryKeys {
		sentence := report.SingleSentence(answer[key])
		if sentence == "" {
			return nil, fmt.Errorf("llm: answer misses key %q", key)
		}
		out[key] = sentence
	}
	return out, nil
}

// summaryPayload projects the report onto the compact shape the model
// sees: per-section status, summary, the worst three findings and the
// first three next actions.
func summaryPayload(r *report.Report) map[string]sectionPayload {
	payload := make(map[string]sectionPayload)
	for _, s := range r.Sections {
		key := string(s.ID)
		p := sectionPayload{Summary: s.Summary}
		if s.Score != nil {
			p.Status = string(s.Score.Status)
		}
		for _, f := range s.Findings {
			if f.Kind != classify.KindWeakness && f.Kind != classify.KindCriticalBottleneck {
				continue
			}
			p.Findings = append(p.Findings, findingPayload{
				Severity: string(f.Severity),
				Title:    f.Title,
				HowToFix: f.Remediation,
			})
			if len(p.Findings) == 3 {
				break
			}
		}
		if len(s.NextActions) > 3 {
			p.NextActions = s.NextActions[:3]
		} else {
			p.NextActions = s.NextActions
		}
		payload[key] = p
	}
	return payload
}
