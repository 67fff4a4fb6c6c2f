// Package thread maps local coach conversations to the model
// provider's conversation/response primitives so follow-up turns carry
// context without resending full history.
package thread

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider is the external conversation/response threading capability.
type Provider interface {
	// CreateConversation creates a provider-side conversation and
	// returns its opaque identifier.
	CreateConversation(ctx context.Context) (string, error)

	// CreateResponse generates the next turn, anchored either to a
	// conversation or to the previous response.
	CreateResponse(ctx context.Context, req *ResponseRequest) (*Response, error)
}

// ResponseRequest carries exactly one anchor: PreviousResponseID when
// the chain already exists, ConversationID otherwise.
type ResponseRequest struct {
	ConversationID     string
	PreviousResponseID string
	Instructions       string
	Input              string
}

// Response is the provider's generated turn.
type Response struct {
	ID   string
	Text string
}

// Config represents thread provider configuration.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
}

type provider struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

// NewProvider creates a Provider speaking the Responses-style HTTP API.
func NewProvider(cfg *Config) Provider {
	return &provider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// endpoint joins the base URL with an API path, tolerating bases with
// or without the /v1 suffix.
func (p *provider) endpoint(path string) string {
	baseURL := strings.TrimRight(p.baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL + path
}

func (p *provider) CreateConversation(ctx context.Context) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := p.post(ctx, p.endpoint("/conversations"), map[string]any{}, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("conversation API returned no id")
	}
	return result.ID, nil
}

func (p *provider) CreateResponse(ctx context.Context, req *ResponseRequest) (*Response, error) {
	body := map[string]any{
		"model": p.model,
		"input": req.Input,
	}
	if req.Instructions != "" {
		body["instructions"] = req.Instructions
	}
	if req.PreviousResponseID != "" {
		body["previous_response_id"] = req.PreviousResponseID
	} else if req.ConversationID != "" {
		body["conversation"] = req.ConversationID
	}

	var result struct {
		ID         string `json:"id"`
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := p.post(ctx, p.endpoint("/responses"), body, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, fmt.Errorf("response API returned no id")
	}

	text := result.OutputText
	if text == "" {
		var sb strings.Builder
		for _, item := range result.Output {
			for _, content := range item.Content {
				sb.WriteString(content.Text)
			}
		}
		text = sb.String()
	}

	return &Response{ID: result.ID, Text: text}, nil
}

func (p *provider) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // cleanup

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("thread API error: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("thread API error: %s", string(msg))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
