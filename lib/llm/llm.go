package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kyb-backend/lib/restyutil"
	"kyb-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/llm")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

type ClientOptions struct {
	BaseUrl string
	ApiKey  string
	Model   string
	// Timeout bounds every completion call, it defaults to 30s.
	Timeout time.Duration
}

type Client struct {
	http  *resty.Client
	model string
}

func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("x-api-key", opts.ApiKey)
	client.SetHeader("anthropic-version", "2023-06-01")
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "lib/llm/http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		http:  client,
		model: opts.Model,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type completionResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends a single user prompt and returns the model's text
// response verbatim.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:     c.model,
			MaxTokens: 300,
			Messages: []message{
				{Role: "user", Content: prompt},
			},
		}).
		Post("/v1/messages")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion request failed")
		return "", err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("completion request failed with status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var parsed completionResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse completion response")
		return "", err
	}

	var out strings.Builder
	for _, block := range parsed.Content {
		if block.Type != "text" {
			continue
		}
		out.WriteString(block.Text)
	}
	return out.String(), nil
}
