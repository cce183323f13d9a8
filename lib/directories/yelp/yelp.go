// Package yelp looks a business up in the reviews directory and
// normalizes the provider's top match.
package yelp

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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/directories/yelp")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

type ClientOptions struct {
	BaseUrl string
	ApiKey  string
}

type Client struct {
	http *resty.Client
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://api.yelp.com"
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetAuthToken(opts.ApiKey)
	client.SetTimeout(time.Second * 5)

	telemetry.InstrumentResty(client, "lib/directories/yelp/http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{http: client}
}

type Business struct {
	Name        string
	Rating      float64
	ReviewCount int64
	Address     string
}

type searchResponse struct {
	Businesses []struct {
		Name        string  `json:"name"`
		Rating      float64 `json:"rating"`
		ReviewCount int64   `json:"review_count"`
		Location    struct {
			DisplayAddress []string `json:"display_address"`
		} `json:"location"`
	} `json:"businesses"`
}

// Search returns the provider's best match for a business name, or
// (nil, nil) when there is none. The provider's own ranking decides
// what "best" means, we take the first result.
func (c *Client) Search(ctx context.Context, term, location string) (*Business, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("term", term),
		attribute.String("location", location),
	)

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"term":     term,
			"location": location,
			"limit":    "1",
		}).
		Get("/v3/businesses/search")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("search failed with status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var parsed searchResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected search payload")
		return nil, err
	}
	if len(parsed.Businesses) == 0 {
		return nil, nil
	}

	top := parsed.Businesses[0]
	return &Business{
		Name:        top.Name,
		Rating:      top.Rating,
		ReviewCount: top.ReviewCount,
		Address:     strings.Join(top.Location.DisplayAddress, " "),
	}, nil
}
