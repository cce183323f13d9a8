// Package gmaps looks a business up in the places directory. The
// lookup is a two-step protocol: a text search resolves the place id
// of the best match, a second call fetches its details.
package gmaps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kyb-backend/lib/restyutil"
	"kyb-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/directories/gmaps")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

type ClientOptions struct {
	BaseUrl string
	ApiKey  string
}

type Client struct {
	http   *resty.Client
	apiKey string
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://maps.googleapis.com"
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetTimeout(time.Second * 5)

	telemetry.InstrumentResty(client, "lib/directories/gmaps/http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{http: client, apiKey: opts.ApiKey}
}

type Place struct {
	Name         string
	Address      string
	Phone        string
	Rating       float64
	TotalRatings int64
	Website      string
	OpeningHours []string
}

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceId string `json:"place_id"`
	} `json:"results"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		FormattedPhone   string  `json:"formatted_phone_number"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int64   `json:"user_ratings_total"`
		Website          string  `json:"website"`
		OpeningHours     struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
	} `json:"result"`
}

const detailsFields = "name,formatted_address,formatted_phone_number,rating,user_ratings_total,website,opening_hours"

// Lookup resolves "<name> in <city>" to the best matching place and
// returns its details, or (nil, nil) when nothing matches.
func (c *Client) Lookup(ctx context.Context, name, city string) (*Place, error) {
	ctx, span := tracer.Start(ctx, "Lookup")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", name),
		attribute.String("city", city),
	)

	placeId, err := c.resolvePlaceId(ctx, fmt.Sprintf("%s in %s", name, city))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place search failed")
		return nil, err
	}
	if placeId == "" {
		return nil, nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"place_id": placeId,
			"fields":   detailsFields,
			"key":      c.apiKey,
		}).
		Get("/maps/api/place/details/json")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place details request failed")
		return nil, err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("place details failed with status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var parsed detailsResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected place details payload")
		return nil, err
	}
	if parsed.Status != "OK" {
		return nil, nil
	}

	details := parsed.Result
	return &Place{
		Name:         details.Name,
		Address:      details.FormattedAddress,
		Phone:        details.FormattedPhone,
		Rating:       details.Rating,
		TotalRatings: details.UserRatingsTotal,
		Website:      details.Website,
		OpeningHours: details.OpeningHours.WeekdayText,
	}, nil
}

func (c *Client) resolvePlaceId(ctx context.Context, query string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query": query,
			"key":   c.apiKey,
		}).
		Get("/maps/api/place/textsearch/json")
	if err != nil {
		return "", err
	}
	if res.StatusCode() >= 300 {
		return "", fmt.Errorf("place search failed with status %d", res.StatusCode())
	}

	var parsed textSearchResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		return "", err
	}
	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return "", nil
	}
	return parsed.Results[0].PlaceId, nil
}
