// Package linkedin looks a company up in the professional-network
// directory. The provider has no public API, so the client keeps a
// logged-in cookie session the same way a browser would and speaks to
// the internal voyager endpoints. Lookup is a two-step protocol: a
// company search resolves an identifier, a second call fetches the
// full company record.
package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"kyb-backend/lib/restyutil"
	"kyb-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/directories/linkedin")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

var LoginFailed = fmt.Errorf("failed to login to the network directory")

type ClientOptions struct {
	BaseUrl  string
	Username string
	Password string
}

type Client struct {
	http     *resty.Client
	username string
	password string

	loginMu  sync.Mutex
	loggedIn bool
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://www.linkedin.com"
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 5)

	telemetry.InstrumentResty(client, "lib/directories/linkedin/http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		http:     client,
		username: opts.Username,
		password: opts.Password,
	}, nil
}

// login happens lazily on the first lookup so that missing credentials
// fail at first use instead of at startup
func (c *Client) ensureLogin(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	if c.loggedIn {
		return nil
	}

	ctx, span := tracer.Start(ctx, "ensureLogin")
	defer span.End()

	values := url.Values{
		"session_key":      {c.username},
		"session_password": {c.password},
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(values.Encode()).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		Post("/uas/authenticate")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login request failed")
		return err
	}
	if res.StatusCode() >= 300 {
		span.SetStatus(codes.Error, LoginFailed.Error())
		return LoginFailed
	}

	c.loggedIn = true
	return nil
}

type Company struct {
	Name        string
	VanityName  string
	Description string
	Website     string
	Industry    string
	// nil when the provider does not publish a headcount
	CompanySize *int64
	Followers   int64
	FoundedYear int64
	Locations   []string
	Specialties []string
}

type companySearchResponse struct {
	Elements []struct {
		UrnId string `json:"urn_id"`
		Name  string `json:"name"`
	} `json:"elements"`
}

type companyResponse struct {
	Name              string `json:"name"`
	VanityName        string `json:"vanityName"`
	Description       string `json:"description"`
	WebsiteUrl        string `json:"websiteUrl"`
	CompanyIndustries []struct {
		LocalizedName string `json:"localizedName"`
	} `json:"companyIndustries"`
	StaffCountRange *struct {
		Start int64 `json:"start"`
	} `json:"staffCountRange"`
	FollowerCount int64 `json:"followerCount"`
	FoundedOn     struct {
		Year int64 `json:"year"`
	} `json:"foundedOn"`
	ConfirmedLocations []struct {
		Line1 string `json:"line1"`
	} `json:"confirmedLocations"`
	Specialities []string `json:"specialities"`
}

// Lookup resolves a company name to the provider's first search hit
// and returns its full record, or (nil, nil) when nothing matches.
func (c *Client) Lookup(ctx context.Context, name string) (*Company, error) {
	ctx, span := tracer.Start(ctx, "Lookup")
	defer span.End()

	span.SetAttributes(attribute.String("name", name))

	err := c.ensureLogin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}

	urnId, err := c.resolveCompanyId(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "company search failed")
		return nil, err
	}
	if urnId == "" {
		return nil, nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/voyager/api/companies/%s", url.PathEscape(urnId)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "company detail request failed")
		return nil, err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("company detail failed with status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var parsed companyResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected company payload")
		return nil, err
	}

	out := &Company{
		Name:        parsed.Name,
		VanityName:  parsed.VanityName,
		Description: parsed.Description,
		Website:     parsed.WebsiteUrl,
		Followers:   parsed.FollowerCount,
		FoundedYear: parsed.FoundedOn.Year,
		Specialties: parsed.Specialities,
	}
	if len(parsed.CompanyIndustries) > 0 {
		out.Industry = parsed.CompanyIndustries[0].LocalizedName
	}
	if parsed.StaffCountRange != nil {
		size := parsed.StaffCountRange.Start
		out.CompanySize = &size
	}
	for _, loc := range parsed.ConfirmedLocations {
		out.Locations = append(out.Locations, loc.Line1)
	}
	return out, nil
}

func (c *Client) resolveCompanyId(ctx context.Context, name string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("keywords", name).
		Get("/voyager/api/search/companies")
	if err != nil {
		return "", err
	}
	if res.StatusCode() >= 300 {
		return "", fmt.Errorf("company search failed with status %d", res.StatusCode())
	}

	var parsed companySearchResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		return "", err
	}
	if len(parsed.Elements) == 0 {
		return "", nil
	}
	return parsed.Elements[0].UrnId, nil
}
