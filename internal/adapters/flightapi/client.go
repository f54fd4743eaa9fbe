// Package flightapi is a client for a flight offers search API secured with
// OAuth2 client credentials.
package flightapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/okian/stipend/internal/domain/flightprice"
	"github.com/okian/stipend/pkg/logger"
)

const (
	offersPath       = "/v2/shopping/flight-offers"
	defaultTimeout   = 10 * time.Second
	tokenExpiryDelta = 60 * time.Second
)

// Credentials identify the client to the token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Client implements flightprice.FlightAPI.
type Client struct {
	baseURL string
	creds   Credentials
	timeout time.Duration
	limiter *rate.Limiter
	base    *http.Client
	log     logger.Logger

	http *http.Client
}

// New creates a Client for the API at baseURL.
func New(baseURL string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		timeout: defaultTimeout,
		limiter: rate.NewLimiter(rate.Inf, 1),
		base:    http.DefaultClient,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cc := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenHTTP := *c.base
	tokenHTTP.Timeout = c.timeout
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &tokenHTTP)
	// Tokens are reused until a minute before they expire.
	ts := oauth2.ReuseTokenSourceWithExpiry(nil, cc.TokenSource(tokenCtx), tokenExpiryDelta)

	c.http = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   c.base.Transport,
		},
	}
	return c
}

// Offers implements flightprice.FlightAPI.
func (c *Client) Offers(ctx context.Context, q flightprice.OfferQuery) ([]flightprice.Offer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.Departure.Format(flightprice.DateLayout))
	if !q.Return.IsZero() {
		params.Set("returnDate", q.Return.Format(flightprice.DateLayout))
	}
	adults := q.Adults
	if adults < 1 {
		adults = 1
	}
	params.Set("adults", strconv.Itoa(adults))
	params.Set("travelClass", "ECONOMY")
	params.Set("currencyCode", "USD")
	if q.MaxPrice > 0 {
		params.Set("maxPrice", strconv.Itoa(q.MaxPrice))
	}
	if q.Max > 0 {
		params.Set("max", strconv.Itoa(q.Max))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+offersPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flight offers request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "flight offers response",
		logger.String("route", q.Origin+"-"+q.Destination),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var body offersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return body.offers(), nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 {
		e := body.Errors[0]
		detail := e.Title
		if e.Detail != "" {
			detail = e.Title + ": " + e.Detail
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(raw))}
}

var _ flightprice.FlightAPI = (*Client)(nil)
