// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package safebrowsing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/version"
)

const (
	// DefaultEndpoint is the production Safe Browsing API base URL.
	DefaultEndpoint = "https://safebrowsing.googleapis.com"

	// DefaultClientID identifies this client to the API.
	DefaultClientID = "SSLHelperAPI"

	// DefaultTimeout bounds a single Classify call.
	DefaultTimeout = 10 * time.Second

	findPath        = "/v4/threatMatches:find"
	maxResponseSize = 4 << 20
	tracerName      = "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/safebrowsing"
)

var (
	// ErrMissingAPIKey is returned by [New] when no API key is configured.
	ErrMissingAPIKey = errors.New("safebrowsing: API key is required")

	// ErrIndeterminate means the batch could not be classified. It is always
	// wrapped together with the underlying cause.
	ErrIndeterminate = errors.New("safebrowsing: threat status indeterminate")
)

// threatTypes are the categories every lookup asks for.
var threatTypes = []string{
	"THREAT_TYPE_UNSPECIFIED",
	"MALWARE",
	"SOCIAL_ENGINEERING",
	"UNWANTED_SOFTWARE",
	"POTENTIALLY_HARMFUL_APPLICATION",
}

// Config configures a [Client]. Zero values select the defaults.
type Config struct {
	Endpoint      string
	APIKey        string
	ClientID      string
	ClientVersion string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Verdict is the outcome of a successful classification. Both slices keep
// the order of the input.
type Verdict struct {
	Flagged []string
	Clean   []string
}

// Client talks to the Safe Browsing Lookup API. It is safe for concurrent use.
type Client struct {
	endpoint      string
	apiKey        string
	clientID      string
	clientVersion string
	timeout       time.Duration
	httpClient    *http.Client
}

// New returns a client for cfg. The API key is mandatory.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:        cfg.APIKey,
		clientID:      cfg.ClientID,
		clientVersion: cfg.ClientVersion,
		timeout:       cfg.Timeout,
		httpClient:    cfg.HTTPClient,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.clientID == "" {
		c.clientID = DefaultClientID
	}
	if c.clientVersion == "" {
		c.clientVersion = version.Version
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c, nil
}

type findRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type findResponse struct {
	Matches []struct {
		ThreatType string      `json:"threatType"`
		Threat     threatEntry `json:"threat"`
	} `json:"matches"`
}

// Classify looks up domains in one request and splits them into flagged and
// clean. An empty input returns an empty verdict without contacting the API.
// Any failure returns an error wrapping [ErrIndeterminate].
func (c *Client) Classify(ctx context.Context, domains []string) (Verdict, error) {
	if len(domains) == 0 {
		return Verdict{}, nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "safebrowsing.Classify")
	defer span.End()
	span.SetAttributes(attribute.Int("domains.count", len(domains)))

	urls, err := c.find(ctx, domains)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "indeterminate")
		return Verdict{}, fmt.Errorf("%w: %w", ErrIndeterminate, err)
	}

	var v Verdict
	for _, d := range domains {
		if flagged(d, urls) {
			v.Flagged = append(v.Flagged, d)
		} else {
			v.Clean = append(v.Clean, d)
		}
	}
	span.SetAttributes(attribute.Int("domains.flagged", len(v.Flagged)))
	return v, nil
}

// flagged reports whether domain occurs in any of the threat URLs.
func flagged(domain string, urls []string) bool {
	for _, u := range urls {
		if strings.Contains(u, domain) {
			return true
		}
	}
	return false
}

// find performs the lookup and returns the reported threat URLs.
func (c *Client) find(ctx context.Context, domains []string) ([]string, error) {
	body, err := c.requestBody(domains)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.endpoint + findPath + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the request URL, which holds the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseSize)); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := validateResponse(buf.Bytes()); err != nil {
		return nil, err
	}

	var parsed findResponse
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	urls := make([]string, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		urls = append(urls, m.Threat.URL)
	}
	return urls, nil
}

// requestBody encodes the lookup for the distinct values of domains.
func (c *Client) requestBody(domains []string) ([]byte, error) {
	seen := make(map[string]struct{}, len(domains))
	entries := make([]threatEntry, 0, len(domains))
	for _, d := range domains {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		entries = append(entries, threatEntry{URL: "https://" + d + "/"})
	}

	req := findRequest{
		Client: clientInfo{ClientID: c.clientID, ClientVersion: c.clientVersion},
		ThreatInfo: threatInfo{
			ThreatTypes:      threatTypes,
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    entries,
		},
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(req); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return gc.Copy(buf), nil
}
