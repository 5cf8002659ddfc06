package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
)

// Config controls how the client reaches PokeAPI.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches creatures from PokeAPI and maps them to CreatureRecords.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient httpDoer
}

var _ provider.CreatureSource = (*Client)(nil)

// NewClient constructs a client with the provided configuration.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	var doer httpDoer = cfg.HTTPClient
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, userAgent: userAgent, httpClient: doer}
}

// FetchCreature retrieves /pokemon/{id}.
func (c *Client) FetchCreature(ctx context.Context, id int) (models.CreatureRecord, error) {
	const op = "fetch creature"
	var payload CreaturePayload
	if err := c.getJSON(ctx, op, "/pokemon/"+strconv.Itoa(id), nil, &payload); err != nil {
		return models.CreatureRecord{}, err
	}
	if payload.ID <= 0 {
		return models.CreatureRecord{}, &provider.SchemaError{Op: op, Err: errors.New("missing id")}
	}
	return Normalize(payload), nil
}

// ListSpecies retrieves up to limit species names.
func (c *Client) ListSpecies(ctx context.Context, limit int) ([]provider.NamedRef, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var resp listResponse
	if err := c.getJSON(ctx, "list species", "/pokemon-species", q, &resp); err != nil {
		return nil, err
	}
	return mapRefs(resp.Results), nil
}

// ListCreatures retrieves one page of /pokemon.
func (c *Client) ListCreatures(ctx context.Context, limit, offset int) (provider.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var resp listResponse
	if err := c.getJSON(ctx, "list creatures", "/pokemon", q, &resp); err != nil {
		return provider.Page{}, err
	}
	return provider.Page{Count: resp.Count, Results: mapRefs(resp.Results)}, nil
}

// ListByType retrieves every creature carrying the named type.
func (c *Client) ListByType(ctx context.Context, typeName string) ([]provider.NamedRef, error) {
	var resp typeResponse
	p := "/type/" + url.PathEscape(strings.ToLower(typeName))
	if err := c.getJSON(ctx, "list by type", p, nil, &resp); err != nil {
		return nil, err
	}
	resources := make([]namedResource, 0, len(resp.Pokemon))
	for _, entry := range resp.Pokemon {
		resources = append(resources, entry.Pokemon)
	}
	return mapRefs(resources), nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &provider.TransportError{Op: op, Err: err}
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &provider.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return &provider.TransportError{Op: op, StatusCode: resp.StatusCode, Err: provider.ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &provider.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &provider.SchemaError{Op: op, Err: err}
	}
	return nil
}
