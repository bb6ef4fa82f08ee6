package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"netpulse/app/internal/cache"
	"netpulse/app/internal/models"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidTarget is returned for identifiers that are not IP addresses
	ErrInvalidTarget = errors.New("invalid IP address")
	// ErrLookupFailed is returned when the location service gives no usable answer
	ErrLookupFailed = errors.New("location lookup failed")
)

// Options configures a Client
type Options struct {
	BaseURL    string
	Token      string
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Client validates server identifiers and resolves their location through ipinfo.io
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *cache.Cache[models.Location]
}

// New creates a location client. An empty BaseURL disables lookups.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		token:   opts.Token,
		http:    httpClient,
		cache:   cache.New[models.Location](ttl),
	}
}

// Close stops the lookup cache
func (c *Client) Close() {
	c.cache.Stop()
}

// ParseIP checks that identifier is a literal IPv4 or IPv6 address
func ParseIP(identifier string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(identifier))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidTarget, identifier)
	}
	return addr, nil
}

// Validate accepts only IP addresses and attaches whatever location data is available.
// A failed lookup still validates: the location then carries the address alone.
func (c *Client) Validate(ctx context.Context, identifier string) (models.Location, error) {
	addr, err := ParseIP(identifier)
	if err != nil {
		return models.Location{}, err
	}
	ip := addr.String()

	if loc, ok := c.cache.Get(ip); ok {
		return loc, nil
	}

	loc, err := c.Lookup(ctx, ip)
	if err != nil {
		if c.baseURL != "" {
			log.Printf("geolocation lookup error ip=%s err=%v", ip, err)
		}
		return models.Location{IP: ip}, nil
	}
	c.cache.Set(ip, loc)
	return loc, nil
}

// Lookup queries the location service for ip without touching the cache
func (c *Client) Lookup(ctx context.Context, ip string) (models.Location, error) {
	if c.baseURL == "" {
		return models.Location{}, fmt.Errorf("%w: no location service configured", ErrLookupFailed)
	}

	endpoint := c.baseURL + "/" + url.PathEscape(ip)
	if c.token != "" {
		endpoint += "?token=" + url.QueryEscape(c.token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}
	return parseLocation(ip, body)
}

// parseLocation extracts the fields of an ipinfo response
func parseLocation(ip string, body []byte) (models.Location, error) {
	if !gjson.ValidBytes(body) {
		return models.Location{}, fmt.Errorf("%w: malformed response", ErrLookupFailed)
	}
	res := gjson.ParseBytes(body)

	loc := models.Location{
		IP:       ip,
		Hostname: res.Get("hostname").String(),
		City:     res.Get("city").String(),
		Region:   res.Get("region").String(),
		Country:  res.Get("country").String(),
		Org:      res.Get("org").String(),
		Timezone: res.Get("timezone").String(),
	}
	if lat, lon, ok := splitLatLon(res.Get("loc").String()); ok {
		loc.Latitude = &lat
		loc.Longitude = &lon
	}
	return loc, nil
}

// splitLatLon parses a "lat,lon" pair
func splitLatLon(s string) (float64, float64, bool) {
	latStr, lonStr, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
