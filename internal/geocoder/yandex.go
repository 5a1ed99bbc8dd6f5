// Package geocoder implements the external geocoding provider client.
package geocoder

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/velstadt/foodcart/internal/domain/geo"
)

// DefaultBaseURL is the provider endpoint used when none is configured.
const DefaultBaseURL = "https://geocode-maps.yandex.ru/1.x"

// Client resolves addresses through the Yandex geocoding HTTP API. Requests
// are plain GETs with {geocode, apikey, format=json}; only the first (most
// relevant) candidate place of the response is consumed.
type Client struct {
	httpc   *http.Client
	baseURL string
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient creates a Client with an instrumented default HTTP client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpc: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ geo.Geocoder = (*Client)(nil)

// Geocode resolves address to a coordinate. found=false means the provider
// returned no candidate places; errors are transport or protocol failures and
// are fatal to the enclosing request (no retry).
func (c *Client) Geocode(ctx context.Context, address string) (geo.Coordinate, bool, error) {
	q := url.Values{}
	q.Set("geocode", address)
	q.Set("apikey", c.apiKey)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return geo.Coordinate{}, false, errors.Wrap(err, "create request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return geo.Coordinate{}, false, errors.Wrap(err, "geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return geo.Coordinate{}, false, errors.Errorf("geocoder status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return geo.Coordinate{}, false, errors.Wrap(err, "read response")
	}

	pos, found, err := firstCandidatePos(body)
	if err != nil {
		return geo.Coordinate{}, false, errors.Wrap(err, "decode response")
	}
	if !found {
		return geo.Coordinate{}, false, nil
	}

	coord, err := parsePos(pos)
	if err != nil {
		return geo.Coordinate{}, false, err
	}
	return coord, true, nil
}

// firstCandidatePos extracts the "pos" value of the first candidate place
// from the provider response:
//
//	response.GeoObjectCollection.featureMember[0].GeoObject.Point.pos
func firstCandidatePos(data []byte) (string, bool, error) {
	var (
		pos   string
		found bool
	)

	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "response" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "GeoObjectCollection" {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "featureMember" {
					return d.Skip()
				}
				return d.Arr(func(d *jx.Decoder) error {
					if found {
						return d.Skip()
					}
					return d.Obj(func(d *jx.Decoder, key string) error {
						if key != "GeoObject" {
							return d.Skip()
						}
						return d.Obj(func(d *jx.Decoder, key string) error {
							if key != "Point" {
								return d.Skip()
							}
							return d.Obj(func(d *jx.Decoder, key string) error {
								if key != "pos" {
									return d.Skip()
								}
								s, err := d.Str()
								if err != nil {
									return err
								}
								pos, found = s, true
								return nil
							})
						})
					})
				})
			})
		})
	})
	if err != nil {
		return "", false, err
	}
	return pos, found, nil
}

// parsePos parses the provider's "<lon> <lat>" coordinate format.
func parsePos(pos string) (geo.Coordinate, error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return geo.Coordinate{}, errors.Errorf("malformed pos %q", pos)
	}
	lng, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return geo.Coordinate{}, errors.Wrapf(err, "parse longitude %q", parts[0])
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return geo.Coordinate{}, errors.Wrapf(err, "parse latitude %q", parts[1])
	}
	return geo.Coordinate{Lng: lng, Lat: lat}, nil
}
