package nominatim

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/validate"
)

const (
	searchPath      = "/search"
	contentEncoding = "gzip"
)

type Address struct {
	City        string `mapstructure:"city"`
	Town        string `mapstructure:"town"`
	Village     string `mapstructure:"village"`
	State       string `mapstructure:"state"`
	Country     string `mapstructure:"country"`
	CountryCode string `mapstructure:"country_code"`
}

type Result struct {
	PlaceID     int64   `mapstructure:"place_id"`
	DisplayName string  `mapstructure:"display_name"`
	Lat         string  `mapstructure:"lat"`
	Lon         string  `mapstructure:"lon"`
	Importance  float64 `mapstructure:"importance"`
	Address     Address `mapstructure:"address"`
}

// Search runs a free-form query. countryCode limits the results to one
// ISO 3166-1 alpha-2 country when not empty.
func (c *Client) Search(ctx context.Context, query, countryCode string) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	if countryCode = strings.ToLower(strings.TrimSpace(countryCode)); countryCode != "" {
		q.Set("countrycodes", countryCode)
	}

	var raw []any
	if err := c.getJSON(ctx, c.APIURL+searchPath, q, &raw); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(raw))
	for _, item := range raw {
		var r Result
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &r,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(item); err != nil {
			return nil, fmt.Errorf("decode search result: %w", err)
		}
		results = append(results, r)
	}

	c.logger.Debug("got response from nominatim",
		zap.String("query", query),
		zap.String("country_code", countryCode),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Geocode implements validate.Geocoder. A nil place means no match.
func (c *Client) Geocode(ctx context.Context, query, countryCode string) (*validate.Place, error) {
	results, err := c.Search(ctx, query, countryCode)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	a := results[0].Address
	return &validate.Place{
		City:        a.City,
		Town:        a.Town,
		Village:     a.Village,
		Country:     a.Country,
		CountryCode: strings.ToUpper(a.CountryCode),
	}, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func (c *Client) getJSON(ctx context.Context, url string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	return json.Unmarshal(data, target)
}
