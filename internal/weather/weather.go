// Package weather wraps the Open-Meteo geocoding and forecast APIs,
// plus IP-based geolocation for the "weather here" case.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

const (
	geocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	forecastURL  = "https://api.open-meteo.com/v1/forecast"
	ipLocateURL  = "http://ip-api.com/json/"
)

// ErrNotFound is returned when a city has no geocoding result.
var ErrNotFound = errors.New("location not found")

// Report is the current weather at one point.
type Report struct {
	Description string
	Temperature float64
}

// Location is a geocoded or IP-derived place.
type Location struct {
	City string
	Lat  float64
	Lon  float64
}

type Client struct {
	http *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient}
}

// CoordinatesForCity resolves a city name to coordinates.
func (c *Client) CoordinatesForCity(ctx context.Context, name string) (Location, error) {
	u := fmt.Sprintf("%s?name=%s&count=1", geocodingURL, url.QueryEscape(name))
	body, err := c.get(ctx, u)
	if err != nil {
		return Location{}, err
	}
	return parseGeocoding(name, body)
}

func parseGeocoding(name string, body []byte) (Location, error) {
	first := gjson.GetBytes(body, "results.0")
	if !first.Exists() {
		return Location{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return Location{
		City: first.Get("name").String(),
		Lat:  first.Get("latitude").Float(),
		Lon:  first.Get("longitude").Float(),
	}, nil
}

// WeatherFor fetches the current conditions at lat/lon.
func (c *Client) WeatherFor(ctx context.Context, lat, lon float64) (Report, error) {
	u := fmt.Sprintf("%s?latitude=%f&longitude=%f&current=temperature_2m,weather_code",
		forecastURL, lat, lon)
	body, err := c.get(ctx, u)
	if err != nil {
		return Report{}, err
	}
	return parseForecast(body)
}

func parseForecast(body []byte) (Report, error) {
	current := gjson.GetBytes(body, "current")
	if !current.Exists() {
		return Report{}, errors.New("forecast response has no current block")
	}
	return Report{
		Description: describeCode(int(current.Get("weather_code").Int())),
		Temperature: current.Get("temperature_2m").Float(),
	}, nil
}

// Locate derives the caller's location from its public IP.
func (c *Client) Locate(ctx context.Context) (Location, error) {
	body, err := c.get(ctx, ipLocateURL)
	if err != nil {
		return Location{}, err
	}
	return parseLocate(body)
}

func parseLocate(body []byte) (Location, error) {
	if gjson.GetBytes(body, "status").String() != "success" {
		return Location{}, errors.New("ip geolocation failed")
	}
	return Location{
		City: gjson.GetBytes(body, "city").String(),
		Lat:  gjson.GetBytes(body, "lat").Float(),
		Lon:  gjson.GetBytes(body, "lon").Float(),
	}, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather request: status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// describeCode maps WMO weather interpretation codes to short text.
func describeCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 2:
		return "partly cloudy"
	case code == 3:
		return "overcast"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code == 85 || code == 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unsettled"
	}
}
