package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeocoding(t *testing.T) {
	body := []byte(`{"results":[{"name":"Paris","latitude":48.85341,"longitude":2.3488}]}`)

	loc, err := parseGeocoding("Paris", body)
	require.NoError(t, err)
	assert.Equal(t, "Paris", loc.City)
	assert.InDelta(t, 48.85341, loc.Lat, 1e-6)
	assert.InDelta(t, 2.3488, loc.Lon, 1e-6)
}

func TestParseGeocodingNoResults(t *testing.T) {
	_, err := parseGeocoding("Atlantis", []byte(`{"generationtime_ms":0.3}`))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseForecast(t *testing.T) {
	body := []byte(`{"current":{"temperature_2m":21.4,"weather_code":61}}`)

	rep, err := parseForecast(body)
	require.NoError(t, err)
	assert.Equal(t, "rain", rep.Description)
	assert.InDelta(t, 21.4, rep.Temperature, 1e-6)
}

func TestParseLocate(t *testing.T) {
	body := []byte(`{"status":"success","city":"Lisbon","lat":38.7167,"lon":-9.1333}`)

	loc, err := parseLocate(body)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", loc.City)

	_, err = parseLocate([]byte(`{"status":"fail","message":"private range"}`))
	assert.Error(t, err)
}

func TestDescribeCode(t *testing.T) {
	cases := map[int]string{
		0:  "clear sky",
		2:  "partly cloudy",
		3:  "overcast",
		48: "fog",
		55: "drizzle",
		65: "rain",
		73: "snow",
		81: "rain showers",
		96: "thunderstorm",
		40: "unsettled",
	}
	for code, want := range cases {
		assert.Equal(t, want, describeCode(code), "code %d", code)
	}
}
