package geocoder

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geocodeBody(positions ...string) string {
	members := ""
	for i, pos := range positions {
		if i > 0 {
			members += ","
		}
		members += fmt.Sprintf(`{"GeoObject":{"name":"place %d","Point":{"pos":%q}}}`, i, pos)
	}
	return fmt.Sprintf(`{"response":{"GeoObjectCollection":{"metaDataProperty":{},"featureMember":[%s]}}}`, members)
}

func TestGeocode_FirstCandidateWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Moscow, Lenina 1", r.URL.Query().Get("geocode"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		fmt.Fprint(w, geocodeBody("37.617635 55.755814", "30.1 59.9"))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	coord, found, err := c.Geocode(context.Background(), "Moscow, Lenina 1")

	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 37.617635, coord.Lng, 1e-9)
	assert.InDelta(t, 55.755814, coord.Lat, 1e-9)
}

func TestGeocode_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, geocodeBody())
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, found, err := c.Geocode(context.Background(), "nowhere at all")

	require.NoError(t, err)
	assert.False(t, found)
}

func TestGeocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, _, err := c.Geocode(context.Background(), "Moscow")
	require.Error(t, err)
}

func TestGeocode_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response": [`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, _, err := c.Geocode(context.Background(), "Moscow")
	require.Error(t, err)
}

func TestParsePos(t *testing.T) {
	coord, err := parsePos("37.6176 55.7558")
	require.NoError(t, err)
	assert.Equal(t, 37.6176, coord.Lng)
	assert.Equal(t, 55.7558, coord.Lat)

	_, err = parsePos("37.6176")
	assert.Error(t, err)

	_, err = parsePos("x y")
	assert.Error(t, err)
}
