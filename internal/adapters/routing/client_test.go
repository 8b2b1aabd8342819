package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundtruth/walkroute/internal/core/domain"
)

func TestFetchRoute_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/routing/route", r.URL.Path)
		assert.Equal(t, "43.263", r.URL.Query().Get("startLat"))
		assert.Equal(t, "-2.935", r.URL.Query().Get("startLon"))
		assert.Equal(t, "43.27", r.URL.Query().Get("endLat"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"distanceMeters": 1234.5,
			"durationSeconds": 900,
			"pathNodeIds": [1, 2, 3],
			"pathEdgeIds": [10, 20],
			"routeGeojson": {
				"type": "Feature",
				"geometry": {"type": "LineString", "coordinates": [[-2.935, 43.263], [-2.94, 43.27]]}
			}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	route, err := c.FetchRoute(context.Background(),
		domain.GeoPoint{Lat: 43.263, Lon: -2.935},
		domain.GeoPoint{Lat: 43.27, Lon: -2.94})

	require.NoError(t, err)
	assert.Equal(t, 1234.5, route.DistanceMeters)
	assert.Equal(t, []int64{1, 2, 3}, route.PathNodeIDs)
	assert.Len(t, route.RouteGeoJSON.Geometry.Coordinates, 2)
}

func TestFetchRoute_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "no path between nodes"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_, err := c.FetchRoute(context.Background(), domain.GeoPoint{Lat: 1, Lon: 1}, domain.GeoPoint{Lat: 2, Lon: 2})

	var noRoute *domain.NoRouteError
	require.True(t, errors.As(err, &noRoute))
	assert.Equal(t, "no path between nodes", noRoute.Message)
}

func TestFetchRoute_ErrorMessageFallbacks(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"json message", `{"message": "engine exploded"}`, "engine exploded"},
		{"json without message", `{"detail": "boom"}`, `{"detail":"boom"}`},
		{"plain text", "something broke", "something broke"},
		{"empty body", "", "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL, 5*time.Second)
			_, err := c.FetchRoute(context.Background(), domain.GeoPoint{Lat: 1, Lon: 1}, domain.GeoPoint{Lat: 2, Lon: 2})
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestFetchRoute_TransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := c.FetchRoute(context.Background(), domain.GeoPoint{Lat: 1, Lon: 1}, domain.GeoPoint{Lat: 2, Lon: 2})
	require.Error(t, err)

	var noRoute *domain.NoRouteError
	assert.False(t, errors.As(err, &noRoute), "transport failures must not classify as no-route")
}
