package hazardapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundtruth/walkroute/internal/core/domain"
)

func testImage() *domain.HazardImage {
	return &domain.HazardImage{
		Filename:    "pothole.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("fake-jpeg-bytes"),
	}
}

func testMeta() domain.HazardMetadata {
	return domain.HazardMetadata{
		Lat:        43.263,
		Lon:        -2.935,
		Type:       domain.HazardPothole,
		CapturedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
}

func TestSubmit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/hazards", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(32<<20))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "pothole.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, "fake-jpeg-bytes", string(data))

		var meta domain.HazardMetadata
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("metadata")), &meta))
		assert.Equal(t, 43.263, meta.Lat)
		assert.Equal(t, domain.HazardPothole, meta.Type)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "h-1", "status": "PENDING", "lat": 43.263, "lon": -2.935, "type": "POTHOLE"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	receipt, err := c.Submit(context.Background(), testImage(), testMeta())

	require.NoError(t, err)
	assert.Equal(t, "h-1", receipt.ID)
	assert.Equal(t, "PENDING", receipt.Status)
	assert.Equal(t, domain.HazardPothole, receipt.Type)
}

func TestSubmit_ErrorWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "image corrupt"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_, err := c.Submit(context.Background(), testImage(), testMeta())
	require.Error(t, err)
	assert.Equal(t, "image corrupt", err.Error())
}

func TestSubmit_ErrorEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_, err := c.Submit(context.Background(), testImage(), testMeta())
	require.Error(t, err)
	assert.Equal(t, "Service Unavailable", err.Error())
}
