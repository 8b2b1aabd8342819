package hazardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/pkg/metrics"
)

var tracer = otel.Tracer("walkroute/adapters/hazardapi")

// Client submits hazard reports to the intake service.
type Client struct {
	baseURL string
	hc      *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// Submit uploads the image and its metadata as one multipart request.
func (c *Client) Submit(ctx context.Context, image *domain.HazardImage, meta domain.HazardMetadata) (*domain.HazardReceipt, error) {
	ctx, span := tracer.Start(ctx, "hazardapi.Submit")
	defer span.End()
	span.SetAttributes(attribute.Int64("hazard.image_bytes", image.Size()))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreatePart(imagePartHeader(image))
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := mw.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, fmt.Errorf("write metadata part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/hazards", &buf)
	if err != nil {
		return nil, fmt.Errorf("build hazard request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	started := time.Now()
	resp, err := c.hc.Do(req)
	metrics.CollaboratorDuration.WithLabelValues("hazards").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.CollaboratorRequests.WithLabelValues("hazards", "transport_error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("hazard request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.CollaboratorRequests.WithLabelValues("hazards", "error").Inc()
		msg := readErrorMessage(resp)
		span.SetStatus(codes.Error, msg)
		if msg == "" {
			msg = "Hazard upload failed."
		}
		return nil, errors.New(msg)
	}
	metrics.CollaboratorRequests.WithLabelValues("hazards", "ok").Inc()
	metrics.HazardUploadBytes.Observe(float64(image.Size()))

	var receipt domain.HazardReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("decode hazard receipt: %w", err)
	}
	return &receipt, nil
}

// imagePartHeader builds the image part with its real content type instead
// of the application/octet-stream CreateFormFile would send.
func imagePartHeader(image *domain.HazardImage) textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
	h.Set("Content-Type", image.ContentType)
	return h
}

// readErrorMessage extracts the most useful message from an error response:
// a JSON "message" field, then the whole JSON document, then the raw body,
// then the HTTP status text.
func readErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return http.StatusText(resp.StatusCode)
	}

	var doc map[string]any
	if json.Unmarshal(body, &doc) == nil {
		if m, ok := doc["message"].(string); ok && m != "" {
			return m
		}
		if compact, err := json.Marshal(doc); err == nil {
			return string(compact)
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
