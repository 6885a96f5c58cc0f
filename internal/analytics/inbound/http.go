package inbound

import (
	"context"
	"net/http"
	"time"

	"github.com/shandysiswandi/portal/internal/analytics/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/router"
)

type uc interface {
	Track(ctx context.Context, in usecase.TrackInput) error
}

type TrackRequest struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties" swaggertype:"object"`
	Timestamp  time.Time      `json:"timestamp"`
}

type TrackResponse struct{}

func (TrackResponse) Message() string { return "accepted" }

func (TrackResponse) StatusCode() int { return http.StatusAccepted }

type HTTPEndpoint struct {
	uc uc
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/analytics", end.Track)
}

// Track is public. A bearer token, when sent, only attributes the event.
// @Summary Track event
// @Description Accepts a client analytics event. Publishing happens in the background; PII properties are masked.
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body TrackRequest true "Event payload"
// @Success 202 {object} router.successResponse "Accepted"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/analytics [post]
func (h *HTTPEndpoint) Track(r *router.Request) (any, error) {
	var req TrackRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.Track(r.Context(), usecase.TrackInput{
		Event:      req.Event,
		Properties: req.Properties,
		Timestamp:  req.Timestamp,
		Token:      r.BearerToken(),
		IP:         r.ClientIP(),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return TrackResponse{}, nil
}
