package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	SubjectRegionRequired = "region.required"
)

type Publisher interface {
	Publish(subject string, data []byte) error
}

type Subscriber interface {
	WaitReady(ctx context.Context) error
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// RegionRequest asks a loader to produce the region with the given id.
type RegionRequest struct {
	RequestID   string    `json:"request_id"`
	Region      string    `json:"region"`
	RequestedAt time.Time `json:"requested_at"`
}

// PublishRegionRequest publishes a request for the region and returns it.
func PublishRegionRequest(p Publisher, region string) (RegionRequest, error) {
	req := RegionRequest{
		RequestID:   uuid.NewString(),
		Region:      region,
		RequestedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(req)
	if err != nil {
		return req, fmt.Errorf("marshalling region request: %w", err)
	}

	if err := p.Publish(SubjectRegionRequired, data); err != nil {
		return req, fmt.Errorf("publishing region request %q: %w", region, err)
	}
	return req, nil
}

// SubscribeRegionRequests calls fn for every well formed region request.
// Malformed messages are logged and dropped.
func SubscribeRegionRequests(s Subscriber, fn func(RegionRequest)) (func(), error) {
	return s.Subscribe(SubjectRegionRequired, func(data []byte) {
		var req RegionRequest
		if err := json.Unmarshal(data, &req); err != nil {
			slog.Warn("dropping malformed region request", "error", err)
			return
		}
		if req.Region == "" {
			slog.Warn("dropping region request without a region", "request_id", req.RequestID)
			return
		}
		fn(req)
	})
}
