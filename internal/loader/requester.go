package loader

import (
	"context"
	"log/slog"

	"github.com/pixil98/go-tileworld/internal/game"
	"github.com/pixil98/go-tileworld/internal/messaging"
)

// Requester forwards the world's region required signals to the message bus.
// Publishing does not wait for the region; it arrives later through a Loader.
type Requester struct {
	world *game.World
	pub   messaging.Publisher

	// ready, when set, holds requests back until it is closed.
	ready <-chan struct{}
	held  []game.RegionID

	unsubscribe func()
}

type RequesterOpt func(*Requester)

// WithReady holds requests until ready is closed. Core NATS drops messages
// nobody is subscribed to, so requests made before the loader listens would
// be lost.
func WithReady(ready <-chan struct{}) RequesterOpt {
	return func(r *Requester) {
		r.ready = ready
	}
}

func NewRequester(w *game.World, pub messaging.Publisher, opts ...RequesterOpt) *Requester {
	r := &Requester{
		world: w,
		pub:   pub,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.unsubscribe = w.OnRegionRequired(r.request)
	return r
}

func (r *Requester) request(id game.RegionID) {
	if !r.isReady() {
		r.held = append(r.held, id)
		slog.Debug("holding region request until the loader listens", "region", id)
		return
	}
	r.publish(id)
}

func (r *Requester) publish(id game.RegionID) {
	req, err := messaging.PublishRegionRequest(r.pub, id.String())
	if err != nil {
		// Forget the request so the next lookup asks again.
		r.world.CancelRequest(id)
		slog.Warn("region request not sent", "region", id, "error", err)
		return
	}
	slog.Debug("region requested", "region", id, "request_id", req.RequestID)
}

// Tick sends the requests held back before the loader was listening. Ids
// that were loaded or cancelled in the meantime are skipped.
func (r *Requester) Tick(context.Context) error {
	if len(r.held) == 0 || !r.isReady() {
		return nil
	}

	held := r.held
	r.held = nil
	for _, id := range held {
		if r.world.Requested(id) {
			r.publish(id)
		}
	}
	return nil
}

func (r *Requester) isReady() bool {
	if r.ready == nil {
		return true
	}
	select {
	case <-r.ready:
		return true
	default:
		return false
	}
}

// Close stops forwarding signals.
func (r *Requester) Close() {
	r.unsubscribe()
}
