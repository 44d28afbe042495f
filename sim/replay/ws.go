package replay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/lovehater/sim"
	"github.com/inference-sim/lovehater/sim/layout"
)

// Control is a client request on a playback websocket.
type Control struct {
	Op         string `json:"op"` // first, prev, next, last, seek, play, pause
	Index      int    `json:"index,omitempty"`
	IntervalMs int    `json:"interval_ms,omitempty"`
}

// Handler serves one independent playback session per websocket connection.
// Each session starts paused on frame 0 and answers every control with the
// frame it lands on; "play" streams frames until the end or "pause".
// Frames reached by a single step forward carry only their Line; every
// other frame carries the full History so clients can rebuild the log.
type Handler struct {
	Result   *sim.Result
	Layout   layout.Options
	Interval time.Duration

	upgrader websocket.Upgrader
}

// NewHandler returns a Handler for res.
func NewHandler(res *sim.Result, opts layout.Options, interval time.Duration) *Handler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Handler{Result: res, Layout: opts, Interval: interval}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("websocket upgrade: %v", err)
		return
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	controls := make(chan Control)
	go func() {
		defer close(controls)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				logrus.Debugf("websocket read: %v", err)
				return
			}
			var ctl Control
			if err := json.Unmarshal(message, &ctl); err != nil {
				logrus.Warnf("websocket: can't parse control %q: %v", message, err)
				continue
			}
			select {
			case controls <- ctl:
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := h.session(ctx, controls, func(f Frame) error { return c.WriteJSON(f) }); err != nil {
		logrus.Debugf("websocket session ended: %v", err)
	}
}

// session owns the Player; all cursor moves happen on this goroutine.
func (h *Handler) session(ctx context.Context, controls <-chan Control, send func(Frame) error) error {
	player := NewPlayer(h.Result, h.Layout)
	withHistory := func(f Frame) Frame {
		f.History = player.History()
		return f
	}
	if err := send(withHistory(player.Frame())); err != nil {
		return err
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	pause := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer pause()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			if err := send(player.Next()); err != nil {
				return err
			}
			if player.AtEnd() {
				pause()
			}
		case ctl, ok := <-controls:
			if !ok {
				return nil
			}
			var f Frame
			switch ctl.Op {
			case "first":
				pause()
				f = withHistory(player.First())
			case "prev":
				pause()
				f = withHistory(player.Prev())
			case "next":
				pause()
				f = player.Next()
			case "last":
				pause()
				f = withHistory(player.Last())
			case "seek":
				pause()
				var err error
				if f, err = player.Seek(ctl.Index); err != nil {
					logrus.Warnf("websocket: %v", err)
					f = player.Frame()
				}
				f = withHistory(f)
			case "play":
				pause()
				interval := h.Interval
				if ctl.IntervalMs > 0 {
					interval = time.Duration(ctl.IntervalMs) * time.Millisecond
				}
				if player.AtEnd() {
					player.First()
				}
				ticker = time.NewTicker(interval)
				tick = ticker.C
				f = withHistory(player.Frame())
			case "pause":
				pause()
				f = withHistory(player.Frame())
			default:
				logrus.Warnf("websocket: unknown op %q", ctl.Op)
				continue
			}
			if err := send(f); err != nil {
				return err
			}
		}
	}
}
