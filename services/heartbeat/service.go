// Package heartbeat publishes a periodic liveness beat for a camera.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"tofcam-go/bus"
	"tofcam-go/services/config"
)

// Beat is the heartbeat payload.
type Beat struct {
	Seq       uint64 `json:"seq"`
	TS        int64  `json:"ts_ms"`
	Streaming bool   `json:"streaming"`
}

type Service struct {
	Topic   bus.Topic
	Running func() bool
	Log     *slog.Logger
}

const defaultInterval = time.Second

func (s *Service) loop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(config.TopicHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("heartbeat: stopping")
			return
		case t := <-tick.C:
			seq++
			b := Beat{Seq: seq, TS: t.UnixMilli()}
			if s.Running != nil {
				b.Streaming = s.Running()
			}
			conn.Publish(conn.NewMessage(s.Topic, b, false))
		case msg := <-cfgSub.Channel():
			hb, ok := msg.Payload.(config.Heartbeat)
			if !ok || hb.Interval <= 0 {
				continue
			}
			d := time.Duration(hb.Interval * float64(time.Second))
			tick.Reset(d)
			s.Log.Info("heartbeat: interval set", "interval", d)
		}
	}
}

// Start runs the service in its own goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	go s.loop(ctx, conn)
}
