package config

import (
	"context"
	"log/slog"

	"tofcam-go/bus"
)

const TopicPrefix = "config"

// Topics of the retained sections.
var (
	TopicCamera    = bus.T(TopicPrefix, "camera")
	TopicMQTT      = bus.T(TopicPrefix, "mqtt")
	TopicHeartbeat = bus.T(TopicPrefix, "heartbeat")
	TopicProfiles  = bus.T(TopicPrefix, "profiles")
)

// Service publishes a loaded file as retained messages so late subscribers
// see the current configuration.
type Service struct {
	File *File
	Log  *slog.Logger
}

func (s *Service) publish(conn *bus.Connection) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	names := make([]string, 0, len(s.File.Profiles))
	for n := range s.File.Profiles {
		names = append(names, n)
	}
	conn.Publish(conn.NewMessage(TopicCamera, s.File.Camera, true))
	conn.Publish(conn.NewMessage(TopicMQTT, s.File.MQTT, true))
	conn.Publish(conn.NewMessage(TopicHeartbeat, s.File.Heartbeat, true))
	conn.Publish(conn.NewMessage(TopicProfiles, names, true))
	log.Info("config: published", "camera", s.File.Camera.ID, "profiles", len(names))
}

// Start publishes the file and returns; ctx is unused beyond the call.
func (s *Service) Start(_ context.Context, conn *bus.Connection) {
	s.publish(conn)
}
