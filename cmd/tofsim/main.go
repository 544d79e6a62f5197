// Command tofsim runs the camera core against a simulated register device and
// drives it from a line-oriented shell on stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tofcam-go/bus"
	"tofcam-go/drivers/tof"
	"tofcam-go/regs"
	"tofcam-go/services/bridge"
	"tofcam-go/services/camera"
	"tofcam-go/services/config"
	"tofcam-go/services/heartbeat"
)

func main() {
	cfgPath := flag.String("config", "", "session file (default: built-in config)")
	broker := flag.String("mqtt", "", "MQTT broker URL, overrides mqtt.broker")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(*cfgPath, *broker, log); err != nil {
		fmt.Fprintln(os.Stderr, "tofsim:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.File, error) {
	if path == "" {
		return config.LoadEmbedded("default")
	}
	return config.Load(path)
}

func run(cfgPath, broker string, log *slog.Logger) error {
	f, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if broker != "" {
		f.MQTT.Broker = broker
	}
	modes, err := f.VideoModes()
	if err != nil {
		return err
	}
	dev, err := newDevice(f, modes)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(32)
	stream := &tof.SimStreamer{}
	cam, err := tof.New(&regs.Notifier{Inner: dev, Conn: b.NewConnection("regs")}, tof.Config{
		ID:       f.Camera.ID,
		Modes:    tof.Modes(modes),
		Streamer: stream,
		Calib:    f.Calib(),
		Logger:   log,
	})
	if err != nil {
		return err
	}

	go cam.Params().Watch(ctx, b.NewConnection("params"))
	(&config.Service{File: f, Log: log}).Start(ctx, b.NewConnection("config"))
	(&heartbeat.Service{
		Topic:   camera.StateTopic(cam.ID()).Append("heartbeat"),
		Running: stream.Running,
		Log:     log,
	}).Start(ctx, b.NewConnection("heartbeat"))

	if p, ok := f.Profile(f.Camera.DefaultProfile); ok {
		if err := cam.ApplyProfile(p); err != nil {
			log.Error("tofsim: default profile failed", "profile", p.Name, "err", err)
		}
	}
	svc := &camera.Service{Camera: cam, Profiles: f.Profile, Log: log}
	go svc.Run(ctx, b.NewConnection("camera"))

	if f.MQTT.Broker != "" {
		client, err := bridge.Dial(f.MQTT, log)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		go bridge.New(client, f.MQTT, log).Run(ctx, b.NewConnection("bridge"))
	}

	sh := &shell{
		conn:   b.NewConnection("shell"),
		id:     cam.ID(),
		dev:    dev,
		stream: stream,
		params: cam.Params(),
		out:    os.Stdout,
	}
	log.Info("tofsim: ready", "camera", cam.ID(), "modes", len(modes))
	return sh.run(ctx, os.Stdin)
}
