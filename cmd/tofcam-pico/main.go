//go:build rp2040

// Command tofcam-pico runs the camera service on an RP2040 with the sensor's
// control port on I2C0. Frames are not captured on the board, so the stream
// gate stays closed and geometry can always be changed.
package main

import (
	"context"
	"log/slog"
	"machine"
	"os"
	"time"

	"tofcam-go/bus"
	"tofcam-go/drivers/tof"
	"tofcam-go/regs"
	"tofcam-go/services/camera"
	"tofcam-go/services/config"
	"tofcam-go/services/heartbeat"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	f, err := config.LoadEmbedded("default")
	if err != nil {
		log.Error("tofcam: config", "err", err)
		return
	}
	modes, _ := f.VideoModes()
	regMap, _ := f.RegisterMap()

	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		log.Error("tofcam: i2c configure", "err", err)
		return
	}

	ctx := context.Background()
	b := bus.NewBus(8)
	prog := regs.NewI2C(machine.I2C0, f.Camera.I2CAddress, regMap, log)
	stream := &tof.SimStreamer{}
	cam, err := tof.New(&regs.Notifier{Inner: prog, Conn: b.NewConnection("regs")}, tof.Config{
		ID:       f.Camera.ID,
		Modes:    tof.Modes(modes),
		Streamer: stream,
		Calib:    f.Calib(),
		Logger:   log,
	})
	if err != nil {
		log.Error("tofcam: camera", "err", err)
		return
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
			log.Error("tofcam: default profile", "err", err)
		}
	}
	(&camera.Service{Camera: cam, Profiles: f.Profile, Log: log}).Run(ctx, b.NewConnection("camera"))
}
