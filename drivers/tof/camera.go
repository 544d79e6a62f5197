// Package tof is the capture-geometry and derived-parameter core of a
// time-of-flight depth camera. It maps semantic requests (frame size, frame
// rate, integration time) onto the sensor's raw registers and its catalogue
// of supported readout modes.
//
// A Camera assumes one caller at a time and does no locking; serialise access
// externally (services/camera runs it from a single goroutine). Register
// operations are single attempts: failures are returned, never retried, and
// registers already written by a failed multi-step commit are not rolled back.
package tof

import (
	"log/slog"

	"github.com/google/uuid"

	"tofcam-go/calib"
	"tofcam-go/errcode"
	"tofcam-go/param"
	"tofcam-go/regs"
	"tofcam-go/types"
)

// ModeSource reports the device's catalogue of supported readout modes.
type ModeSource interface {
	SupportedVideoModes() ([]types.SupportedVideoMode, error)
}

// Modes is a fixed catalogue.
type Modes []types.SupportedVideoMode

func (m Modes) SupportedVideoModes() ([]types.SupportedVideoMode, error) { return m, nil }

// Streamer is the output side of the capture pipeline.
type Streamer interface {
	// Running reports whether frames are currently streaming.
	Running() bool
	// SetFrameSize configures the size of frames the streamer will deliver.
	SetFrameSize(types.FrameSize) error
}

type Config struct {
	// ID names the session; a random UUID is used when empty.
	ID string

	Modes    ModeSource
	Streamer Streamer

	// Optional collaborators.
	Calib      calib.Provider
	Generator  FrameGenerator
	PointCloud PointCloudGenerator
	Logger     *slog.Logger
}

// Camera is one session against one device. It exclusively owns the register
// handle and the parameters built on it.
type Camera struct {
	id       string
	r        regs.Interface
	modes    ModeSource
	streamer Streamer
	calib    calib.Provider
	gen      FrameGenerator
	pc       PointCloudGenerator
	log      *slog.Logger
	params   *param.Registry
}

// New builds a session and registers the camera's parameters. It performs no
// register access.
func New(r regs.Interface, cfg Config) (*Camera, error) {
	if r == nil || cfg.Modes == nil || cfg.Streamer == nil {
		return nil, errcode.New(errcode.InvalidParams, "new_camera", "registers, modes and streamer are required", nil)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := &Camera{
		id:       id,
		r:        r,
		modes:    cfg.Modes,
		streamer: cfg.Streamer,
		calib:    cfg.Calib,
		gen:      cfg.Generator,
		pc:       cfg.PointCloud,
		log:      log.With("camera", id),
		params:   param.NewRegistry(log),
	}
	if err := c.params.Add(c.parameters()...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Camera) ID() string              { return c.id }
func (c *Camera) Params() *param.Registry { return c.params }
func (c *Camera) Running() bool           { return c.streamer.Running() }

// ---------------- Register helpers ----------------

// guard rejects mutations while streaming, before any register is touched.
func (c *Camera) guard(op string) error {
	if c.streamer.Running() {
		return errcode.New(errcode.InvalidState, op, "camera is streaming", nil)
	}
	return nil
}

func (c *Camera) get(op string, reg regs.Name, refresh bool) (uint32, error) {
	v, err := c.r.Get(reg, refresh)
	if err != nil {
		return 0, errcode.New(errcode.HardwareReadFailure, op, "read "+string(reg), err)
	}
	return v, nil
}

func (c *Camera) getBool(op string, reg regs.Name, refresh bool) (bool, error) {
	v, err := c.get(op, reg, refresh)
	return v != 0, err
}

func (c *Camera) set(op string, reg regs.Name, v uint32) error {
	if err := c.r.Set(reg, v); err != nil {
		return errcode.New(errcode.HardwareWriteRejected, op, "write "+string(reg), err)
	}
	return nil
}

// checkSetFailed reads a status flag after a write; a raised flag means the
// device refused the value even though the write itself succeeded.
func (c *Camera) checkSetFailed(op string, flag regs.Name) error {
	failed, err := regs.GetBool(c.r, flag, true)
	if err != nil {
		return errcode.New(errcode.HardwareWriteRejected, op, "read "+string(flag), err)
	}
	if failed {
		return errcode.New(errcode.HardwareWriteRejected, op, string(flag)+" raised", nil)
	}
	return nil
}

// ---------------- Device queries ----------------

// MaximumFrameSize returns the full sensor size.
func (c *Camera) MaximumFrameSize() (types.FrameSize, error) {
	const op = "get_max_frame_size"
	cols, err := c.get(op, RegSensorColumns, false)
	if err != nil {
		return types.FrameSize{}, err
	}
	rows, err := c.get(op, RegSensorRows, false)
	if err != nil {
		return types.FrameSize{}, err
	}
	return types.FrameSize{Width: cols, Height: rows}, nil
}

func (c *Camera) BytesPerPixel() (uint32, error) {
	return c.get("get_bytes_per_pixel", RegPixelDataSize, false)
}

// SetBytesPerPixel also selects the matching output data arrangement.
func (c *Camera) SetBytesPerPixel(bpp uint32) error {
	const op = "set_bytes_per_pixel"
	arrange := uint32(0)
	if bpp == 4 {
		arrange = 2
	}
	if err := c.set(op, RegPixelDataSize, bpp); err != nil {
		return err
	}
	return c.set(op, RegOpDataArrangeMode, arrange)
}

func (c *Camera) DataArrangeMode() (uint32, error) {
	return c.get("get_data_arrange_mode", RegOpDataArrangeMode, false)
}

// Reset issues a chip software reset.
func (c *Camera) Reset() error {
	const op = "reset"
	if err := c.guard(op); err != nil {
		return err
	}
	return c.set(op, RegSoftwareReset, 1)
}

// AmplitudeNormalizingFactor scales raw amplitude counts to [0, 1).
func AmplitudeNormalizingFactor() float64 { return 1.0 / (1 << amplitudeShift) }
