package tof

import (
	"errors"
	"testing"

	"tofcam-go/errcode"
	"tofcam-go/regs"
	"tofcam-go/regs/regsim"
	"tofcam-go/types"
)

type fakeStreamer struct {
	running bool
	sizes   []types.FrameSize
	err     error
}

var _ Streamer = (*fakeStreamer)(nil)

func (s *fakeStreamer) Running() bool { return s.running }
func (s *fakeStreamer) SetFrameSize(fs types.FrameSize) error {
	if s.err != nil {
		return s.err
	}
	s.sizes = append(s.sizes, fs)
	return nil
}

// seed describes a 1280x960 sensor with full ROI, 100 MHz clock and 2 bpp.
func seed() map[regs.Name]uint32 {
	return map[regs.Name]uint32{
		RegSensorColumns:          1280,
		RegSensorRows:             960,
		RegROIStartColumn:         0,
		RegROIEndColumn:           1279,
		RegROIStartRow:            0,
		RegROIEndRow:              959,
		RegPixelDataSize:          2,
		RegOpDataArrangeMode:      0,
		RegSysClkFreq:             100,
		RegQuadCntMax:             4,
		RegSubframeCntMax:         1,
		RegPixCntMax:              833333,
		RegPixCntMaxSetFailed:     0,
		RegIntgDutyCycle:          0,
		RegIntgDutyCycleSetFailed: 0,
		RegBinningEn:              0,
		RegBinRowsToMerge:         1,
		RegBinColsToMerge:         1,
		RegBinRowCount:            960,
		RegBinColumnCount:         1280,
		RegHistogramEn:            0,
		RegToFFrameType:           0,
		RegSoftwareReset:          0,
	}
}

var testModes = Modes{
	{FrameSize: types.FrameSize{Width: 640, Height: 480}, FrameRate: types.NewFrameRate(30, 1), BytesPerPixel: 2},
	{FrameSize: types.FrameSize{Width: 320, Height: 240}, FrameRate: types.NewFrameRate(60, 1), BytesPerPixel: 2},
}

func newTestCamera(t *testing.T, modes ModeSource) (*Camera, *regsim.Device, *fakeStreamer) {
	t.Helper()
	dev := regsim.New(seed())
	st := &fakeStreamer{}
	if modes == nil {
		modes = testModes
	}
	c, err := New(dev, Config{ID: "cam0", Modes: modes, Streamer: st})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, dev, st
}

func wantCode(t *testing.T, err error, want errcode.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("want %s, got nil", want)
	}
	if got := errcode.Of(err); got != want {
		t.Fatalf("want %s, got %s (%v)", want, got, err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, Config{Modes: testModes, Streamer: &fakeStreamer{}})
	wantCode(t, err, errcode.InvalidParams)
	_, err = New(regsim.New(nil), Config{Modes: testModes})
	wantCode(t, err, errcode.InvalidParams)
}

func TestNewAssignsID(t *testing.T) {
	c, err := New(regsim.New(nil), Config{Modes: testModes, Streamer: &fakeStreamer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.ID() == "" {
		t.Fatalf("expected generated id")
	}
	names := c.Params().Names()
	if len(names) == 0 || names[0] != ParamIntegrationTime {
		t.Fatalf("parameters not registered in order: %v", names)
	}
}

func TestMaximumFrameSize(t *testing.T) {
	c, _, _ := newTestCamera(t, nil)
	fs, err := c.MaximumFrameSize()
	if err != nil {
		t.Fatalf("MaximumFrameSize: %v", err)
	}
	if fs != (types.FrameSize{Width: 1280, Height: 960}) {
		t.Fatalf("got %v", fs)
	}
}

func TestSetBytesPerPixelSelectsArrangeMode(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	if err := c.SetBytesPerPixel(4); err != nil {
		t.Fatalf("SetBytesPerPixel(4): %v", err)
	}
	if v, _ := dev.Peek(RegOpDataArrangeMode); v != 2 {
		t.Fatalf("arrange mode = %d, want 2", v)
	}
	if err := c.SetBytesPerPixel(2); err != nil {
		t.Fatalf("SetBytesPerPixel(2): %v", err)
	}
	if v, _ := dev.Peek(RegOpDataArrangeMode); v != 0 {
		t.Fatalf("arrange mode = %d, want 0", v)
	}
	if bpp, _ := c.BytesPerPixel(); bpp != 2 {
		t.Fatalf("bpp = %d", bpp)
	}
}

func TestResetRefusedWhileStreaming(t *testing.T) {
	c, dev, st := newTestCamera(t, nil)
	st.running = true
	wantCode(t, c.Reset(), errcode.InvalidState)
	if dev.TotalWrites() != 0 {
		t.Fatalf("writes while streaming: %d", dev.TotalWrites())
	}
	st.running = false
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if dev.Writes(RegSoftwareReset) != 1 {
		t.Fatalf("software_reset not written")
	}
}

func TestWriteFailureIsRejected(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	dev.FailSet(RegSoftwareReset, nil)
	err := c.Reset()
	wantCode(t, err, errcode.HardwareWriteRejected)
	if !errors.Is(err, regsim.ErrInjected) {
		t.Fatalf("cause not wrapped: %v", err)
	}
}

func TestAmplitudeNormalizingFactor(t *testing.T) {
	if f := AmplitudeNormalizingFactor(); f != 1.0/4096 {
		t.Fatalf("factor = %v", f)
	}
}
