package tof

import (
	"errors"
	"testing"

	"tofcam-go/errcode"
	"tofcam-go/regs"
	"tofcam-go/regs/regsim"
	"tofcam-go/types"
)

func TestSetFrameSizeSelectsLargestFitting(t *testing.T) {
	cases := []struct {
		desired types.FrameSize
		want    types.FrameSize
		bin     types.Binning
	}{
		{types.FrameSize{Width: 640, Height: 480}, types.FrameSize{Width: 640, Height: 480}, types.Binning{RowsToMerge: 2, ColumnsToMerge: 2}},
		{types.FrameSize{Width: 600, Height: 400}, types.FrameSize{Width: 320, Height: 240}, types.Binning{RowsToMerge: 4, ColumnsToMerge: 4}},
		{types.FrameSize{Width: 4000, Height: 4000}, types.FrameSize{Width: 640, Height: 480}, types.Binning{RowsToMerge: 2, ColumnsToMerge: 2}},
	}
	for _, tc := range cases {
		c, dev, st := newTestCamera(t, nil)
		g, err := c.SetFrameSize(tc.desired, false)
		if err != nil {
			t.Fatalf("SetFrameSize(%v): %v", tc.desired, err)
		}
		if g.FrameSize != tc.want || g.Binning != tc.bin {
			t.Fatalf("SetFrameSize(%v) = %v %+v, want %v %+v", tc.desired, g.FrameSize, g.Binning, tc.want, tc.bin)
		}
		if len(st.sizes) != 1 || st.sizes[0] != tc.want {
			t.Fatalf("streamer sizes = %v", st.sizes)
		}
		b, err := c.Binning()
		if err != nil || b != tc.bin {
			t.Fatalf("Binning() = %+v, %v", b, err)
		}
		fs, err := c.FrameSize()
		if err != nil || fs != tc.want {
			t.Fatalf("FrameSize() = %v, %v", fs, err)
		}
		if dev.Writes(RegROIStartColumn) != 0 {
			t.Fatalf("roi written without reset")
		}
	}
}

func TestSetFrameSizeSkipsOtherPixelDepths(t *testing.T) {
	modes := Modes{
		{FrameSize: types.FrameSize{Width: 640, Height: 480}, BytesPerPixel: 4},
		{FrameSize: types.FrameSize{Width: 320, Height: 240}, BytesPerPixel: 2},
	}
	c, _, _ := newTestCamera(t, modes)
	g, err := c.SetFrameSize(types.FrameSize{Width: 640, Height: 480}, false)
	if err != nil {
		t.Fatalf("SetFrameSize: %v", err)
	}
	if g.FrameSize != (types.FrameSize{Width: 320, Height: 240}) {
		t.Fatalf("got %v", g.FrameSize)
	}
}

func TestSetFrameSizeNoCompatibleMode(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	_, err := c.SetFrameSize(types.FrameSize{Width: 100, Height: 100}, false)
	wantCode(t, err, errcode.NoCompatibleMode)
	if dev.TotalWrites() != 0 {
		t.Fatalf("writes on failed negotiation: %d", dev.TotalWrites())
	}
}

func TestSetFrameSizeEmptyCatalogueKeepsTarget(t *testing.T) {
	c, _, _ := newTestCamera(t, Modes{})
	g, err := c.SetFrameSize(types.FrameSize{Width: 640, Height: 320}, false)
	if err != nil {
		t.Fatalf("SetFrameSize: %v", err)
	}
	if g.FrameSize != (types.FrameSize{Width: 640, Height: 320}) || g.Binning != (types.Binning{RowsToMerge: 3, ColumnsToMerge: 2}) {
		t.Fatalf("got %+v", g)
	}
}

func TestSetFrameSizeResetROI(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	dev.Poke(RegROIStartColumn, 100)
	dev.Poke(RegROIEndColumn, 739)
	dev.Poke(RegROIStartRow, 10)
	dev.Poke(RegROIEndRow, 489)

	g, err := c.SetFrameSize(types.FrameSize{Width: 640, Height: 480}, false)
	if err != nil {
		t.Fatalf("SetFrameSize: %v", err)
	}
	if g.ROI != (types.RegionOfInterest{X: 100, Y: 10, Width: 640, Height: 480}) || g.Binning != (types.Binning{RowsToMerge: 1, ColumnsToMerge: 1}) {
		t.Fatalf("narrow roi: %+v", g)
	}

	g, err = c.SetFrameSize(types.FrameSize{Width: 640, Height: 480}, true)
	if err != nil {
		t.Fatalf("SetFrameSize reset: %v", err)
	}
	roi, _ := c.ROI()
	if roi != (types.RegionOfInterest{Width: 1280, Height: 960}) || g.ROI != roi {
		t.Fatalf("roi = %+v, geometry roi = %+v", roi, g.ROI)
	}
	if g.Binning != (types.Binning{RowsToMerge: 2, ColumnsToMerge: 2}) {
		t.Fatalf("binning = %+v", g.Binning)
	}
}

func TestGeometryMutationsRefusedWhileStreaming(t *testing.T) {
	c, dev, st := newTestCamera(t, nil)
	st.running = true

	_, err := c.SetFrameSize(types.FrameSize{Width: 640, Height: 480}, true)
	wantCode(t, err, errcode.InvalidState)
	wantCode(t, c.SetBinning(types.Binning{RowsToMerge: 2, ColumnsToMerge: 2}, types.FrameSize{Width: 640, Height: 480}), errcode.InvalidState)
	wantCode(t, c.SetROI(types.RegionOfInterest{Width: 640, Height: 480}), errcode.InvalidState)
	wantCode(t, c.ApplyProfile(types.Profile{Name: "p"}), errcode.InvalidState)

	if n := dev.TotalWrites(); n != 0 {
		t.Fatalf("writes while streaming: %d", n)
	}
	if len(st.sizes) != 0 {
		t.Fatalf("streamer touched while streaming")
	}
}

func TestSetFrameSizePartialFailureNoRollback(t *testing.T) {
	c, dev, st := newTestCamera(t, nil)
	dev.FailSet(RegBinRowCount, nil)

	_, err := c.SetFrameSize(types.FrameSize{Width: 640, Height: 480}, false)
	wantCode(t, err, errcode.HardwareWriteRejected)

	if v, _ := dev.Peek(RegBinRowsToMerge); v != 2 {
		t.Fatalf("rows to merge = %d, want 2 left applied", v)
	}
	if dev.Writes(RegBinColumnCount) != 0 || dev.Writes(RegBinningEn) != 0 {
		t.Fatalf("writes continued past failure")
	}
	if len(st.sizes) != 0 {
		t.Fatalf("streamer configured after failed commit")
	}
}

func TestSetFrameSizeStreamerFailure(t *testing.T) {
	c, _, st := newTestCamera(t, nil)
	st.err = errors.New("busy")
	_, err := c.SetFrameSize(types.FrameSize{Width: 640, Height: 480}, false)
	wantCode(t, err, errcode.HardwareWriteRejected)
}

func TestSetFrameSizeReadFailure(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	dev.FailGet(RegROIEndRow, nil)
	_, err := c.SetFrameSize(types.FrameSize{Width: 640, Height: 480}, false)
	wantCode(t, err, errcode.HardwareReadFailure)
}

type failingModes struct{}

func (failingModes) SupportedVideoModes() ([]types.SupportedVideoMode, error) {
	return nil, errors.New("usb stall")
}

func TestSetFrameSizeModeQueryFailure(t *testing.T) {
	c, _, _ := newTestCamera(t, failingModes{})
	_, err := c.SetFrameSize(types.FrameSize{Width: 640, Height: 480}, false)
	wantCode(t, err, errcode.HardwareReadFailure)
}

func TestMaximumFrameRateNeverSelects(t *testing.T) {
	c, _, _ := newTestCamera(t, Modes{
		{FrameSize: types.FrameSize{Width: 640, Height: 480}, FrameRate: types.NewFrameRate(30, 1), BytesPerPixel: 2},
	})
	_, err := c.MaximumFrameRate(types.FrameSize{Width: 320, Height: 240})
	wantCode(t, err, errcode.NoCompatibleMode)

	_, err = c.MaximumFrameRate(types.FrameSize{Width: 640, Height: 480})
	wantCode(t, err, errcode.NoCompatibleMode)
}

func TestMaximumFrameRateEmptyCatalogue(t *testing.T) {
	c, _, _ := newTestCamera(t, Modes{})
	_, err := c.MaximumFrameRate(types.FrameSize{Width: 320, Height: 240})
	wantCode(t, err, errcode.NoCompatibleMode)
}

func TestBinningDisabledIgnoresMergeRegisters(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	dev.Poke(RegBinRowsToMerge, 7)
	dev.Poke(RegBinColsToMerge, 5)
	b, err := c.Binning()
	if err != nil {
		t.Fatalf("Binning: %v", err)
	}
	if b != (types.Binning{RowsToMerge: 1, ColumnsToMerge: 1}) {
		t.Fatalf("got %+v", b)
	}
	if dev.Reads(RegBinRowsToMerge) != 0 {
		t.Fatalf("merge register read while disabled")
	}
}

func TestApplyBinningOrder(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	var order []regs.Name
	for _, r := range []regs.Name{RegBinRowsToMerge, RegBinColsToMerge, RegBinRowCount, RegBinColumnCount, RegBinningEn} {
		dev.OnWrite(r, func(_ *regsim.Device, _ uint32) { order = append(order, r) })
	}
	if err := c.SetBinning(types.Binning{RowsToMerge: 2, ColumnsToMerge: 4}, types.FrameSize{Width: 320, Height: 480}); err != nil {
		t.Fatalf("SetBinning: %v", err)
	}
	want := []regs.Name{RegBinRowsToMerge, RegBinColsToMerge, RegBinRowCount, RegBinColumnCount, RegBinningEn}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if v, _ := dev.Peek(RegBinRowCount); v != 480 {
		t.Fatalf("row count = %d", v)
	}
}

func TestSetROIValidates(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	wantCode(t, c.SetROI(types.RegionOfInterest{X: 1000, Width: 640, Height: 480}), errcode.ValidationFailure)
	if dev.TotalWrites() != 0 {
		t.Fatalf("invalid roi written")
	}
	roi := types.RegionOfInterest{X: 64, Y: 32, Width: 640, Height: 480}
	if err := c.SetROI(roi); err != nil {
		t.Fatalf("SetROI: %v", err)
	}
	got, err := c.ROI()
	if err != nil || got != roi {
		t.Fatalf("ROI() = %+v, %v", got, err)
	}
}

func TestROIInvertedBounds(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	dev.Poke(RegROIStartRow, 500)
	dev.Poke(RegROIEndRow, 100)
	_, err := c.ROI()
	wantCode(t, err, errcode.HardwareReadFailure)
}
