package tof

import (
	"testing"

	"tofcam-go/errcode"
	"tofcam-go/regs"
	"tofcam-go/regs/regsim"
	"tofcam-go/types"
)

func TestApplyProfileInOrder(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	p := types.Profile{Name: "near", Params: []types.ProfileParam{
		{Key: "0x0104", Value: "0x0c"},
		{Key: ParamIntegrationTime, Value: 50.0},
		{Key: ParamFrameType, Value: "depth"},
		{Key: "0x0108", Value: 7},
	}}
	if err := c.ApplyProfile(p); err != nil {
		t.Fatalf("ApplyProfile: %v", err)
	}
	want := []regsim.RawWrite{{Addr: 0x104, Value: 0x0c}, {Addr: 0x108, Value: 7}}
	got := dev.RawWrites()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("raw writes = %v, want %v", got, want)
	}
	if v, _ := dev.Peek(RegIntgDutyCycle); v != 31 {
		t.Fatalf("intg_duty_cycle = %d", v)
	}
	// Every readable parameter is re-read after the walk.
	if dev.Reads(RegSysClkFreq) == 0 {
		t.Fatalf("parameters not refreshed")
	}
}

func TestApplyProfileRawFailureContinues(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	dev.FailRaw(0x200, nil)
	p := types.Profile{Name: "p", Params: []types.ProfileParam{
		{Key: "0x0200", Value: 1},
		{Key: "0xzz", Value: 1},
		{Key: "0x0201", Value: "not a number"},
		{Key: ParamHistogram, Value: true},
	}}
	if err := c.ApplyProfile(p); err != nil {
		t.Fatalf("ApplyProfile: %v", err)
	}
	if len(dev.RawWrites()) != 0 {
		t.Fatalf("raw writes = %v", dev.RawWrites())
	}
	if v, _ := dev.Peek(RegHistogramEn); v != 1 {
		t.Fatalf("walk stopped at raw failure")
	}
}

func TestApplyProfileUnknownParameter(t *testing.T) {
	c, dev, _ := newTestCamera(t, nil)
	p := types.Profile{Name: "p", Params: []types.ProfileParam{
		{Key: "no_such_param", Value: 1},
		{Key: ParamHistogram, Value: true},
	}}
	wantCode(t, c.ApplyProfile(p), errcode.UnknownParameter)
	if dev.Writes(RegHistogramEn) != 0 {
		t.Fatalf("walk continued past unknown parameter")
	}
}

func TestApplyProfileParameterFailure(t *testing.T) {
	c, _, _ := newTestCamera(t, nil)
	p := types.Profile{Name: "p", Params: []types.ProfileParam{
		{Key: ParamIntegrationTime, Value: 150},
	}}
	wantCode(t, c.ApplyProfile(p), errcode.ValidationFailure)
}

func TestApplyProfileWithoutRawWriter(t *testing.T) {
	// Embedding only regs.Interface hides the simulator's raw writer.
	dev := regsim.New(seed())
	c, err := New(struct{ regs.Interface }{dev}, Config{Modes: testModes, Streamer: &fakeStreamer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := types.Profile{Name: "p", Params: []types.ProfileParam{{Key: "0x10", Value: 1}}}
	if err := c.ApplyProfile(p); err != nil {
		t.Fatalf("ApplyProfile: %v", err)
	}
	if len(dev.RawWrites()) != 0 {
		t.Fatalf("raw write went through")
	}
}
