package tof

import (
	"math"

	"tofcam-go/errcode"
	"tofcam-go/types"
	"tofcam-go/x/mathx"
)

// RateFromCounters converts the frame timing counters to a rate in lowest
// terms: clk*1e6 / (pix*quad*subframe).
func RateFromCounters(pixCount, quadCount, subframeCount, clockMHz uint32) (types.FrameRate, error) {
	den := uint64(pixCount) * uint64(quadCount) * uint64(subframeCount)
	if den == 0 {
		return types.FrameRate{}, errcode.New(errcode.HardwareReadFailure, "get_frame_rate", "zero frame counter", nil)
	}
	num := uint64(clockMHz) * clockScale
	g := mathx.GCD(num, den)
	if g == 0 {
		g = 1
	}
	return types.FrameRate{Numerator: num / g, Denominator: den / g}, nil
}

// CounterFromRate returns the pixel count giving rate for the other counters:
// floor(den*clk*1e6 / (quad*subframe*num)), with a 128-bit intermediate.
func CounterFromRate(rate types.FrameRate, quadCount, subframeCount, clockMHz uint32) (uint32, error) {
	const op = "set_frame_rate"
	if rate.Numerator == 0 || rate.Denominator == 0 {
		return 0, errcode.New(errcode.ValidationFailure, op, "frame rate must be positive", nil)
	}
	div := uint64(quadCount) * uint64(subframeCount)
	if div == 0 {
		return 0, errcode.New(errcode.HardwareReadFailure, op, "zero frame counter", nil)
	}
	// floor(floor(x/a)/b) == floor(x/(a*b)) for positive integers.
	q, err := mathx.MulDiv(rate.Denominator, uint64(clockMHz)*clockScale, div)
	if err != nil {
		return 0, errcode.New(errcode.ValidationFailure, op, "frame rate too low for counter width", err)
	}
	pix := q / rate.Numerator
	if pix > math.MaxUint32 {
		return 0, errcode.New(errcode.ValidationFailure, op, "frame rate too low for counter width", nil)
	}
	return uint32(pix), nil
}

func (c *Camera) timing(op string) (quad, subframe, clockMHz uint32, err error) {
	if quad, err = c.get(op, RegQuadCntMax, false); err != nil {
		return
	}
	if subframe, err = c.get(op, RegSubframeCntMax, false); err != nil {
		return
	}
	clockMHz, err = c.get(op, RegSysClkFreq, false)
	return
}

// FrameRate reads the current frame rate. A raised pix_cnt_max_set_failed
// flag means the last rate change was refused and the counters are not
// authoritative.
func (c *Camera) FrameRate() (types.FrameRate, error) {
	const op = "get_frame_rate"
	failed, err := c.getBool(op, RegPixCntMaxSetFailed, true)
	if err != nil {
		return types.FrameRate{}, err
	}
	if failed {
		return types.FrameRate{}, errcode.New(errcode.HardwareWriteRejected, op, string(RegPixCntMaxSetFailed)+" raised", nil)
	}
	pix, err := c.get(op, RegPixCntMax, false)
	if err != nil {
		return types.FrameRate{}, err
	}
	quad, sub, clk, err := c.timing(op)
	if err != nil {
		return types.FrameRate{}, err
	}
	return RateFromCounters(pix, quad, sub, clk)
}

// SetFrameRate writes the pixel count for r and verifies the device accepted it.
func (c *Camera) SetFrameRate(r types.FrameRate) error {
	const op = "set_frame_rate"
	quad, sub, clk, err := c.timing(op)
	if err != nil {
		return err
	}
	pix, err := CounterFromRate(r, quad, sub, clk)
	if err != nil {
		return err
	}
	c.log.Debug("tof: setting register", "reg", string(RegPixCntMax), "value", pix, "rate", r.String())
	if err := c.set(op, RegPixCntMax, pix); err != nil {
		return err
	}
	return c.checkSetFailed(op, RegPixCntMaxSetFailed)
}
