package tof

import (
	"tofcam-go/errcode"
	"tofcam-go/regs"
	"tofcam-go/types"
)

// ROI reads the current region of interest from its inclusive bound registers.
func (c *Camera) ROI() (types.RegionOfInterest, error) {
	const op = "get_roi"
	var v [4]uint32
	for i, reg := range [...]regs.Name{RegROIStartColumn, RegROIEndColumn, RegROIStartRow, RegROIEndRow} {
		x, err := c.get(op, reg, false)
		if err != nil {
			return types.RegionOfInterest{}, err
		}
		v[i] = x
	}
	if v[1] < v[0] || v[3] < v[2] {
		return types.RegionOfInterest{}, errcode.New(errcode.HardwareReadFailure, op, "inverted roi bounds", nil)
	}
	return types.RegionOfInterest{
		X:      v[0],
		Y:      v[2],
		Width:  v[1] - v[0] + 1,
		Height: v[3] - v[2] + 1,
	}, nil
}

// SetROI validates roi against the sensor size and writes it. Refused while
// streaming.
func (c *Camera) SetROI(roi types.RegionOfInterest) error {
	const op = "set_roi"
	if err := c.guard(op); err != nil {
		return err
	}
	sensor, err := c.MaximumFrameSize()
	if err != nil {
		return err
	}
	if !roi.Within(sensor) {
		return errcode.New(errcode.ValidationFailure, op, "roi outside sensor "+sensor.String(), nil)
	}
	return c.writeROI(op, roi)
}

func (c *Camera) writeROI(op string, roi types.RegionOfInterest) error {
	writes := [...]struct {
		reg regs.Name
		v   uint32
	}{
		{RegROIStartColumn, roi.X},
		{RegROIEndColumn, roi.X + roi.Width - 1},
		{RegROIStartRow, roi.Y},
		{RegROIEndRow, roi.Y + roi.Height - 1},
	}
	for _, w := range writes {
		if err := c.set(op, w.reg, w.v); err != nil {
			return err
		}
	}
	return nil
}
