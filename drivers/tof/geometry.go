package tof

import (
	"tofcam-go/errcode"
	"tofcam-go/types"
)

// FrameSize reads the output frame size from the binned row/column counts.
func (c *Camera) FrameSize() (types.FrameSize, error) {
	const op = "get_frame_size"
	rows, err := c.get(op, RegBinRowCount, false)
	if err != nil {
		return types.FrameSize{}, err
	}
	cols, err := c.get(op, RegBinColumnCount, false)
	if err != nil {
		return types.FrameSize{}, err
	}
	return types.FrameSize{Width: cols, Height: rows}, nil
}

// SetFrameSize negotiates the largest supported mode that fits inside both
// desired and the working ROI, derives binning from ROI/mode and commits it.
//
// With resetROI the ROI is first widened to the full sensor. The commit is a
// sequence of independent writes; on failure the device may be left partly
// configured and geometry must be re-read before further use.
func (c *Camera) SetFrameSize(desired types.FrameSize, resetROI bool) (types.Geometry, error) {
	const op = "set_frame_size"
	if err := c.guard(op); err != nil {
		return types.Geometry{}, err
	}

	var roi types.RegionOfInterest
	if resetROI {
		sensor, err := c.MaximumFrameSize()
		if err != nil {
			return types.Geometry{}, err
		}
		roi = types.RegionOfInterest{Width: sensor.Width, Height: sensor.Height}
		if err := c.writeROI(op, roi); err != nil {
			return types.Geometry{}, err
		}
	} else {
		r, err := c.ROI()
		if err != nil {
			return types.Geometry{}, err
		}
		roi = r
	}

	target := types.FrameSize{
		Width:  min(desired.Width, roi.Width),
		Height: min(desired.Height, roi.Height),
	}

	modes, err := c.modes.SupportedVideoModes()
	if err != nil {
		return types.Geometry{}, errcode.New(errcode.HardwareReadFailure, op, "supported video modes", err)
	}
	bpp, err := c.get(op, RegPixelDataSize, false)
	if err != nil {
		return types.Geometry{}, err
	}

	chosen := target
	if len(modes) > 0 {
		i := largestFitting(modes, bpp, target)
		if i < 0 {
			return types.Geometry{}, errcode.New(errcode.NoCompatibleMode, op, "no mode fits "+target.String(), nil)
		}
		chosen = modes[i].FrameSize
	}
	if chosen.Width == 0 || chosen.Height == 0 {
		return types.Geometry{}, errcode.New(errcode.ValidationFailure, op, "empty frame size", nil)
	}

	bin := types.Binning{
		RowsToMerge:    roi.Height / chosen.Height,
		ColumnsToMerge: roi.Width / chosen.Width,
	}
	if err := c.applyBinning(op, bin, chosen); err != nil {
		return types.Geometry{}, err
	}
	if err := c.streamer.SetFrameSize(chosen); err != nil {
		return types.Geometry{}, errcode.New(errcode.HardwareWriteRejected, op, "streamer frame size", err)
	}
	return types.Geometry{FrameSize: chosen, Binning: bin, ROI: roi}, nil
}

// largestFitting returns the index of the mode with the greatest area among
// those matching bpp and no larger than target in either dimension, or -1.
// Ties keep the first entry.
func largestFitting(modes []types.SupportedVideoMode, bpp uint32, target types.FrameSize) int {
	area := target.Area()
	best, index := uint64(0), -1
	for i, m := range modes {
		score := m.FrameSize.Area()
		if m.BytesPerPixel != bpp || score > area ||
			m.FrameSize.Width > target.Width || m.FrameSize.Height > target.Height {
			score = 0
		}
		if score > best {
			best, index = score, i
		}
	}
	return index
}

// MaximumFrameRate returns the rate of the catalogue mode selected for size.
func (c *Camera) MaximumFrameRate(size types.FrameSize) (types.FrameRate, error) {
	const op = "get_max_frame_rate"
	modes, err := c.modes.SupportedVideoModes()
	if err != nil {
		return types.FrameRate{}, errcode.New(errcode.HardwareReadFailure, op, "supported video modes", err)
	}
	bpp, err := c.get(op, RegPixelDataSize, false)
	if err != nil {
		return types.FrameRate{}, err
	}
	if len(modes) == 0 {
		return types.FrameRate{}, errcode.New(errcode.NoCompatibleMode, op, "no video modes available", nil)
	}
	i := smallestCovering(modes, bpp, size)
	if i < 0 {
		return types.FrameRate{}, errcode.New(errcode.NoCompatibleMode, op, "no mode covers "+size.String(), nil)
	}
	return modes[i].FrameRate, nil
}

// smallestCovering scans for the mode covering size with the least area.
// minScore starts at zero and is only replaced by a strictly smaller score,
// so with non-negative areas no entry is ever selected and the result is -1.
func smallestCovering(modes []types.SupportedVideoMode, bpp uint32, size types.FrameSize) int {
	area := int64(size.Area())
	minScore, index := int64(0), -1
	for i, m := range modes {
		score := int64(m.FrameSize.Area())
		if m.BytesPerPixel != bpp || score < area ||
			m.FrameSize.Width < size.Width || m.FrameSize.Height < size.Height {
			score = 0
		}
		if score < minScore {
			minScore, index = score, i
		}
	}
	return index
}
