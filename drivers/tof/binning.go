package tof

import (
	"tofcam-go/regs"
	"tofcam-go/types"
)

// Binning returns the merge factors in effect; {1, 1} when binning is off,
// without reading the merge-factor registers.
func (c *Camera) Binning() (types.Binning, error) {
	const op = "get_binning"
	enabled, err := c.getBool(op, RegBinningEn, false)
	if err != nil {
		return types.Binning{}, err
	}
	if !enabled {
		return types.Binning{RowsToMerge: 1, ColumnsToMerge: 1}, nil
	}
	rows, err := c.get(op, RegBinRowsToMerge, false)
	if err != nil {
		return types.Binning{}, err
	}
	cols, err := c.get(op, RegBinColsToMerge, false)
	if err != nil {
		return types.Binning{}, err
	}
	return types.Binning{RowsToMerge: rows, ColumnsToMerge: cols}, nil
}

// SetBinning writes merge factors and the resulting output size, then enables
// binning. Refused while streaming.
func (c *Camera) SetBinning(b types.Binning, size types.FrameSize) error {
	const op = "set_binning"
	if err := c.guard(op); err != nil {
		return err
	}
	return c.applyBinning(op, b, size)
}

// applyBinning issues one write per register and stops at the first failure.
func (c *Camera) applyBinning(op string, b types.Binning, size types.FrameSize) error {
	writes := [...]struct {
		reg regs.Name
		v   uint32
	}{
		{RegBinRowsToMerge, b.RowsToMerge},
		{RegBinColsToMerge, b.ColumnsToMerge},
		{RegBinRowCount, size.Height},
		{RegBinColumnCount, size.Width},
		{RegBinningEn, 1},
	}
	for _, w := range writes {
		if err := c.set(op, w.reg, w.v); err != nil {
			return err
		}
	}
	return nil
}
