package main

import (
	"tofcam-go/drivers/tof"
	"tofcam-go/errcode"
	"tofcam-go/regs"
	"tofcam-go/regs/regsim"
	"tofcam-go/services/config"
	"tofcam-go/types"
)

// newDevice seeds a simulated sensor from the session file: full-sensor ROI,
// binning off and the timing of the first catalogue mode. pix_cnt_max writes
// faster than the fastest mode raise pix_cnt_max_set_failed.
func newDevice(f *config.File, modes []types.SupportedVideoMode) (*regsim.Device, error) {
	s := f.Camera.Sensor
	if s.Columns == 0 || s.Rows == 0 || s.ClockMHz == 0 || s.QuadCount == 0 || s.SubframeCount == 0 {
		return nil, errcode.New(errcode.InvalidParams, "simulator", "camera.sensor needs columns, rows, clock_mhz, quad_count and subframe_count", nil)
	}
	seed := map[regs.Name]uint32{
		tof.RegSensorColumns:          s.Columns,
		tof.RegSensorRows:             s.Rows,
		tof.RegROIStartColumn:         0,
		tof.RegROIEndColumn:           s.Columns - 1,
		tof.RegROIStartRow:            0,
		tof.RegROIEndRow:              s.Rows - 1,
		tof.RegBinningEn:              0,
		tof.RegBinRowsToMerge:         1,
		tof.RegBinColsToMerge:         1,
		tof.RegBinRowCount:            s.Rows,
		tof.RegBinColumnCount:         s.Columns,
		tof.RegSysClkFreq:             s.ClockMHz,
		tof.RegQuadCntMax:             s.QuadCount,
		tof.RegSubframeCntMax:         s.SubframeCount,
		tof.RegPixCntMaxSetFailed:     0,
		tof.RegIntgDutyCycle:          0,
		tof.RegIntgDutyCycleSetFailed: 0,
		tof.RegPixelDataSize:          2,
		tof.RegOpDataArrangeMode:      0,
		tof.RegHistogramEn:            0,
		tof.RegToFFrameType:           0,
		tof.RegSoftwareReset:          0,
	}

	initial, fastest := types.NewFrameRate(30, 1), types.FrameRate{}
	if len(modes) > 0 {
		initial = modes[0].FrameRate
	}
	for _, m := range modes {
		if m.FrameRate.Hz() > fastest.Hz() {
			fastest = m.FrameRate
		}
	}
	pix, err := tof.CounterFromRate(initial, s.QuadCount, s.SubframeCount, s.ClockMHz)
	if err != nil {
		return nil, err
	}
	seed[tof.RegPixCntMax] = pix
	lo := uint32(1)
	if fastest.Numerator > 0 {
		if lo, err = tof.CounterFromRate(fastest, s.QuadCount, s.SubframeCount, s.ClockMHz); err != nil {
			return nil, err
		}
	}

	d := regsim.New(seed)
	d.MarkReadOnly(tof.RegSensorColumns, tof.RegSensorRows, tof.RegSysClkFreq)
	d.RejectOutside(tof.RegPixCntMax, tof.RegPixCntMaxSetFailed, lo, 1<<31)
	d.RejectOutside(tof.RegIntgDutyCycle, tof.RegIntgDutyCycleSetFailed, 0, 63)
	return d, nil
}
