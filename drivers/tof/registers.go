package tof

import "tofcam-go/regs"

// Register names the camera core reads and writes. The register map of the
// transport resolves them to addresses and bit fields.
const (
	// Frame timing
	RegPixCntMax          regs.Name = "pix_cnt_max"
	RegPixCntMaxSetFailed regs.Name = "pix_cnt_max_set_failed" // R, raised asynchronously
	RegQuadCntMax         regs.Name = "quad_cnt_max"
	RegSubframeCntMax     regs.Name = "subframe_cnt_max"
	RegSysClkFreq         regs.Name = "sys_clk_freq" // R, MHz

	// Integration
	RegIntgDutyCycle          regs.Name = "intg_duty_cycle"
	RegIntgDutyCycleSetFailed regs.Name = "intg_duty_cycle_set_failed" // R

	// Binning
	RegBinningEn      regs.Name = "binning_en"
	RegBinRowsToMerge regs.Name = "bin_rows_to_merge"
	RegBinColsToMerge regs.Name = "bin_cols_to_merge"
	RegBinRowCount    regs.Name = "bin_row_count"
	RegBinColumnCount regs.Name = "bin_column_count"

	// Region of interest, inclusive bounds
	RegROIStartRow    regs.Name = "roi_start_row"
	RegROIEndRow      regs.Name = "roi_end_row"
	RegROIStartColumn regs.Name = "roi_start_column"
	RegROIEndColumn   regs.Name = "roi_end_column"

	// Sensor, read-only
	RegSensorRows    regs.Name = "sensor_rows"
	RegSensorColumns regs.Name = "sensor_columns"

	// Output format
	RegPixelDataSize     regs.Name = "pixel_data_size"
	RegOpDataArrangeMode regs.Name = "op_data_arrange_mode"
	RegHistogramEn       regs.Name = "histogram_en"
	RegToFFrameType      regs.Name = "tof_frame_type"

	RegSoftwareReset regs.Name = "software_reset"
)

const (
	// maxDutyCycle is the largest integration duty-cycle count.
	maxDutyCycle = 63

	// clockScale converts sys_clk_freq (MHz) to Hz.
	clockScale = 1_000_000

	// amplitudeShift is the fixed-point width of amplitude samples.
	amplitudeShift = 12
)
