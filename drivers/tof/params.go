package tof

import (
	"math"

	"tofcam-go/errcode"
	"tofcam-go/param"
	"tofcam-go/regs"
	"tofcam-go/x/mathx"
)

// Parameter names registered on every session.
const (
	ParamIntegrationTime = "intg_time"
	ParamPixelDataSize   = "pixel_data_size"
	ParamBinningEnabled  = "binning_en"
	ParamHistogram       = "histogram_en"
	ParamFrameType       = "tof_frame_type"
	ParamSysClock        = "sys_clk_freq"
)

func (c *Camera) parameters() []param.Parameter {
	return []param.Parameter{
		param.NewFloat(integrationTime{c}, 0, 100, param.Meta{
			Name:        ParamIntegrationTime,
			Unit:        "%",
			DisplayName: "Integration time",
			Description: "Integration time as percentage of total cycle time",
			IO:          param.ReadWrite,
			Deps:        []regs.Name{RegIntgDutyCycle},
		}),
		param.NewEnum(c.r, RegPixelDataSize, []uint32{2, 4}, []string{"2", "4"}, param.Meta{
			Name:        ParamPixelDataSize,
			Unit:        "bytes",
			DisplayName: "Bytes per pixel",
		}),
		param.NewBool(c.r, RegBinningEn, param.Meta{
			Name:        ParamBinningEnabled,
			DisplayName: "Binning enabled",
			Description: "Set through the frame size API",
			IO:          param.ReadOnly,
		}),
		param.NewBool(c.r, RegHistogramEn, param.Meta{
			Name:        ParamHistogram,
			DisplayName: "Histogram output",
		}),
		param.NewEnum(c.r, RegToFFrameType, []uint32{0, 1}, []string{"phase_amplitude", "depth"}, param.Meta{
			Name:        ParamFrameType,
			DisplayName: "ToF frame type",
		}),
		param.NewUint(c.r, RegSysClkFreq, 1, 1000, param.Meta{
			Name:        ParamSysClock,
			Unit:        "MHz",
			DisplayName: "System clock",
			IO:          param.ReadOnly,
		}),
	}
}

// integrationTime maps the 0..63 duty-cycle count onto a 0..100 percentage.
// The mapping is lossy: Load(Store(v)) lands within one count (100/63 %) of v.
type integrationTime struct{ c *Camera }

func (p integrationTime) Load(refresh bool) (float64, error) {
	const op = "get " + ParamIntegrationTime
	raw, err := p.c.get(op, RegIntgDutyCycle, refresh)
	if err != nil {
		return 0, err
	}
	failed, err := p.c.getBool(op, RegIntgDutyCycleSetFailed, refresh)
	if err != nil {
		return 0, err
	}
	if failed {
		return 0, errcode.New(errcode.HardwareWriteRejected, op, string(RegIntgDutyCycleSetFailed)+" raised", nil)
	}
	return mathx.Clamp(float64(raw)*100/maxDutyCycle, 0, 100), nil
}

// Store expects a value already validated against [0, 100].
func (p integrationTime) Store(v float64) error {
	const op = "set " + ParamIntegrationTime
	raw := uint32(mathx.Min(math.Floor(v*maxDutyCycle/100), maxDutyCycle))
	p.c.log.Debug("tof: setting register", "reg", string(RegIntgDutyCycle), "value", raw)
	if err := p.c.set(op, RegIntgDutyCycle, raw); err != nil {
		return err
	}
	return p.c.checkSetFailed(op, RegIntgDutyCycleSetFailed)
}

// IntegrationTime is a typed shortcut for the intg_time parameter.
func (c *Camera) IntegrationTime(refresh bool) (float64, error) {
	return integrationTime{c}.Load(refresh)
}

func (c *Camera) SetIntegrationTime(v float64) error {
	p, _ := c.params.Lookup(ParamIntegrationTime)
	return p.(*param.Float).Set(v)
}
