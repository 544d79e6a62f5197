package tof

import (
	"tofcam-go/errcode"
	"tofcam-go/types"
)

// FrameGenerator turns raw sensor frames into depth frames. Implementations
// live outside this package.
type FrameGenerator interface {
	SetParameters(ProcessingParams) error
	Generate(types.Frame) (types.Frame, error)
}

// PointCloudGenerator converts depth frames into point clouds.
type PointCloudGenerator interface {
	SetParameters(PointCloudParams) error
}

// Intrinsics holds the pinhole model and distortion terms of the lens.
type Intrinsics struct {
	Fx, Fy, Cx, Cy float64
	K1, K2, K3     float64
	P1, P2         float64
}

// ProcessingParams is forwarded opaquely to the frame generator.
type ProcessingParams struct {
	Size            types.FrameSize
	MaxSize         types.FrameSize
	ROI             types.RegionOfInterest
	Binning         types.Binning
	BytesPerPixel   uint32
	ArrangeMode     uint32
	Histogram       bool
	FrameType       uint32
	AmplitudeFactor float64
	PhaseCorrection string
	CrossTalkCoeff  string
}

type PointCloudParams struct {
	Size    types.FrameSize
	ROI     types.RegionOfInterest
	Binning types.Binning
	Lens    Intrinsics
}

// Calibration section names read by the generator hand-off.
const (
	CalibSectionProcessing = "processing"
	CalibSectionLens       = "intrinsics"
)

// ProcessingParams gathers the current geometry, output format and
// calibration strings. Missing calibration keys are forwarded empty.
func (c *Camera) ProcessingParams() (ProcessingParams, error) {
	const op = "processing_params"
	var p ProcessingParams
	var err error
	if p.Size, err = c.FrameSize(); err != nil {
		return p, err
	}
	if p.MaxSize, err = c.MaximumFrameSize(); err != nil {
		return p, err
	}
	if p.ROI, err = c.ROI(); err != nil {
		return p, err
	}
	if p.Binning, err = c.Binning(); err != nil {
		return p, err
	}
	if p.BytesPerPixel, err = c.get(op, RegPixelDataSize, false); err != nil {
		return p, err
	}
	if p.ArrangeMode, err = c.get(op, RegOpDataArrangeMode, false); err != nil {
		return p, err
	}
	if p.Histogram, err = c.getBool(op, RegHistogramEn, false); err != nil {
		return p, err
	}
	if p.FrameType, err = c.get(op, RegToFFrameType, false); err != nil {
		return p, err
	}
	p.AmplitudeFactor = AmplitudeNormalizingFactor()
	if c.calib != nil {
		p.PhaseCorrection, _ = c.calib.Get(CalibSectionProcessing, "phasecorrection")
		p.CrossTalkCoeff, _ = c.calib.Get(CalibSectionProcessing, "cross_talk_coeff")
	}
	return p, nil
}

// PointCloudParams gathers geometry and lens intrinsics.
func (c *Camera) PointCloudParams() (PointCloudParams, error) {
	var p PointCloudParams
	var err error
	if p.Size, err = c.FrameSize(); err != nil {
		return p, err
	}
	if p.ROI, err = c.ROI(); err != nil {
		return p, err
	}
	if p.Binning, err = c.Binning(); err != nil {
		return p, err
	}
	p.Lens = c.intrinsics()
	return p, nil
}

func (c *Camera) intrinsics() Intrinsics {
	var in Intrinsics
	if c.calib == nil {
		return in
	}
	for key, dst := range map[string]*float64{
		"fx": &in.Fx, "fy": &in.Fy, "cx": &in.Cx, "cy": &in.Cy,
		"k1": &in.K1, "k2": &in.K2, "k3": &in.K3,
		"p1": &in.P1, "p2": &in.P2,
	} {
		v, err := c.calib.GetFloat(CalibSectionLens, key)
		if err != nil {
			c.log.Debug("tof: calibration value missing", "section", CalibSectionLens, "key", key)
			continue
		}
		*dst = v
	}
	return in
}

// InitStartParams pushes processing parameters to the attached generators.
// Call it before streaming starts and after every geometry change.
func (c *Camera) InitStartParams() error {
	const op = "init_start_params"
	if c.gen != nil {
		p, err := c.ProcessingParams()
		if err != nil {
			return err
		}
		if err := c.gen.SetParameters(p); err != nil {
			return errcode.New(errcode.Error, op, "frame generator", err)
		}
	}
	if c.pc != nil {
		p, err := c.PointCloudParams()
		if err != nil {
			return err
		}
		if err := c.pc.SetParameters(p); err != nil {
			return errcode.New(errcode.Error, op, "point cloud generator", err)
		}
	}
	return nil
}

// ProcessRawFrame refreshes the generator's parameters, runs an unprocessed
// raw frame through it and returns the depth frame it produced.
func (c *Camera) ProcessRawFrame(f types.Frame) (*types.DepthFrame, error) {
	const op = "process_raw_frame"
	if c.gen == nil {
		return nil, errcode.New(errcode.Unsupported, op, "no frame generator", nil)
	}
	if f == nil || f.Kind() != types.FrameRawUnprocessed {
		return nil, errcode.New(errcode.InvalidPayload, op, "want unprocessed raw frame", nil)
	}
	p, err := c.ProcessingParams()
	if err != nil {
		return nil, err
	}
	if err := c.gen.SetParameters(p); err != nil {
		return nil, errcode.New(errcode.Error, op, "frame generator", err)
	}
	out, err := c.gen.Generate(f)
	if err != nil {
		return nil, errcode.New(errcode.Error, op, "generate", err)
	}
	if out == nil {
		return nil, errcode.New(errcode.Error, op, "generator returned no frame", nil)
	}
	d, ok := out.(*types.DepthFrame)
	if !ok {
		return nil, errcode.New(errcode.Error, op, "generator returned "+out.Kind().String(), nil)
	}
	return d, nil
}
