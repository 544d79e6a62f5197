package types

// FrameKind discriminates the frame variants handed between capture stages.
type FrameKind uint8

const (
	FrameRawUnprocessed FrameKind = iota + 1
	FrameRawProcessed
	FrameDepth
	FramePointCloud
)

func (k FrameKind) String() string {
	switch k {
	case FrameRawUnprocessed:
		return "raw_unprocessed"
	case FrameRawProcessed:
		return "raw_processed"
	case FrameDepth:
		return "depth"
	case FramePointCloud:
		return "point_cloud"
	default:
		return "unknown"
	}
}

// Frame is implemented by RawFrame, DepthFrame and PointCloudFrame only.
type Frame interface {
	Kind() FrameKind
	FrameID() uint64
}

type RawFrame struct {
	ID          uint64
	TimestampNS int64
	Processed   bool
	Size        FrameSize
	Data        []byte
}

func (f *RawFrame) Kind() FrameKind {
	if f.Processed {
		return FrameRawProcessed
	}
	return FrameRawUnprocessed
}
func (f *RawFrame) FrameID() uint64 { return f.ID }

type DepthFrame struct {
	ID        uint64
	Size      FrameSize
	Depth     []float32
	Amplitude []float32
}

func (f *DepthFrame) Kind() FrameKind { return FrameDepth }
func (f *DepthFrame) FrameID() uint64 { return f.ID }

type Point struct{ X, Y, Z, I float32 }

type PointCloudFrame struct {
	ID     uint64
	Points []Point
}

func (f *PointCloudFrame) Kind() FrameKind { return FramePointCloud }
func (f *PointCloudFrame) FrameID() uint64 { return f.ID }
