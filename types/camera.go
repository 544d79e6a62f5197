package types

import (
	"errors"
	"strconv"
	"strings"
)

// ---- Capture geometry ----

// FrameSize is the pixel size of a readout mode or output frame.
type FrameSize struct {
	Width  uint32 `json:"width" yaml:"width"`
	Height uint32 `json:"height" yaml:"height"`
}

func (s FrameSize) Area() uint64 { return uint64(s.Width) * uint64(s.Height) }

func (s FrameSize) String() string {
	return strconv.FormatUint(uint64(s.Width), 10) + "x" + strconv.FormatUint(uint64(s.Height), 10)
}

// FrameRate is a rational rate in frames per second. Values built with
// NewFrameRate are always in lowest terms.
type FrameRate struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

var ErrBadFrameRate = errors.New("frame rate must be num/den with den > 0")

// NewFrameRate reduces n/d by their gcd. A zero denominator is kept as-is.
func NewFrameRate(n, d uint64) FrameRate {
	a, b := n, d
	for b != 0 {
		a, b = b, a%b
	}
	if a > 1 {
		n, d = n/a, d/a
	}
	return FrameRate{Numerator: n, Denominator: d}
}

// Hz returns the rate as a float; 0 for a zero denominator.
func (r FrameRate) Hz() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

func (r FrameRate) String() string {
	return strconv.FormatUint(r.Numerator, 10) + "/" + strconv.FormatUint(r.Denominator, 10)
}

// ParseFrameRate accepts "num/den" or a bare integer ("30" == "30/1").
func ParseFrameRate(s string) (FrameRate, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return FrameRate{}, ErrBadFrameRate
	}
	d := uint64(1)
	if found {
		d, err = strconv.ParseUint(strings.TrimSpace(den), 10, 64)
		if err != nil || d == 0 {
			return FrameRate{}, ErrBadFrameRate
		}
	}
	return NewFrameRate(n, d), nil
}

// RegionOfInterest is the active sensor window before binning.
type RegionOfInterest struct {
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

func (r RegionOfInterest) Size() FrameSize { return FrameSize{Width: r.Width, Height: r.Height} }

// Within reports whether the ROI is non-empty and fits inside a sensor of the given size.
func (r RegionOfInterest) Within(sensor FrameSize) bool {
	if r.Width == 0 || r.Height == 0 {
		return false
	}
	return uint64(r.X)+uint64(r.Width) <= uint64(sensor.Width) &&
		uint64(r.Y)+uint64(r.Height) <= uint64(sensor.Height)
}

// SupportedVideoMode is one device-reported catalogue entry.
type SupportedVideoMode struct {
	FrameSize     FrameSize `json:"frame_size"`
	FrameRate     FrameRate `json:"frame_rate"`
	BytesPerPixel uint32    `json:"bytes_per_pixel"`
}

// Binning holds row/column merge factors. Disabled binning is {1, 1}.
type Binning struct {
	RowsToMerge    uint32 `json:"rows_to_merge"`
	ColumnsToMerge uint32 `json:"columns_to_merge"`
}

// Geometry is the outcome of a frame size negotiation.
type Geometry struct {
	FrameSize FrameSize        `json:"frame_size"`
	Binning   Binning          `json:"binning"`
	ROI       RegionOfInterest `json:"roi"`
}
