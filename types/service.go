package types

// ---- Camera service payloads ----

// Reply is sent on a request's ReplyTo topic.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"` // errcode.Code
	Data  any    `json:"data,omitempty"`
}

type SetFrameSizeReq struct {
	Size     FrameSize `json:"size"`
	ResetROI bool      `json:"reset_roi"`
}

type MaxFrameRateReq struct {
	Size FrameSize `json:"size"`
}

type ParamGetReq struct {
	Name    string `json:"name"`
	Refresh bool   `json:"refresh,omitempty"`
}

type ParamSetReq struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type ParamValue struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

type ProfileReq struct {
	Name string `json:"name"`
}

// CameraState is published retained after every successful mutation.
type CameraState struct {
	ID        string           `json:"id"`
	FrameSize FrameSize        `json:"frame_size"`
	FrameRate FrameRate        `json:"frame_rate"`
	ROI       RegionOfInterest `json:"roi"`
	Binning   Binning          `json:"binning"`
	TS        int64            `json:"ts_ns"`
}

// ---- Camera profiles ----

// Profile is an ordered list of settings applied in one pass. Keys starting
// with "0x" are raw register addresses; all others name parameters.
type Profile struct {
	Name   string         `json:"name" yaml:"name"`
	Params []ProfileParam `json:"params" yaml:"params"`
}

type ProfileParam struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}
