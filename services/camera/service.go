// Package camera exposes a tof.Camera on the bus. One goroutine owns the
// camera and handles requests in arrival order, which is the serialisation
// the camera itself does not provide.
package camera

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tofcam-go/bus"
	"tofcam-go/drivers/tof"
	"tofcam-go/errcode"
	"tofcam-go/types"
)

// Verbs accepted on {"camera", <id>, "ctrl", <verb>}.
const (
	VerbGetFrameSize    = "get_frame_size"
	VerbSetFrameSize    = "set_frame_size"
	VerbGetMaxFrameSize = "get_max_frame_size"
	VerbGetFrameRate    = "get_frame_rate"
	VerbSetFrameRate    = "set_frame_rate"
	VerbGetMaxFrameRate = "get_max_frame_rate"
	VerbGetROI          = "get_roi"
	VerbSetROI          = "set_roi"
	VerbGetBinning      = "get_binning"
	VerbGetParam        = "get_param"
	VerbSetParam        = "set_param"
	VerbListParams      = "list_params"
	VerbApplyProfile    = "apply_profile"
	VerbReset           = "reset"
)

const TopicPrefix = "camera"

func CtrlTopic(id, verb string) bus.Topic  { return bus.T(TopicPrefix, id, "ctrl", verb) }
func StateTopic(id string) bus.Topic       { return bus.T(TopicPrefix, id, "state") }
func ParamTopic(id, name string) bus.Topic { return bus.T(TopicPrefix, id, "state", "param", name) }

type Service struct {
	Camera *tof.Camera
	// Profiles resolves apply_profile names; nil disables the verb.
	Profiles func(name string) (types.Profile, bool)
	Log      *slog.Logger
}

// Run serves requests until ctx ends. The current state is published once
// at start.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	id := s.Camera.ID()
	sub := conn.Subscribe(CtrlTopic(id, "+"))
	defer conn.Unsubscribe(sub)

	s.publishState(conn)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			s.handle(conn, msg)
		}
	}
}

func (s *Service) handle(conn *bus.Connection, msg *bus.Message) {
	verb := msg.Topic[len(msg.Topic)-1]
	data, mutated, err := s.dispatch(verb, msg.Payload)
	if mutated {
		s.publishState(conn)
	}
	if err != nil {
		s.Log.Error("camera: request failed", "verb", verb, "err", err)
		if len(msg.ReplyTo) > 0 {
			conn.Reply(msg, types.Reply{Error: string(errcode.Of(err))}, false)
		}
		return
	}
	if pv, ok := data.(types.ParamValue); ok && verb == VerbSetParam {
		conn.Publish(conn.NewMessage(ParamTopic(s.Camera.ID(), pv.Name), pv, true))
	}
	if len(msg.ReplyTo) > 0 {
		conn.Reply(msg, types.Reply{OK: true, Data: data}, false)
	}
}

// dispatch runs one verb and reports whether device state may have changed,
// failed commits included.
func (s *Service) dispatch(verb string, payload any) (any, bool, error) {
	c := s.Camera
	switch verb {
	case VerbGetFrameSize:
		v, err := c.FrameSize()
		return v, false, err
	case VerbGetMaxFrameSize:
		v, err := c.MaximumFrameSize()
		return v, false, err
	case VerbSetFrameSize:
		var req types.SetFrameSizeReq
		if err := decode(verb, payload, &req); err != nil {
			return nil, false, err
		}
		g, err := c.SetFrameSize(req.Size, req.ResetROI)
		if err != nil {
			// Registers may be partly written; republish what the device reports.
			return nil, true, err
		}
		if err := c.InitStartParams(); err != nil {
			s.Log.Error("camera: generator update failed", "err", err)
		}
		return g, true, nil
	case VerbGetFrameRate:
		v, err := c.FrameRate()
		return v, false, err
	case VerbSetFrameRate:
		r, err := decodeRate(verb, payload)
		if err != nil {
			return nil, false, err
		}
		if err := c.SetFrameRate(r); err != nil {
			return nil, true, err
		}
		v, err := c.FrameRate()
		return v, true, err
	case VerbGetMaxFrameRate:
		var req types.MaxFrameRateReq
		if err := decode(verb, payload, &req); err != nil {
			return nil, false, err
		}
		v, err := c.MaximumFrameRate(req.Size)
		return v, false, err
	case VerbGetROI:
		v, err := c.ROI()
		return v, false, err
	case VerbSetROI:
		var roi types.RegionOfInterest
		if err := decode(verb, payload, &roi); err != nil {
			return nil, false, err
		}
		if err := c.SetROI(roi); err != nil {
			return nil, true, err
		}
		return roi, true, nil
	case VerbGetBinning:
		v, err := c.Binning()
		return v, false, err
	case VerbGetParam:
		var req types.ParamGetReq
		if err := decode(verb, payload, &req); err != nil {
			return nil, false, err
		}
		return s.paramValue(req.Name, req.Refresh)
	case VerbSetParam:
		var req types.ParamSetReq
		if err := decode(verb, payload, &req); err != nil {
			return nil, false, err
		}
		if err := c.Params().SetValue(req.Name, req.Value); err != nil {
			return nil, false, err
		}
		return s.paramValue(req.Name, true)
	case VerbListParams:
		return c.Params().Names(), false, nil
	case VerbApplyProfile:
		var req types.ProfileReq
		if err := decode(verb, payload, &req); err != nil {
			return nil, false, err
		}
		if s.Profiles == nil {
			return nil, false, errcode.New(errcode.Unsupported, verb, "no profiles configured", nil)
		}
		p, ok := s.Profiles(req.Name)
		if !ok {
			return nil, false, errcode.New(errcode.InvalidParams, verb, "unknown profile "+req.Name, nil)
		}
		if err := c.ApplyProfile(p); err != nil {
			return nil, true, err
		}
		return nil, true, nil
	case VerbReset:
		return nil, true, c.Reset()
	}
	return nil, false, errcode.New(errcode.Unsupported, verb, "unknown verb", nil)
}

func (s *Service) paramValue(name string, refresh bool) (any, bool, error) {
	reg := s.Camera.Params()
	v, err := reg.Value(name, refresh)
	if err != nil {
		return nil, false, err
	}
	p, _ := reg.Lookup(name)
	return types.ParamValue{Name: name, Value: v, Unit: p.Meta().Unit}, false, nil
}

// publishState reads the geometry back and publishes it retained. Fields
// that cannot be read are left zero and logged.
func (s *Service) publishState(conn *bus.Connection) {
	c := s.Camera
	st := types.CameraState{ID: c.ID(), TS: time.Now().UnixNano()}
	var err error
	if st.FrameSize, err = c.FrameSize(); err != nil {
		s.Log.Error("camera: state read failed", "field", "frame_size", "err", err)
	}
	if st.FrameRate, err = c.FrameRate(); err != nil {
		s.Log.Error("camera: state read failed", "field", "frame_rate", "err", err)
	}
	if st.ROI, err = c.ROI(); err != nil {
		s.Log.Error("camera: state read failed", "field", "roi", "err", err)
	}
	if st.Binning, err = c.Binning(); err != nil {
		s.Log.Error("camera: state read failed", "field", "binning", "err", err)
	}
	conn.Publish(conn.NewMessage(StateTopic(c.ID()), st, true))
}

// decode accepts a value of type T, a pointer to one, or anything that
// round-trips through JSON into T (maps, []byte, string).
func decode[T any](op string, src any, dst *T) error {
	var err error
	switch v := src.(type) {
	case T:
		*dst = v
		return nil
	case *T:
		if v == nil {
			return errcode.New(errcode.InvalidPayload, op, "nil payload", nil)
		}
		*dst = *v
		return nil
	case []byte:
		err = json.Unmarshal(v, dst)
	case string:
		err = json.Unmarshal([]byte(v), dst)
	case nil:
		return nil
	default:
		var b []byte
		if b, err = json.Marshal(v); err == nil {
			err = json.Unmarshal(b, dst)
		}
	}
	if err != nil {
		return errcode.New(errcode.InvalidPayload, op, "decode", err)
	}
	return nil
}

// decodeRate also accepts the "num/den" text form.
func decodeRate(op string, src any) (types.FrameRate, error) {
	if s, ok := src.(string); ok {
		r, err := types.ParseFrameRate(s)
		if err != nil {
			return types.FrameRate{}, errcode.New(errcode.InvalidPayload, op, s, err)
		}
		return r, nil
	}
	var r types.FrameRate
	if err := decode(op, src, &r); err != nil {
		return r, err
	}
	return types.NewFrameRate(r.Numerator, r.Denominator), nil
}
