// Package config loads the camera session file and publishes its sections on
// the bus as retained messages.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tofcam-go/calib"
	"tofcam-go/errcode"
	"tofcam-go/regs"
	"tofcam-go/types"
)

// File is a parsed session file.
type File struct {
	Camera      Camera                       `yaml:"camera"`
	Registers   map[string]Register          `yaml:"registers"`
	Calibration map[string]map[string]string `yaml:"calibration"`
	Profiles    map[string]Params            `yaml:"profiles"`
	MQTT        MQTT                         `yaml:"mqtt"`
	Heartbeat   Heartbeat                    `yaml:"heartbeat"`
}

type Camera struct {
	ID             string `yaml:"id"`
	I2CAddress     uint16 `yaml:"i2c_address"`
	DefaultProfile string `yaml:"default_profile"`
	Sensor         Sensor `yaml:"sensor"`
	Modes          []Mode `yaml:"modes"`
}

// Sensor seeds the simulated device.
type Sensor struct {
	Columns       uint32 `yaml:"columns"`
	Rows          uint32 `yaml:"rows"`
	ClockMHz      uint32 `yaml:"clock_mhz"`
	QuadCount     uint32 `yaml:"quad_count"`
	SubframeCount uint32 `yaml:"subframe_count"`
}

type Mode struct {
	Width         uint32 `yaml:"width"`
	Height        uint32 `yaml:"height"`
	Rate          string `yaml:"rate"` // "num/den" or "num"
	BytesPerPixel uint32 `yaml:"bytes_per_pixel"`
}

// Register locates a named field: addr is the word address, bits "msb:lsb"
// or a single bit index. An empty bits value means the whole word.
type Register struct {
	Addr   uint32 `yaml:"addr"`
	Bits   string `yaml:"bits"`
	Access string `yaml:"access"`
}

type MQTT struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

type Heartbeat struct {
	Interval float64 `yaml:"interval"` // seconds
}

// Params is a profile body. Entry order follows the file.
type Params []types.ProfileParam

func (p *Params) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return errcode.New(errcode.InvalidParams, "config", "profile must be a mapping", nil)
	}
	out := make(Params, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return err
		}
		out = append(out, types.ProfileParam{Key: n.Content[i].Value, Value: v})
	}
	*p = out
	return nil
}

const DefaultTopicPrefix = "tofcam"

// Load reads and parses path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errcode.New(errcode.InvalidParams, "config", "read "+path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a session file.
func Parse(b []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errcode.New(errcode.InvalidParams, "config", "decode", err)
	}
	if f.MQTT.TopicPrefix == "" {
		f.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func invalid(msg string, err error) error {
	return errcode.New(errcode.InvalidParams, "config", msg, err)
}

func (f *File) validate() error {
	if _, err := f.VideoModes(); err != nil {
		return err
	}
	if _, err := f.RegisterMap(); err != nil {
		return err
	}
	if p := f.Camera.DefaultProfile; p != "" {
		if _, ok := f.Profiles[p]; !ok {
			return invalid("default profile "+strconv.Quote(p)+" not defined", nil)
		}
	}
	if f.MQTT.QoS > 2 {
		return invalid("mqtt qos must be 0, 1 or 2", nil)
	}
	if f.Heartbeat.Interval < 0 {
		return invalid("heartbeat interval must not be negative", nil)
	}
	return nil
}

// VideoModes returns the supported mode catalogue.
func (f *File) VideoModes() ([]types.SupportedVideoMode, error) {
	out := make([]types.SupportedVideoMode, 0, len(f.Camera.Modes))
	for i, m := range f.Camera.Modes {
		at := "camera.modes[" + strconv.Itoa(i) + "]"
		if m.Width == 0 || m.Height == 0 {
			return nil, invalid(at+": empty frame size", nil)
		}
		r, err := types.ParseFrameRate(m.Rate)
		if err != nil {
			return nil, invalid(at+": rate", err)
		}
		out = append(out, types.SupportedVideoMode{
			FrameSize:     types.FrameSize{Width: m.Width, Height: m.Height},
			FrameRate:     r,
			BytesPerPixel: m.BytesPerPixel,
		})
	}
	return out, nil
}

// RegisterMap converts the registers section.
func (f *File) RegisterMap() (regs.Map, error) {
	m := make(regs.Map, len(f.Registers))
	for name, r := range f.Registers {
		msb, lsb, err := parseBits(r.Bits)
		if err != nil {
			return nil, invalid("registers."+name+": bits", err)
		}
		acc, err := regs.ParseAccess(r.Access)
		if err != nil {
			return nil, invalid("registers."+name, err)
		}
		m[regs.Name(name)] = regs.Field{Addr: r.Addr, MSB: msb, LSB: lsb, Access: acc}
	}
	if err := m.Validate(); err != nil {
		return nil, invalid("registers", err)
	}
	return m, nil
}

func parseBits(s string) (msb, lsb uint8, err error) {
	if s == "" {
		return 31, 0, nil
	}
	hi, lo, found := strings.Cut(s, ":")
	if !found {
		lo = hi
	}
	h, err := strconv.ParseUint(strings.TrimSpace(hi), 10, 8)
	if err != nil {
		return 0, 0, err
	}
	l, err := strconv.ParseUint(strings.TrimSpace(lo), 10, 8)
	if err != nil {
		return 0, 0, err
	}
	return uint8(h), uint8(l), nil
}

// Calib returns the calibration section as a provider.
func (f *File) Calib() calib.Map {
	m := make(calib.Map, len(f.Calibration))
	for s, kv := range f.Calibration {
		for k, v := range kv {
			m.Set(s, k, v)
		}
	}
	return m
}

// Profile returns the named profile.
func (f *File) Profile(name string) (types.Profile, bool) {
	p, ok := f.Profiles[name]
	if !ok {
		return types.Profile{}, false
	}
	return types.Profile{Name: name, Params: append([]types.ProfileParam(nil), p...)}, true
}
