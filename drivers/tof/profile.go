package tof

import (
	"strconv"
	"strings"

	"tofcam-go/errcode"
	"tofcam-go/param"
	"tofcam-go/regs"
	"tofcam-go/types"
)

// ApplyProfile resets the chip, writes a profile's settings in order, then
// refreshes every parameter.
//
// Raw register entries ("0x" keys) are best effort: failures are logged and
// the walk continues. A parameter entry that is unknown or fails to set stops
// the walk and is returned.
func (c *Camera) ApplyProfile(p types.Profile) error {
	const op = "apply_profile"
	if err := c.guard(op); err != nil {
		return err
	}
	if err := c.set(op, RegSoftwareReset, 1); err != nil {
		return err
	}
	raw, _ := c.r.(regs.RawWriter)
	for _, kv := range p.Params {
		if isRawKey(kv.Key) {
			c.writeRaw(raw, kv)
			continue
		}
		if _, ok := c.params.Lookup(kv.Key); !ok {
			return errcode.New(errcode.UnknownParameter, op, p.Name+": "+kv.Key, nil)
		}
		if err := c.params.SetValue(kv.Key, kv.Value); err != nil {
			return err
		}
	}
	if err := c.params.RefreshAll(); err != nil {
		return errcode.New(errcode.HardwareReadFailure, op, "refresh parameters", err)
	}
	c.log.Info("tof: profile applied", "profile", p.Name, "entries", len(p.Params))
	return nil
}

func isRawKey(k string) bool {
	return len(k) > 2 && (strings.HasPrefix(k, "0x") || strings.HasPrefix(k, "0X"))
}

func (c *Camera) writeRaw(w regs.RawWriter, kv types.ProfileParam) {
	if w == nil {
		c.log.Error("tof: raw register writes not supported", "addr", kv.Key)
		return
	}
	addr, err := strconv.ParseUint(kv.Key[2:], 16, 32)
	if err != nil {
		c.log.Error("tof: bad register address", "addr", kv.Key, "err", err)
		return
	}
	val, ok := param.ToUint32(kv.Value)
	if !ok {
		c.log.Error("tof: bad register value", "addr", kv.Key, "value", kv.Value)
		return
	}
	if err := w.WriteRegister(uint32(addr), val); err != nil {
		c.log.Error("tof: raw register write failed", "addr", kv.Key, "err", err)
	}
}
