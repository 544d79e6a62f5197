package regs

import (
	"log/slog"

	"tinygo.org/x/drivers"
)

// I2C programs a register map over an I2C bus.
//
// Wire format: 16-bit big-endian sub-address, then a 32-bit big-endian word.
// A read is a write of the sub-address followed by a repeated-start read.
type I2C struct {
	bus  drivers.I2C
	addr uint16
	m    Map
	log  *slog.Logger

	last map[Name]uint32

	// Fixed buffers to avoid per-call heap allocations.
	w [6]byte
	r [4]byte
}

// NewI2C builds a programmer. The bus must already be configured.
func NewI2C(bus drivers.I2C, addr uint16, m Map, log *slog.Logger) *I2C {
	if log == nil {
		log = slog.Default()
	}
	return &I2C{bus: bus, addr: addr, m: m, log: log, last: make(map[Name]uint32)}
}

func (p *I2C) readWord(reg uint32) (uint32, error) {
	p.w[0] = byte(reg >> 8)
	p.w[1] = byte(reg)
	if err := p.bus.Tx(p.addr, p.w[:2], p.r[:4]); err != nil {
		return 0, err
	}
	return uint32(p.r[0])<<24 | uint32(p.r[1])<<16 | uint32(p.r[2])<<8 | uint32(p.r[3]), nil
}

func (p *I2C) writeWord(reg, val uint32) error {
	p.w[0] = byte(reg >> 8)
	p.w[1] = byte(reg)
	p.w[2] = byte(val >> 24)
	p.w[3] = byte(val >> 16)
	p.w[4] = byte(val >> 8)
	p.w[5] = byte(val)
	return p.bus.Tx(p.addr, p.w[:6], nil)
}

func (p *I2C) Get(name Name, refresh bool) (uint32, error) {
	if !refresh {
		if v, ok := p.last[name]; ok {
			return v, nil
		}
	}
	f, err := p.m.Lookup(name)
	if err != nil {
		return 0, err
	}
	word, err := p.readWord(f.Addr)
	if err != nil {
		return 0, err
	}
	v := f.Extract(word)
	p.last[name] = v
	return v, nil
}

// Set performs read-modify-write unless the field spans the whole word.
func (p *I2C) Set(name Name, value uint32) error {
	f, err := p.m.Lookup(name)
	if err != nil {
		return err
	}
	if f.Access == AccessRO {
		return ErrReadOnly
	}
	var word uint32
	if f.Width() < 32 {
		if word, err = p.readWord(f.Addr); err != nil {
			return err
		}
	}
	if word, err = f.Insert(word, value); err != nil {
		return err
	}
	if err := p.writeWord(f.Addr, word); err != nil {
		delete(p.last, name)
		return err
	}
	p.last[name] = value
	p.log.Debug("regs: write", "reg", string(name), "addr", f.Addr, "value", value)
	return nil
}

// WriteRegister writes a full word by address and drops cached fields living there.
func (p *I2C) WriteRegister(addr, value uint32) error {
	if err := p.writeWord(addr, value); err != nil {
		return err
	}
	for n, f := range p.m {
		if f.Addr == addr {
			delete(p.last, n)
		}
	}
	return nil
}
