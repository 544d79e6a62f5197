package regs

import (
	"errors"
	"strconv"
)

// Access describes what a field allows.
type Access uint8

const (
	AccessRW Access = iota
	AccessRO
	AccessWO
)

func ParseAccess(s string) (Access, error) {
	switch s {
	case "", "rw":
		return AccessRW, nil
	case "ro", "r":
		return AccessRO, nil
	case "wo", "w":
		return AccessWO, nil
	}
	return 0, errors.New("regs: unknown access " + strconv.Quote(s))
}

// Field locates a named value inside a 32-bit device word.
type Field struct {
	Addr   uint32
	MSB    uint8
	LSB    uint8
	Access Access
}

// Width is the field width in bits.
func (f Field) Width() uint8 { return f.MSB - f.LSB + 1 }

// Mask returns the in-word mask of the field.
func (f Field) Mask() uint32 {
	if f.Width() >= 32 {
		return 0xFFFF_FFFF
	}
	return ((uint32(1) << f.Width()) - 1) << f.LSB
}

// Extract returns the field value from a full word.
func (f Field) Extract(word uint32) uint32 { return (word & f.Mask()) >> f.LSB }

// Insert places v into word, leaving other bits untouched.
func (f Field) Insert(word, v uint32) (uint32, error) {
	if f.Width() < 32 && v>>f.Width() != 0 {
		return word, ErrValueRange
	}
	return (word &^ f.Mask()) | (v << f.LSB & f.Mask()), nil
}

// Map resolves register names to fields.
type Map map[Name]Field

// Validate checks every field's bit range.
func (m Map) Validate() error {
	for n, f := range m {
		if f.LSB > f.MSB || f.MSB > 31 {
			return errors.New("regs: bad bit range for " + string(n))
		}
	}
	return nil
}

func (m Map) Lookup(name Name) (Field, error) {
	f, ok := m[name]
	if !ok {
		return Field{}, ErrUnknownRegister
	}
	return f, nil
}
