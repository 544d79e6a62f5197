// Package regs defines the named register capability the camera core is
// built on, plus the concrete programmers that implement it.
//
// Every call is a single synchronous attempt; a failed call has no effect on
// other registers.
package regs

import (
	"errors"
	"math"
)

// Name identifies a register (or a bit field within one) by its semantic name.
type Name string

// Interface is the raw register transport.
type Interface interface {
	// Get returns the register value. With refresh=false an implementation
	// may answer from its last observed value.
	Get(name Name, refresh bool) (uint32, error)
	Set(name Name, value uint32) error
}

// RawWriter is implemented by programmers that can also write by address.
type RawWriter interface {
	WriteRegister(addr, value uint32) error
}

var (
	ErrUnknownRegister = errors.New("regs: unknown register")
	ErrReadOnly        = errors.New("regs: register is read-only")
	ErrValueRange      = errors.New("regs: value does not fit field")
)

func GetBool(r Interface, name Name, refresh bool) (bool, error) {
	v, err := r.Get(name, refresh)
	return v != 0, err
}

func SetBool(r Interface, name Name, v bool) error {
	var w uint32
	if v {
		w = 1
	}
	return r.Set(name, w)
}

// GetFloat reads a register holding an IEEE-754 single.
func GetFloat(r Interface, name Name, refresh bool) (float32, error) {
	v, err := r.Get(name, refresh)
	return math.Float32frombits(v), err
}

func SetFloat(r Interface, name Name, v float32) error {
	return r.Set(name, math.Float32bits(v))
}
