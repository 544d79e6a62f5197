// Package param implements the parameter contract shared by every camera
// setting: static metadata, validation, and get/set against the register
// interface. The variant set is closed: Bool, Uint, Enum and Float.
package param

import (
	"tofcam-go/errcode"
	"tofcam-go/regs"
	"tofcam-go/x/mathx"
)

type IOMode uint8

const (
	ReadWrite IOMode = iota
	ReadOnly
	WriteOnly
)

func (m IOMode) String() string {
	switch m {
	case ReadOnly:
		return "ro"
	case WriteOnly:
		return "wo"
	default:
		return "rw"
	}
}

func (m IOMode) Readable() bool { return m != WriteOnly }
func (m IOMode) Writable() bool { return m != ReadOnly }

// Kind discriminates the parameter variants.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindUint
	KindEnum
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindUint:
		return "uint"
	case KindEnum:
		return "enum"
	case KindFloat:
		return "float"
	}
	return "unknown"
}

// Meta is the static description consumed by registries and UIs.
type Meta struct {
	Name        string
	Unit        string
	DisplayName string
	Description string
	IO          IOMode
	// Deps lists raw registers whose external change invalidates cached values.
	Deps []regs.Name
}

// DependsOn reports whether reg is in the dependency set.
func (m Meta) DependsOn(reg regs.Name) bool {
	for _, d := range m.Deps {
		if d == reg {
			return true
		}
	}
	return false
}

// Parameter is implemented by *Bool, *Uint, *Enum and *Float.
type Parameter interface {
	Meta() Meta
	Kind() Kind
}

func readErr(m Meta, msg string, err error) error {
	return errcode.New(errcode.HardwareReadFailure, "get "+m.Name, msg, err)
}

func writeErr(m Meta, msg string, err error) error {
	return errcode.New(errcode.HardwareWriteRejected, "set "+m.Name, msg, err)
}

func checkWritable(m Meta) error {
	if !m.IO.Writable() {
		return errcode.New(errcode.Unsupported, "set "+m.Name, "read-only parameter", nil)
	}
	return nil
}

func checkReadable(m Meta) error {
	if !m.IO.Readable() {
		return errcode.New(errcode.Unsupported, "get "+m.Name, "write-only parameter", nil)
	}
	return nil
}

func withDefaultDeps(m Meta, reg regs.Name) Meta {
	if len(m.Deps) == 0 {
		m.Deps = []regs.Name{reg}
	}
	return m
}

// ---------------- Bool ----------------

// Bool is a flag stored in one register.
type Bool struct {
	meta Meta
	r    regs.Interface
	reg  regs.Name
}

func NewBool(r regs.Interface, reg regs.Name, meta Meta) *Bool {
	return &Bool{meta: withDefaultDeps(meta, reg), r: r, reg: reg}
}

func (p *Bool) Meta() Meta          { return p.meta }
func (p *Bool) Kind() Kind          { return KindBool }
func (p *Bool) Validate(bool) bool  { return true }
func (p *Bool) Register() regs.Name { return p.reg }

func (p *Bool) Get(refresh bool) (bool, error) {
	if err := checkReadable(p.meta); err != nil {
		return false, err
	}
	v, err := regs.GetBool(p.r, p.reg, refresh)
	if err != nil {
		return false, readErr(p.meta, "read "+string(p.reg), err)
	}
	return v, nil
}

func (p *Bool) Set(v bool) error {
	if err := checkWritable(p.meta); err != nil {
		return err
	}
	if err := regs.SetBool(p.r, p.reg, v); err != nil {
		return writeErr(p.meta, "write "+string(p.reg), err)
	}
	return nil
}

// ---------------- Uint ----------------

// Uint is an unsigned register value constrained to [Min, Max].
type Uint struct {
	meta     Meta
	r        regs.Interface
	reg      regs.Name
	min, max uint32
}

func NewUint(r regs.Interface, reg regs.Name, lo, hi uint32, meta Meta) *Uint {
	return &Uint{meta: withDefaultDeps(meta, reg), r: r, reg: reg, min: lo, max: hi}
}

func (p *Uint) Meta() Meta             { return p.meta }
func (p *Uint) Kind() Kind             { return KindUint }
func (p *Uint) Range() (lo, hi uint32) { return p.min, p.max }
func (p *Uint) Validate(v uint32) bool { return mathx.Between(v, p.min, p.max) }

func (p *Uint) Get(refresh bool) (uint32, error) {
	if err := checkReadable(p.meta); err != nil {
		return 0, err
	}
	v, err := p.r.Get(p.reg, refresh)
	if err != nil {
		return 0, readErr(p.meta, "read "+string(p.reg), err)
	}
	return v, nil
}

func (p *Uint) Set(v uint32) error {
	if err := checkWritable(p.meta); err != nil {
		return err
	}
	if !p.Validate(v) {
		return errcode.New(errcode.ValidationFailure, "set "+p.meta.Name, "value out of range", nil)
	}
	if err := p.r.Set(p.reg, v); err != nil {
		return writeErr(p.meta, "write "+string(p.reg), err)
	}
	return nil
}

// ---------------- Enum ----------------

// Enum is a register restricted to a fixed set of values, each with a label.
type Enum struct {
	meta   Meta
	r      regs.Interface
	reg    regs.Name
	values []uint32
	labels []string
}

// NewEnum pairs values[i] with labels[i]; missing labels are left empty.
func NewEnum(r regs.Interface, reg regs.Name, values []uint32, labels []string, meta Meta) *Enum {
	l := make([]string, len(values))
	copy(l, labels)
	return &Enum{meta: withDefaultDeps(meta, reg), r: r, reg: reg, values: values, labels: l}
}

func (p *Enum) Meta() Meta       { return p.meta }
func (p *Enum) Kind() Kind       { return KindEnum }
func (p *Enum) Values() []uint32 { return p.values }

func (p *Enum) Validate(v uint32) bool {
	for _, x := range p.values {
		if x == v {
			return true
		}
	}
	return false
}

// Lookup resolves a label to its value.
func (p *Enum) Lookup(label string) (uint32, bool) {
	for i, l := range p.labels {
		if l != "" && l == label {
			return p.values[i], true
		}
	}
	return 0, false
}

// Label returns the label for v, or "" when unlabelled.
func (p *Enum) Label(v uint32) string {
	for i, x := range p.values {
		if x == v {
			return p.labels[i]
		}
	}
	return ""
}

func (p *Enum) Get(refresh bool) (uint32, error) {
	if err := checkReadable(p.meta); err != nil {
		return 0, err
	}
	v, err := p.r.Get(p.reg, refresh)
	if err != nil {
		return 0, readErr(p.meta, "read "+string(p.reg), err)
	}
	return v, nil
}

func (p *Enum) Set(v uint32) error {
	if err := checkWritable(p.meta); err != nil {
		return err
	}
	if !p.Validate(v) {
		return errcode.New(errcode.ValidationFailure, "set "+p.meta.Name, "value not in enum", nil)
	}
	if err := p.r.Set(p.reg, v); err != nil {
		return writeErr(p.meta, "write "+string(p.reg), err)
	}
	return nil
}

// ---------------- Float ----------------

// FloatBackend converts between a semantic value and the raw register(s)
// behind a derived parameter. Errors should already carry an errcode.
type FloatBackend interface {
	Load(refresh bool) (float64, error)
	Store(v float64) error
}

// Float is a ranged value computed by a backend.
type Float struct {
	meta     Meta
	min, max float64
	b        FloatBackend
}

func NewFloat(b FloatBackend, lo, hi float64, meta Meta) *Float {
	return &Float{meta: meta, min: lo, max: hi, b: b}
}

func (p *Float) Meta() Meta              { return p.meta }
func (p *Float) Kind() Kind              { return KindFloat }
func (p *Float) Range() (lo, hi float64) { return p.min, p.max }
func (p *Float) Validate(v float64) bool { return mathx.Between(v, p.min, p.max) }

func (p *Float) Get(refresh bool) (float64, error) {
	if err := checkReadable(p.meta); err != nil {
		return 0, err
	}
	return p.b.Load(refresh)
}

// Set rejects out-of-range values before the backend sees them.
func (p *Float) Set(v float64) error {
	if err := checkWritable(p.meta); err != nil {
		return err
	}
	if !p.Validate(v) {
		return errcode.New(errcode.ValidationFailure, "set "+p.meta.Name, "value out of range", nil)
	}
	return p.b.Store(v)
}
