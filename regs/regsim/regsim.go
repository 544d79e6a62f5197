// Package regsim is an in-memory register device for host builds and tests.
// It counts every access, supports injected per-register failures and lets
// write hooks emulate device-side validation through status flag registers.
package regsim

import (
	"errors"
	"sync"

	"tofcam-go/regs"
)

// ErrInjected is the default injected failure.
var ErrInjected = errors.New("regsim: injected failure")

// WriteHook runs after a successful Set of the register it is attached to.
// It may Poke other registers (e.g. a set-failed flag).
type WriteHook func(d *Device, value uint32)

type RawWrite struct{ Addr, Value uint32 }

type Device struct {
	mu       sync.Mutex
	vals     map[regs.Name]uint32
	readOnly map[regs.Name]bool
	failGet  map[regs.Name]error
	failSet  map[regs.Name]error
	hooks    map[regs.Name][]WriteHook
	reads    map[regs.Name]int
	writes   map[regs.Name]int
	total    int
	raw      []RawWrite
	failRaw  map[uint32]error
}

var (
	_ regs.Interface = (*Device)(nil)
	_ regs.RawWriter = (*Device)(nil)
)

// New returns a device preloaded with seed values.
func New(seed map[regs.Name]uint32) *Device {
	d := &Device{
		vals:     make(map[regs.Name]uint32, len(seed)),
		readOnly: map[regs.Name]bool{},
		failGet:  map[regs.Name]error{},
		failSet:  map[regs.Name]error{},
		hooks:    map[regs.Name][]WriteHook{},
		reads:    map[regs.Name]int{},
		writes:   map[regs.Name]int{},
		failRaw:  map[uint32]error{},
	}
	for k, v := range seed {
		d.vals[k] = v
	}
	return d
}

func (d *Device) Get(name regs.Name, _ bool) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads[name]++
	if err := d.failGet[name]; err != nil {
		return 0, err
	}
	v, ok := d.vals[name]
	if !ok {
		return 0, regs.ErrUnknownRegister
	}
	return v, nil
}

func (d *Device) Set(name regs.Name, value uint32) error {
	d.mu.Lock()
	d.writes[name]++
	d.total++
	if err := d.failSet[name]; err != nil {
		d.mu.Unlock()
		return err
	}
	if d.readOnly[name] {
		d.mu.Unlock()
		return regs.ErrReadOnly
	}
	d.vals[name] = value
	hooks := d.hooks[name]
	d.mu.Unlock()

	for _, h := range hooks {
		h(d, value)
	}
	return nil
}

func (d *Device) WriteRegister(addr, value uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.total++
	if err := d.failRaw[addr]; err != nil {
		return err
	}
	d.raw = append(d.raw, RawWrite{Addr: addr, Value: value})
	return nil
}

// ---- Test/simulator controls ----

// Poke sets a value without counting it or running hooks.
func (d *Device) Poke(name regs.Name, v uint32) {
	d.mu.Lock()
	d.vals[name] = v
	d.mu.Unlock()
}

// Peek returns a value without counting the read.
func (d *Device) Peek(name regs.Name) (uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.vals[name]
	return v, ok
}

func (d *Device) MarkReadOnly(names ...regs.Name) {
	d.mu.Lock()
	for _, n := range names {
		d.readOnly[n] = true
	}
	d.mu.Unlock()
}

// FailGet makes reads of name fail; a nil err uses ErrInjected.
func (d *Device) FailGet(name regs.Name, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	d.failGet[name] = err
	d.mu.Unlock()
}

// FailSet makes writes of name fail; a nil err uses ErrInjected.
func (d *Device) FailSet(name regs.Name, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	d.failSet[name] = err
	d.mu.Unlock()
}

func (d *Device) FailRaw(addr uint32, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	d.failRaw[addr] = err
	d.mu.Unlock()
}

// ClearFaults removes every injected failure.
func (d *Device) ClearFaults() {
	d.mu.Lock()
	d.failGet = map[regs.Name]error{}
	d.failSet = map[regs.Name]error{}
	d.failRaw = map[uint32]error{}
	d.mu.Unlock()
}

func (d *Device) OnWrite(name regs.Name, h WriteHook) {
	d.mu.Lock()
	d.hooks[name] = append(d.hooks[name], h)
	d.mu.Unlock()
}

// RejectOutside raises flag whenever a write to name falls outside [lo, hi]
// and clears it otherwise.
func (d *Device) RejectOutside(name, flag regs.Name, lo, hi uint32) {
	d.Poke(flag, 0)
	d.OnWrite(name, func(d *Device, v uint32) {
		if v < lo || v > hi {
			d.Poke(flag, 1)
			return
		}
		d.Poke(flag, 0)
	})
}

func (d *Device) Reads(name regs.Name) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads[name]
}

func (d *Device) Writes(name regs.Name) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes[name]
}

// TotalWrites counts every Set and WriteRegister attempt, failed ones included.
func (d *Device) TotalWrites() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

func (d *Device) RawWrites() []RawWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RawWrite(nil), d.raw...)
}
