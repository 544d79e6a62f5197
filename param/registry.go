package param

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"sync"

	"tofcam-go/bus"
	"tofcam-go/errcode"
	"tofcam-go/regs"
)

// Registry holds a session's parameters by name, caches their last read
// values and drops cached values whose dependency registers change.
type Registry struct {
	log *slog.Logger

	mu     sync.Mutex
	params map[string]Parameter
	order  []string
	cache  map[string]any
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:    log,
		params: make(map[string]Parameter),
		cache:  make(map[string]any),
	}
}

// Add registers parameters. A name already present keeps its existing entry;
// the duplicate is logged and reported, and the remaining parameters are still added.
func (r *Registry) Add(ps ...Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for _, p := range ps {
		name := p.Meta().Name
		if _, dup := r.params[name]; dup {
			r.log.Error("param: duplicate parameter, keeping existing", "name", name)
			if first == nil {
				first = errcode.New(errcode.InvalidParams, "add_parameter", "duplicate "+name, nil)
			}
			continue
		}
		r.params[name] = p
		r.order = append(r.order, name)
	}
	return first
}

func (r *Registry) Lookup(name string) (Parameter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.params[name]
	return p, ok
}

// Names returns parameter names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) lookup(name string) (Parameter, error) {
	p, ok := r.Lookup(name)
	if !ok {
		return nil, errcode.New(errcode.UnknownParameter, "lookup", name, nil)
	}
	return p, nil
}

// Value returns the parameter value as bool, uint32 or float64. Without
// refresh a cached value is returned when one is still valid.
func (r *Registry) Value(name string, refresh bool) (any, error) {
	p, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if !refresh {
		r.mu.Lock()
		v, ok := r.cache[name]
		r.mu.Unlock()
		if ok {
			return v, nil
		}
	}
	v, err := read(p, refresh)
	if err != nil {
		r.forget(name)
		return nil, err
	}
	r.mu.Lock()
	r.cache[name] = v
	r.mu.Unlock()
	return v, nil
}

func read(p Parameter, refresh bool) (any, error) {
	switch p := p.(type) {
	case *Bool:
		return p.Get(refresh)
	case *Uint:
		return p.Get(refresh)
	case *Enum:
		return p.Get(refresh)
	case *Float:
		return p.Get(refresh)
	}
	return nil, errcode.New(errcode.Unsupported, "get "+p.Meta().Name, "unknown parameter variant", nil)
}

// SetValue converts v to the parameter's kind and writes it. Accepted inputs:
// bool for Bool; any integer or integral float for Uint; that or a label for
// Enum; any number for Float.
func (r *Registry) SetValue(name string, v any) error {
	p, err := r.lookup(name)
	if err != nil {
		return err
	}
	op := "set " + name
	switch p := p.(type) {
	case *Bool:
		b, ok := v.(bool)
		if !ok {
			return errcode.New(errcode.InvalidPayload, op, "want bool", nil)
		}
		err = p.Set(b)
	case *Uint:
		u, ok := ToUint32(v)
		if !ok {
			return errcode.New(errcode.InvalidPayload, op, "want unsigned integer", nil)
		}
		err = p.Set(u)
	case *Enum:
		u, ok := ToUint32(v)
		if !ok {
			s, isStr := v.(string)
			if u, ok = p.Lookup(s); !isStr || !ok {
				return errcode.New(errcode.InvalidPayload, op, "want enum value or label", nil)
			}
		}
		err = p.Set(u)
	case *Float:
		f, ok := ToFloat64(v)
		if !ok {
			return errcode.New(errcode.InvalidPayload, op, "want number", nil)
		}
		err = p.Set(f)
	default:
		return errcode.New(errcode.Unsupported, op, "unknown parameter variant", nil)
	}
	r.forget(name)
	return err
}

// RefreshAll re-reads every readable parameter from hardware. It continues
// past failures and returns the first one.
func (r *Registry) RefreshAll() error {
	var first error
	for _, name := range r.Names() {
		p, _ := r.Lookup(name)
		if !p.Meta().IO.Readable() {
			continue
		}
		if _, err := r.Value(name, true); err != nil {
			r.log.Error("param: refresh failed", "name", name, "err", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Invalidate drops cached values of every parameter depending on reg and
// returns how many were dropped.
func (r *Registry) Invalidate(reg regs.Name) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for name, p := range r.params {
		if _, cached := r.cache[name]; cached && p.Meta().DependsOn(reg) {
			delete(r.cache, name)
			n++
		}
	}
	return n
}

func (r *Registry) forget(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()
}

// Watch consumes register-write notifications until ctx ends.
func (r *Registry) Watch(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T(regs.TopicPrefix, "+"))
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			if n := r.Invalidate(regs.Name(m.Topic[1])); n > 0 {
				r.log.Debug("param: invalidated", "reg", m.Topic[1], "count", n)
			}
		}
	}
}

// ---- Conversions ----

// ToUint32 converts decoded config or JSON values to a register word.
// Strings are parsed with base prefixes ("0x1f").
func ToUint32(v any) (uint32, bool) {
	var u uint64
	switch x := v.(type) {
	case int:
		if x < 0 {
			return 0, false
		}
		u = uint64(x)
	case int64:
		if x < 0 {
			return 0, false
		}
		u = uint64(x)
	case uint:
		u = uint64(x)
	case uint32:
		return x, true
	case uint64:
		u = x
	case float64:
		if x < 0 || x != math.Trunc(x) || x > math.MaxUint32 {
			return 0, false
		}
		u = uint64(x)
	case string:
		p, err := strconv.ParseUint(x, 0, 32)
		if err != nil {
			return 0, false
		}
		return uint32(p), true
	default:
		return 0, false
	}
	if u > math.MaxUint32 {
		return 0, false
	}
	return uint32(u), true
}

func ToFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
