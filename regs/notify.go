package regs

import "tofcam-go/bus"

// TopicPrefix is the first token of register-write notifications.
const TopicPrefix = "regs"

// Notifier publishes {"regs", name} with the written value after every
// successful Set on the wrapped programmer.
type Notifier struct {
	Inner Interface
	Conn  *bus.Connection
}

func (n *Notifier) Get(name Name, refresh bool) (uint32, error) {
	return n.Inner.Get(name, refresh)
}

func (n *Notifier) Set(name Name, value uint32) error {
	if err := n.Inner.Set(name, value); err != nil {
		return err
	}
	n.Conn.Publish(n.Conn.NewMessage(bus.T(TopicPrefix, string(name)), value, false))
	return nil
}

// WriteRegister forwards to the inner programmer when it supports raw writes.
func (n *Notifier) WriteRegister(addr, value uint32) error {
	rw, ok := n.Inner.(RawWriter)
	if !ok {
		return ErrUnknownRegister
	}
	return rw.WriteRegister(addr, value)
}
