package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"tofcam-go/bus"
	"tofcam-go/services/config"
	"tofcam-go/types"
)

type fakeToken struct {
	err     error
	timeout bool
}

var _ mqtt.Token = fakeToken{}

func (t fakeToken) Wait() bool                     { return !t.timeout }
func (t fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t fakeToken) Error() error                   { return t.err }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	tok  fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, qos, retained, payload.([]byte)})
	return p.tok
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func run(t *testing.T, pub Publisher) (*Bridge, *bus.Connection) {
	t.Helper()
	b := bus.NewBus(8)
	br := New(pub, config.MQTT{TopicPrefix: "lab", QoS: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	// A retained probe is delivered once the bridge subscribes.
	probe := b.NewConnection("probe")
	probe.Publish(probe.NewMessage(bus.T("camera", "probe", "state"), "up", true))
	go br.Run(ctx, b.NewConnection("bridge"))
	waitFor(t, func() bool { n, _ := br.Stats(); return n == 1 })
	return br, b.NewConnection("test")
}

func TestForwardsStateAsJSON(t *testing.T) {
	pub := &fakePublisher{}
	br, conn := run(t, pub)
	before := pub.count()

	st := types.CameraState{ID: "cam0", FrameSize: types.FrameSize{Width: 320, Height: 240}}
	conn.Publish(conn.NewMessage(bus.T("camera", "cam0", "state"), st, true))
	conn.Publish(conn.NewMessage(bus.T("camera", "cam0", "ctrl", "reset"), nil, false))
	waitFor(t, func() bool { return pub.count() == before+1 })

	pub.mu.Lock()
	m := pub.msgs[before]
	pub.mu.Unlock()
	if m.topic != "lab/camera/cam0/state" || m.qos != 1 || !m.retained {
		t.Fatalf("published %+v", m)
	}
	var got types.CameraState
	if err := json.Unmarshal(m.payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.FrameSize != st.FrameSize {
		t.Fatalf("payload = %+v", got)
	}
	if br.RemoteTopic(bus.T("a", "b")) != "lab/a/b" {
		t.Fatalf("remote topic = %q", br.RemoteTopic(bus.T("a", "b")))
	}
}

func TestPublishErrorsCounted(t *testing.T) {
	pub := &fakePublisher{}
	br, conn := run(t, pub)
	pub.mu.Lock()
	pub.tok = fakeToken{err: errors.New("not connected")}
	pub.mu.Unlock()

	conn.Publish(conn.NewMessage(bus.T("camera", "cam0", "state", "param", "intg_time"), 1, false))
	waitFor(t, func() bool { _, f := br.Stats(); return f == 1 })

	pub.mu.Lock()
	pub.tok = fakeToken{timeout: true}
	pub.mu.Unlock()
	conn.Publish(conn.NewMessage(bus.T("camera", "cam0", "state"), 2, false))
	waitFor(t, func() bool { _, f := br.Stats(); return f == 2 })
}

func TestUnencodablePayload(t *testing.T) {
	pub := &fakePublisher{}
	br, conn := run(t, pub)
	before := pub.count()
	conn.Publish(conn.NewMessage(bus.T("camera", "cam0", "state"), make(chan int), false))
	waitFor(t, func() bool { _, f := br.Stats(); return f == 1 })
	if pub.count() != before {
		t.Fatalf("unencodable payload published")
	}
}
