// Package midi bridges a hardware MIDI control surface to the engine's
// control channel, and imports Standard MIDI File drum patterns. It is
// entirely control-thread code — nothing here ever runs on the audio
// thread, and nothing here is real-time safe (device polling, byte
// ring buffering, lookup-table indirection all happen off the hot path).
package midi

import (
	"sync"
	"time"

	"github.com/rakyll/portmidi"
	"github.com/smallnest/ringbuffer"

	"github.com/shaban/jfxrig/control"
	"github.com/shaban/jfxrig/rlog"
)

// Mapping binds one incoming Control Change (channel, controller number)
// to a named parameter on a named node, with the CC's 0-127 range scaled
// into the parameter's own [min,max]. A Mapping with ToggleBypass set
// instead dispatches OpSetBypass on every CC value, bypassing the node
// for values >= 64 and un-bypassing it for lower values.
type Mapping struct {
	Channel    uint8
	Controller uint8
	NodeID     string
	ParamID    string
	Min, Max   float32

	ToggleBypass bool // if set, NodeID names the node to bypass and ParamID is ignored
}

func (m Mapping) key() uint16 {
	return uint16(m.Channel)<<8 | uint16(m.Controller)
}

func (m Mapping) scale(ccValue uint8) float32 {
	t := float32(ccValue) / 127
	return m.Min + t*(m.Max-m.Min)
}

// Controller owns one portmidi input stream and translates its Control
// Change traffic into control.Op values pushed onto the engine's queue.
// Raw bytes are staged through a byte ring buffer between the portmidi
// polling goroutine and the decode goroutine, the same separation the
// teacher's DeviceMonitor keeps between its own polling loop and the
// engine it reports into.
type Controller struct {
	stream *portmidi.Stream
	queue  *control.Queue
	ring   *ringbuffer.RingBuffer

	mu       sync.RWMutex
	mappings map[uint16]Mapping

	stopCh chan struct{}
}

// NewController opens the given portmidi device for input. Call
// portmidi.Initialize once at process startup before constructing any
// Controller; calling portmidi.Terminate is the caller's responsibility
// once every Controller has been stopped.
func NewController(deviceID portmidi.DeviceID, queue *control.Queue) (*Controller, error) {
	stream, err := portmidi.NewInputStream(deviceID, 1024)
	if err != nil {
		return nil, err
	}
	return &Controller{
		stream:   stream,
		queue:    queue,
		ring:     ringbuffer.New(4096),
		mappings: make(map[uint16]Mapping),
		stopCh:   make(chan struct{}),
	}, nil
}

// Map installs a CC-to-parameter binding. Safe to call while the
// controller is running; the decode goroutine reads the map under a
// read lock each time it needs to resolve a CC.
func (c *Controller) Map(m Mapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mappings[m.key()] = m
}

// Start launches the polling and decode goroutines. Returns immediately.
func (c *Controller) Start() {
	go c.pollLoop()
	go c.decodeLoop()
}

// Stop halts both goroutines and closes the underlying stream.
func (c *Controller) Stop() {
	close(c.stopCh)
	c.stream.Close()
}

// pollLoop drains the portmidi event channel and packs each event's
// three status bytes into the shared byte ring, exactly as fast as the
// device produces them — it never blocks on the decode side.
func (c *Controller) pollLoop() {
	events := c.stream.Listen()
	buf := make([]byte, 3)
	for {
		select {
		case <-c.stopCh:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			buf[0] = byte(ev.Status)
			buf[1] = byte(ev.Data1)
			buf[2] = byte(ev.Data2)
			if _, err := c.ring.Write(buf); err != nil {
				rlog.For("midi").Warn().Err(err).Msg("dropped MIDI event, ring buffer full")
			}
		}
	}
}

// decodeLoop drains three bytes at a time off the ring and turns
// recognized Control Change messages into control.Op values.
func (c *Controller) decodeLoop() {
	buf := make([]byte, 3)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			for c.ring.Length() >= 3 {
				n, err := c.ring.Read(buf)
				if err != nil || n < 3 {
					break
				}
				c.dispatch(buf[0], buf[1], buf[2])
			}
		}
	}
}

const statusControlChange = 0xB0

func (c *Controller) dispatch(status, data1, data2 byte) {
	if status&0xF0 != statusControlChange {
		return
	}
	channel := status & 0x0F
	controller := data1

	c.mu.RLock()
	m, ok := c.mappings[uint16(channel)<<8|uint16(controller)]
	c.mu.RUnlock()
	if !ok {
		return
	}

	if m.ToggleBypass {
		c.queue.Enqueue(control.Op{Kind: control.OpSetBypass, NodeID: m.NodeID, Bypassed: data2 >= 64})
		return
	}
	c.queue.Enqueue(control.Op{Kind: control.OpSetParameter, NodeID: m.NodeID, ParamID: m.ParamID, Value: m.scale(data2)})
}
