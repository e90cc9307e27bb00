package receiver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// SubmissionEvent is broadcast to dashboards when a file is saved.
type SubmissionEvent struct {
	Time    string `json:"time"`
	Student string `json:"student"`
	Title   string `json:"title"`
	Path    string `json:"path"`
}

// Broker fans server-sent events out to connected dashboards.
//
// A single loop goroutine owns the client set; public methods talk to it
// over channels.
type Broker struct {
	keepalive time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan []byte
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that sends a keepalive comment to idle
// clients every keepalive.
func NewBroker(keepalive time.Duration) *Broker {
	if keepalive <= 0 {
		keepalive = 20 * time.Second
	}
	b := &Broker{
		keepalive:     keepalive,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan []byte, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func frame(event, data string) []byte {
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data))
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	send := func(ch chan []byte, msg []byte) {
		select {
		case ch <- msg:
		default:
			// slow client; drop rather than stall the loop
		}
	}
	broadcast := func(msg []byte) {
		for ch := range clients {
			send(ch, msg)
		}
	}
	count := func() []byte { return frame("count", strconv.Itoa(len(clients))) }

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
			send(ch, count())
			broadcast(count())

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
				broadcast(count())
			}

		case msg := <-b.publishCh:
			broadcast(msg)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and disconnects every client.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client and returns its message channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// PublishSubmission broadcasts a submission event.
func (b *Broker) PublishSubmission(ev SubmissionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	b.publish(frame("submission", string(payload)))
}

func (b *Broker) publish(msg []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- msg:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	idle := time.NewTimer(b.keepalive)
	defer idle.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-idle.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
			idle.Reset(b.keepalive)
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(b.keepalive)
		}
	}
}
