package session

import "sync"

// frameBuffer is how many frames a subscriber may fall behind before frames
// are dropped for it. A full spin at 60fps is roughly 600 frames.
const frameBuffer = 1024

// hub fans the frames of one session out to every open Drive call. At most
// one subscriber, the driver, ticks the session; the others only watch.
type hub struct {
	mu     sync.Mutex
	next   uint64
	subs   map[uint64]chan Frame
	driver uint64 // 0 when nobody drives
}

type subscription struct {
	id     uint64
	frames chan Frame
}

func (h *hub) subscribe() *subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[uint64]chan Frame)
	}
	h.next++
	sub := &subscription{id: h.next, frames: make(chan Frame, frameBuffer)}
	h.subs[sub.id] = sub.frames
	if h.driver == 0 {
		h.driver = sub.id
	}
	return sub
}

func (h *hub) unsubscribe(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, sub.id)
	if h.driver == sub.id {
		h.driver = 0
	}
}

// claim makes sub the driver if nobody else is. It reports whether sub
// drives the session.
func (h *hub) claim(sub *subscription) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.driver == 0 {
		h.driver = sub.id
	}
	return h.driver == sub.id
}

func (h *hub) driven() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver != 0
}

func (h *hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// publish hands f to every subscriber without blocking.
func (h *hub) publish(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- f:
		default:
		}
	}
}
