package player

import (
	"sync"

	"github.com/samber/lo"
)

// hub fans sink events out to subscribers. Delivery happens outside the lock so a
// subscriber may call back into the sink.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func (h *hub) subscribe(fn func(Event)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func(Event))
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
		})
	}
}

func (h *hub) emit(e Event) {
	h.mu.Lock()
	ids := lo.Keys(h.subs)
	fns := lo.Map(ids, func(id int, _ int) func(Event) { return h.subs[id] })
	h.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (h *hub) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = nil
}
