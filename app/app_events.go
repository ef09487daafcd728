package app

import "fmt"

// Event names emitted by the app
const (
	EventSampleChanged    = "sample:changed"
	EventHistogramReady   = "histogram:ready"
	EventHistogramError   = "histogram:error"
	EventSelectionChanged = "selection:changed"
	EventExportProgress   = "export:progress"
	EventTestResult       = "test:result"
)

// Event is delivered to every registered handler. Version is the sample
// version the event refers to.
type Event struct {
	Name    string
	Version int64
	Data    any
}

// EventHandler receives app events synchronously. Handlers must not call
// methods that change the sample, bucket count or selection.
type EventHandler func(Event)

// OnEvent registers h and returns a function that removes it
func (a *App) OnEvent(h EventHandler) func() {
	a.eventsMu.Lock()
	id := a.nextHandle
	a.nextHandle++
	a.handlers[id] = h
	a.eventsMu.Unlock()

	return func() {
		a.eventsMu.Lock()
		delete(a.handlers, id)
		a.eventsMu.Unlock()
	}
}

// emit delivers event to handlers in registration order
func (a *App) emit(event Event) {
	a.eventsMu.RLock()
	handlers := make([]EventHandler, 0, len(a.handlers))
	for id := 0; id < a.nextHandle; id++ {
		if h, ok := a.handlers[id]; ok {
			handlers = append(handlers, h)
		}
	}
	a.eventsMu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	if event.Name == EventHistogramError {
		a.Log("error", fmt.Sprintf("[EVENT] Emitted %s for version %d: %v", event.Name, event.Version, event.Data))
		return
	}
	a.Log("debug", fmt.Sprintf("[EVENT] Emitted %s for version %d", event.Name, event.Version))
}
