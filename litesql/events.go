package litesql

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventKind identifies what happened to a connection.
type EventKind int

const (
	EventConnect EventKind = iota
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Connectable is the subset of Database an event listener is allowed to
// observe — enough to log or annotate, not to start new operations on a
// connection mid-event.
type Connectable interface {
	Path() string
	Open() bool
}

// Event is delivered to OnConnect/OnClose subscribers.
type Event struct {
	Kind EventKind
	Conn Connectable
}

// Listener observes Database lifecycle events.
type Listener func(Event)

// eventBus delivers connect/close events synchronously, in subscription
// order, to every registered listener. A listener that panics or whose
// registration otherwise misbehaves is caught and logged rather than
// allowed to abort the connect/close operation that triggered it.
type eventBus struct {
	mu        sync.Mutex
	listeners map[EventKind][]*subscription
	nextID    int
}

type subscription struct {
	id       int
	kind     EventKind
	listener Listener
}

func newEventBus() *eventBus {
	return &eventBus{listeners: make(map[EventKind][]*subscription)}
}

// subscribe registers fn for events of the given kind and returns an
// unsubscribe function.
func (b *eventBus) subscribe(kind EventKind, fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, kind: kind, listener: fn}
	b.listeners[kind] = append(b.listeners[kind], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.listeners[kind]
		for i, s := range subs {
			if s.id == sub.id {
				b.listeners[kind] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// publish delivers ev to every listener subscribed to its kind, in
// subscription order. A listener panic is recovered and logged
// best-effort; it never propagates to the caller that triggered the
// connect or close.
func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	subs := append([]*subscription(nil), b.listeners[ev.Kind]...)
	b.mu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"event": ev.Kind.String(),
						"path":  ev.Conn.Path(),
					}).Errorf("litesql: event listener panicked: %v", r)
				}
			}()
			sub.listener(ev)
		}()
	}
}

// OnConnect registers fn to run when this Database finishes opening. Open
// publishes the connect event itself, so a listener registered after Open
// returns will only see future events on the same Database (there are
// none, since Open runs exactly once); OnConnect exists mainly for
// symmetry with OnClose and for callers that construct a Database through
// a wrapper that defers the connect event.
func (db *Database) OnConnect(fn Listener) (unsubscribe func()) {
	return db.events.subscribe(EventConnect, fn)
}

// OnClose registers fn to run when this Database is closed.
func (db *Database) OnClose(fn Listener) (unsubscribe func()) {
	return db.events.subscribe(EventClose, fn)
}
