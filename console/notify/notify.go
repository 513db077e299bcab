package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindLoading Kind = "loading"
	KindInfo    Kind = "info"
)

// Duration is how long a toast of this kind stays up. Loading toasts stay
// until they are replaced or dismissed.
func (k Kind) Duration() time.Duration {
	switch k {
	case KindSuccess:
		return 3 * time.Second
	case KindError:
		return 4 * time.Second
	case KindLoading:
		return 0
	}
	return 5 * time.Second
}

func (k Kind) Symbol() string {
	switch k {
	case KindSuccess:
		return "✓"
	case KindError:
		return "✗"
	case KindLoading:
		return "…"
	}
	return "i"
}

type Toast struct {
	ID        string
	Kind      Kind
	Message   string
	CreatedAt time.Time
	// ExpiresAt is zero for toasts that never expire on their own
	ExpiresAt time.Time
}

func (t Toast) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Sink receives every toast as it is shown or replaced
type Sink interface {
	Publish(t Toast) error
}

type Notifier struct {
	mu       sync.Mutex
	active   map[string]Toast
	timers   map[string]*time.Timer
	sinks    []Sink
	onChange func()
	now      func() time.Time
	log      *logrus.Entry
}

func New(logger *logrus.Logger, sinks ...Sink) *Notifier {
	return &Notifier{
		active: make(map[string]Toast),
		timers: make(map[string]*time.Timer),
		sinks:  sinks,
		now:    time.Now,
		log:    logger.WithField("component", "notify"),
	}
}

// OnChange registers fn to run after a toast appears, changes or expires
func (n *Notifier) OnChange(fn func()) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

func (n *Notifier) Success(msg string) string { return n.show("", KindSuccess, msg) }
func (n *Notifier) Error(msg string) string   { return n.show("", KindError, msg) }
func (n *Notifier) Info(msg string) string    { return n.show("", KindInfo, msg) }
func (n *Notifier) Loading(msg string) string { return n.show("", KindLoading, msg) }

// Replace swaps the toast with the given id for a new kind and message,
// keeping its position. An unknown id shows a new toast under that id.
func (n *Notifier) Replace(id string, kind Kind, msg string) string {
	return n.show(id, kind, msg)
}

// Promise shows a loading toast while fn runs and turns it into the success
// text or the error message of fn. The error of fn is returned unchanged.
func (n *Notifier) Promise(loading, success string, fn func() error) error {
	id := n.Loading(loading)
	if err := fn(); err != nil {
		n.Replace(id, KindError, err.Error())
		return err
	}
	n.Replace(id, KindSuccess, success)
	return nil
}

func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	_, ok := n.active[id]
	n.drop(id)
	fn := n.onChange
	n.mu.Unlock()

	if ok && fn != nil {
		fn()
	}
}

// Active lists the toasts that have not expired, oldest first
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	ret := make([]Toast, 0, len(n.active))
	for id, t := range n.active {
		if t.Expired(now) {
			n.drop(id)
			continue
		}
		ret = append(ret, t)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].CreatedAt.Before(ret[j].CreatedAt)
	})
	return ret
}

func (n *Notifier) show(id string, kind Kind, msg string) string {
	n.mu.Lock()
	now := n.now()
	created := now
	if id == "" {
		id = uuid.NewString()
	} else if prev, ok := n.active[id]; ok {
		created = prev.CreatedAt
	}

	t := Toast{ID: id, Kind: kind, Message: msg, CreatedAt: created}
	if d := kind.Duration(); d > 0 {
		t.ExpiresAt = now.Add(d)
	}

	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}
	n.active[id] = t
	if d := kind.Duration(); d > 0 {
		n.timers[id] = time.AfterFunc(d, func() { n.expire(id, t.ExpiresAt) })
	}
	sinks := n.sinks
	fn := n.onChange
	n.mu.Unlock()

	for _, s := range sinks {
		if err := s.Publish(t); err != nil {
			n.log.Debugln("sink:", err)
		}
	}
	if fn != nil {
		fn()
	}
	return id
}

// expire only removes the toast if it was not replaced since the timer was armed
func (n *Notifier) expire(id string, at time.Time) {
	n.mu.Lock()
	t, ok := n.active[id]
	if !ok || !t.ExpiresAt.Equal(at) {
		n.mu.Unlock()
		return
	}
	n.drop(id)
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// drop must be called with n.mu held
func (n *Notifier) drop(id string) {
	delete(n.active, id)
	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}
}
