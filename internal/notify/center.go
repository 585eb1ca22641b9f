package notify

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// CronCenter is an in-process notification center. Daily triggers run on a
// gocron scheduler; immediate notifications are routed through the handler
// and, unless suppressed, delivered via the sink.
type CronCenter struct {
	cron *gocron.Scheduler
	sink Sink
	now  func() time.Time

	mu        sync.Mutex
	handler   Handler
	pending   map[string]Notification
	delivered []Delivery
}

// deliveredHistory bounds the receipt log kept for the status endpoint.
const deliveredHistory = 20

func NewCronCenter(sink Sink) *CronCenter {
	return &CronCenter{
		cron:    gocron.NewScheduler(time.Local),
		sink:    sink,
		now:     time.Now,
		pending: make(map[string]Notification),
	}
}

// SetHandler registers the fire-event handler. Must be called before Start.
func (c *CronCenter) SetHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Start begins executing daily triggers.
func (c *CronCenter) Start() {
	c.cron.StartAsync()
}

// Stop halts the underlying scheduler.
func (c *CronCenter) Stop() {
	c.cron.Stop()
}

// Schedule registers a notification. A nil trigger delivers immediately;
// a daily trigger replaces any pending entry with the same identifier.
func (c *CronCenter) Schedule(n Notification) error {
	if n.Trigger == nil {
		return c.deliverNow(n)
	}

	// Replace any existing job with this identity.
	_ = c.cron.RemoveByTag(n.Identifier)

	at := fmt.Sprintf("%02d:%02d", n.Trigger.Hour, n.Trigger.Minute)
	_, err := c.cron.Every(1).Day().At(at).Tag(n.Identifier).Do(func() {
		c.fire(n)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.pending[n.Identifier] = n
	c.mu.Unlock()
	return nil
}

// CancelScheduled removes a pending notification. Cancelling an unknown
// identifier is a no-op.
func (c *CronCenter) CancelScheduled(identifier string) error {
	c.mu.Lock()
	delete(c.pending, identifier)
	c.mu.Unlock()

	_ = c.cron.RemoveByTag(identifier)
	return nil
}

// CancelAll removes every pending notification.
func (c *CronCenter) CancelAll() error {
	c.mu.Lock()
	c.pending = make(map[string]Notification)
	c.mu.Unlock()

	c.cron.Clear()
	return nil
}

// Scheduled returns the pending notifications, ordered by identifier.
func (c *CronCenter) Scheduled() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := make([]Notification, 0, len(c.pending))
	for _, n := range c.pending {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Identifier < list[j].Identifier })
	return list
}

// Delivered returns the receipts of recently delivered notifications,
// oldest first.
func (c *CronCenter) Delivered() []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Delivery(nil), c.delivered...)
}

// PermissionGranted reports whether a delivery channel is configured.
func (c *CronCenter) PermissionGranted() bool {
	return c.sink.Available()
}

func (c *CronCenter) fire(n Notification) {
	ev := FireEvent{
		Identifier: n.Identifier,
		FiredAt:    c.now(),
		Payload:    n.Content.Payload,
	}

	d := c.route(ev)
	if d.Suppressed() {
		return
	}
	if err := c.deliver(n, d); err != nil {
		log.Printf("notify: delivering %s: %v", n.Identifier, err)
	}
}

func (c *CronCenter) deliverNow(n Notification) error {
	ev := FireEvent{
		Identifier: n.Identifier,
		FiredAt:    c.now(),
		Payload:    n.Content.Payload,
	}

	d := c.route(ev)
	if d.Suppressed() {
		return nil
	}
	if err := c.deliver(n, d); err != nil {
		return fmt.Errorf("delivering %s: %w", n.Identifier, err)
	}
	return nil
}

// deliver hands the notification to the sink and records a receipt for it.
func (c *CronCenter) deliver(n Notification, d Directive) error {
	if err := c.sink.Deliver(n, d); err != nil {
		return err
	}

	rec := Delivery{Receipt: uuid.NewString(), Identifier: n.Identifier, At: c.now()}
	c.mu.Lock()
	c.delivered = append(c.delivered, rec)
	if len(c.delivered) > deliveredHistory {
		c.delivered = c.delivered[len(c.delivered)-deliveredHistory:]
	}
	c.mu.Unlock()

	log.Printf("notify: delivered %s (receipt %s)", n.Identifier, rec.Receipt)
	return nil
}

func (c *CronCenter) route(ev FireEvent) Directive {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()

	if h == nil {
		return DirectiveShow
	}
	return h(ev)
}
