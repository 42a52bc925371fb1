// Package page models the watch page the server drives: the connection's
// client id, the regions swapped in by the server, toasts and the event bus.
package page

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/plst4-cli/plst4/log"
	"github.com/samber/lo"
)

// ToastTTL is how long a toast stays on the page.
const ToastTTL = 5 * time.Second

const toastIDAttr = "data-toast-id"

// Toast is a notification found in swapped markup.
type Toast struct {
	// Kind is "error" or "info".
	Kind        string
	Title       string
	Description string
}

type queued struct {
	fragment string
	due      time.Time
}

type Page struct {
	Events *Bus

	swapDelay   time.Duration
	settleDelay time.Duration

	mu       sync.Mutex
	clientID string
	doc      *goquery.Document
	queue    []queued
	toastSeq int
	onToast  []func(Toast)
	onSwap   []func([]string)
	onID     []func(string)

	wake chan struct{}
}

// New returns an empty page. Swaps are applied swapDelay after they arrive and
// listeners are notified settleDelay after that.
func New(swapDelay, settleDelay time.Duration) *Page {
	return &Page{
		Events:      NewBus(),
		swapDelay:   swapDelay,
		settleDelay: settleDelay,
		doc:         lo.Must(goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))),
		wake:        make(chan struct{}, 1),
	}
}

func (p *Page) SetClientID(id string) {
	p.mu.Lock()
	p.clientID = id
	hooks := p.onID
	p.mu.Unlock()

	log.With("client_id", id).Info("handshake")
	for _, f := range hooks {
		f(id)
	}
}

func (p *Page) ClientID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clientID
}

// Trigger publishes event on the page bus.
func (p *Page) Trigger(event string) {
	if n := p.Events.Publish(event); n == 0 {
		log.With("event", event).Debug("event without listeners")
	}
}

func (p *Page) OnClientID(f func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onID = append(p.onID, f)
}

func (p *Page) OnToast(f func(Toast)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onToast = append(p.onToast, f)
}

// OnSwap registers f to receive the selectors changed by each settled swap.
func (p *Page) OnSwap(f func([]string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSwap = append(p.onSwap, f)
}

// Swap queues fragment. Queued fragments are applied by Run in arrival order.
func (p *Page) Swap(fragment string) {
	p.mu.Lock()
	p.queue = append(p.queue, queued{fragment: fragment, due: time.Now().Add(p.swapDelay)})
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run applies queued swaps until ctx ends.
func (p *Page) Run(ctx context.Context) error {
	for {
		p.mu.Lock()
		var (
			item queued
			ok   bool
		)
		if len(p.queue) > 0 {
			item, ok = p.queue[0], true
		}
		p.mu.Unlock()

		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.wake:
				continue
			}
		}

		if err := sleep(ctx, time.Until(item.due)); err != nil {
			return err
		}

		p.mu.Lock()
		p.queue = p.queue[1:]
		p.mu.Unlock()

		swapped, toasts, err := p.Apply(item.fragment)
		if err != nil {
			log.Warn("swap: " + err.Error())
		}

		if err := sleep(ctx, p.settleDelay); err != nil {
			return err
		}
		p.settle(swapped, toasts)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Apply swaps fragment in immediately and returns the changed selectors and
// the toasts it introduced. Listeners are not notified.
func (p *Page) Apply(fragment string) ([]string, []Toast, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	swapped, err := apply(p.doc, fragment)

	var toasts []Toast
	p.doc.Find("[toast]").Not("[" + toastIDAttr + "]").Each(func(_ int, el *goquery.Selection) {
		p.toastSeq++
		id := strconv.Itoa(p.toastSeq)
		el.SetAttr(toastIDAttr, id)
		toasts = append(toasts, readToast(el))

		time.AfterFunc(ToastTTL, func() { p.expire(id) })
	})

	return swapped, toasts, err
}

func readToast(el *goquery.Selection) Toast {
	kind := "info"
	if el.HasClass("error") {
		kind = "error"
	}
	return Toast{
		Kind:        kind,
		Title:       strings.TrimSpace(el.Find("h1").First().Text()),
		Description: strings.TrimSpace(el.Find("p").First().Text()),
	}
}

func (p *Page) expire(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc.Find("[" + toastIDAttr + "=\"" + id + "\"]").Remove()
}

func (p *Page) settle(swapped []string, toasts []Toast) {
	p.mu.Lock()
	onSwap, onToast := p.onSwap, p.onToast
	p.mu.Unlock()

	if len(swapped) > 0 {
		for _, f := range onSwap {
			f(swapped)
		}
	}
	for _, t := range toasts {
		for _, f := range onToast {
			f(t)
		}
	}
}

// Region returns the outer markup of the element with the given id.
func (p *Page) Region(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel := p.doc.Find("#" + id)
	if sel.Length() == 0 {
		return "", false
	}
	html, err := goquery.OuterHtml(sel.First())
	return html, err == nil
}

// Text returns the text content of the element with the given id.
func (p *Page) Text(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.TrimSpace(p.doc.Find("#" + id).First().Text())
}
