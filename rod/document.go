package rod

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/muffle"
	"github.com/go-rod/rod"
	"github.com/google/uuid"
	"github.com/ysmood/gson"
)

// Compile-time interface verification.
var (
	_ muffle.Document        = (*Document)(nil)
	_ muffle.MutationSource  = (*Document)(nil)
	_ muffle.LivenessChecker = (*Document)(nil)
)

// observeJS installs a MutationObserver that reports child list changes
// through the exposed binding. Bursts within one task are reported once.
const observeJS = `(binding) => {
	let queued = false;
	const observer = new MutationObserver(() => {
		if (queued) return;
		queued = true;
		setTimeout(() => { queued = false; window[binding](""); }, 0);
	});
	observer.observe(document.documentElement, {childList: true, subtree: true});
	window[binding + "_observer"] = observer;
}`

// Document is a muffle.Document backed by one load of a browser tab. A
// navigation that replaces the window ends the document: Alive reports false
// afterwards and a new Document must be attached to the tab.
type Document struct {
	page     *rod.Page
	ctx      context.Context
	cancel   context.CancelFunc
	hostname string
	token    string

	stopExpose func() error

	obsMu     sync.Mutex
	observers map[int]func()
	nextObs   int

	closed atomic.Bool
}

// Attach binds a Document to the current load of page. The page must have
// finished loading.
func Attach(ctx context.Context, page *rod.Page) (*Document, error) {
	ctx, cancel := context.WithCancel(ctx)
	d := &Document{
		page:      page.Context(ctx),
		ctx:       ctx,
		cancel:    cancel,
		token:     "__muffle_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		observers: make(map[int]func()),
	}

	host, err := d.page.Eval(`() => location.hostname`)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("reading hostname: %w", err)
	}
	d.hostname = host.Value.Str()

	stop, err := d.page.Expose(d.token+"_mutations", func(gson.JSON) (any, error) {
		d.notify()
		return nil, nil
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("exposing mutation binding: %w", err)
	}
	d.stopExpose = stop

	if _, err := d.page.Eval(`(t) => { window[t] = true }`, d.token); err != nil {
		d.Close()
		return nil, fmt.Errorf("marking document: %w", err)
	}
	if _, err := d.page.Eval(observeJS, d.token+"_mutations"); err != nil {
		d.Close()
		return nil, fmt.Errorf("installing mutation observer: %w", err)
	}
	return d, nil
}

// Page returns the tab behind the document.
func (d *Document) Page() *rod.Page {
	return d.page
}

// Hostname returns the host the document was loaded from.
func (d *Document) Hostname() string {
	return d.hostname
}

// Find returns all elements matching selector in document order.
func (d *Document) Find(selector string) []muffle.Element {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil
	}
	return d.wrap(els)
}

// Has reports whether at least one element matches selector.
func (d *Document) Has(selector string) bool {
	res, err := d.page.Eval(`(s) => { try { return !!document.querySelector(s) } catch (e) { return false } }`, selector)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// Body returns the body element, or nil when the document has none yet.
func (d *Document) Body() muffle.Element {
	el, err := d.page.Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(`() => document.body`))
	if err != nil {
		return nil
	}
	return &Element{doc: d, el: el}
}

// Height returns the scroll height of the body.
func (d *Document) Height() int {
	res, err := d.page.Eval(`() => document.body ? document.body.scrollHeight : 0`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// HTML renders the current document.
func (d *Document) HTML() (string, error) {
	return d.page.HTML()
}

// Observe registers fn to be called after every structural change.
func (d *Document) Observe(fn func()) (disconnect func()) {
	d.obsMu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.obsMu.Lock()
			delete(d.observers, id)
			d.obsMu.Unlock()
		})
	}
}

// Alive reports whether the tab still shows the load the document was
// attached to.
func (d *Document) Alive(ctx context.Context) bool {
	if d.closed.Load() {
		return false
	}
	res, err := d.page.Context(ctx).Eval(`(t) => window[t] === true`, d.token)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// Close disconnects the mutation observer and releases the binding. The tab
// itself stays open.
func (d *Document) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	_, _ = d.page.Eval(`(b) => { const o = window[b + "_observer"]; if (o) o.disconnect() }`, d.token+"_mutations")
	var err error
	if d.stopExpose != nil {
		err = d.stopExpose()
	}
	d.cancel()
	return err
}

func (d *Document) notify() {
	d.obsMu.Lock()
	fns := make([]func(), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (d *Document) wrap(els rod.Elements) []muffle.Element {
	if len(els) == 0 {
		return nil
	}
	elements := make([]muffle.Element, 0, len(els))
	for _, el := range els {
		elements = append(elements, &Element{doc: d, el: el})
	}
	return elements
}
