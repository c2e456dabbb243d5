package react

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/isdmx/hooklab/console"
)

// ErrFetchDisabled is returned by the default fetcher
var ErrFetchDisabled = errors.New("fetch is disabled in this playground")

// FetchRequest is what user code passed to fetch
type FetchRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// FetchResponse is handed back to user code as a Response-like object
type FetchResponse struct {
	Status     int
	StatusText string
	Headers    map[string]string
	Body       []byte
}

// Fetcher performs the network side of fetch
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// DisabledFetcher rejects every request
type DisabledFetcher struct{}

// Fetch always fails with ErrFetchDisabled
func (DisabledFetcher) Fetch(context.Context, FetchRequest) (*FetchResponse, error) {
	return nil, ErrFetchDisabled
}

// HTTPFetcher performs requests with net/http
type HTTPFetcher struct {
	Client  *http.Client
	MaxBody int64
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client:  &http.Client{Timeout: timeout},
		MaxBody: 1 << 20,
	}
}

// Fetch performs req and reads at most MaxBody bytes of the response
func (f *HTTPFetcher) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[strings.ToLower(k)] = resp.Header.Get(k)
	}

	return &FetchResponse{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    headers,
		Body:       data,
	}, nil
}

// Window is the window global seen by user code
type Window struct {
	vm        *goja.Runtime
	object    *goja.Object
	listeners map[string][]goja.Value
}

// Listeners returns how many listeners are registered for event
func (w *Window) Listeners(event string) int {
	return len(w.listeners[event])
}

// Resize updates innerWidth/innerHeight and notifies resize listeners.
// Run it inside Renderer.Act so state updates re-render.
func (w *Window) Resize(width, height int) error {
	_ = w.object.Set("innerWidth", width)
	_ = w.object.Set("innerHeight", height)
	return w.dispatch("resize")
}

func (w *Window) dispatch(event string) error {
	evt := w.vm.NewObject()
	_ = evt.Set("type", event)
	_ = evt.Set("target", w.object)

	// listeners may unsubscribe while being notified
	current := append([]goja.Value(nil), w.listeners[event]...)
	for _, l := range current {
		fn, ok := goja.AssertFunction(l)
		if !ok {
			continue
		}
		if _, err := call(fn, evt); err != nil {
			return err
		}
	}
	return nil
}

// HostOptions configure the globals installed by InstallHost
type HostOptions struct {
	Sink         console.Sink
	Fetcher      Fetcher
	Context      context.Context
	WindowWidth  int
	WindowHeight int
	Now          func() time.Time
}

// Host holds the browser-like globals of one runtime
type Host struct {
	Window *Window
}

// InstallHost defines window, console and fetch on vm
func InstallHost(vm *goja.Runtime, opts HostOptions) *Host {
	if opts.Sink == nil {
		opts.Sink = console.Discard
	}
	if opts.Fetcher == nil {
		opts.Fetcher = DisabledFetcher{}
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	win := installWindow(vm, opts.WindowWidth, opts.WindowHeight)
	installConsole(vm, opts.Sink, opts.Now)
	installFetch(vm, opts.Context, opts.Fetcher)

	return &Host{Window: win}
}

func installWindow(vm *goja.Runtime, width, height int) *Window {
	w := &Window{
		vm:        vm,
		object:    vm.NewObject(),
		listeners: make(map[string][]goja.Value),
	}

	_ = w.object.Set("innerWidth", width)
	_ = w.object.Set("innerHeight", height)
	_ = w.object.Set("addEventListener", func(c goja.FunctionCall) goja.Value {
		event := c.Argument(0).String()
		w.listeners[event] = append(w.listeners[event], c.Argument(1))
		return goja.Undefined()
	})
	_ = w.object.Set("removeEventListener", func(c goja.FunctionCall) goja.Value {
		event := c.Argument(0).String()
		fn := c.Argument(1)
		kept := w.listeners[event][:0]
		for _, l := range w.listeners[event] {
			if !l.SameAs(fn) {
				kept = append(kept, l)
			}
		}
		w.listeners[event] = kept
		return goja.Undefined()
	})

	_ = vm.Set("window", w.object)
	return w
}

func installConsole(vm *goja.Runtime, sink console.Sink, now func() time.Time) {
	obj := vm.NewObject()

	emit := func(kind console.Kind) func(goja.FunctionCall) goja.Value {
		return func(c goja.FunctionCall) goja.Value {
			parts := make([]string, 0, len(c.Arguments))
			for _, arg := range c.Arguments {
				parts = append(parts, formatValue(vm, arg))
			}
			sink.OnMessage(console.Message{
				Kind:      kind,
				Text:      strings.Join(parts, " "),
				Timestamp: now(),
			})
			return goja.Undefined()
		}
	}

	_ = obj.Set("log", emit(console.KindLog))
	_ = obj.Set("info", emit(console.KindLog))
	_ = obj.Set("debug", emit(console.KindLog))
	_ = obj.Set("warn", emit(console.KindWarn))
	_ = obj.Set("error", emit(console.KindError))

	_ = vm.Set("console", obj)
}

// formatValue renders a console argument: strings verbatim, errors and
// functions via toString, plain objects and arrays as JSON.
func formatValue(vm *goja.Runtime, v goja.Value) string {
	obj, ok := v.(*goja.Object)
	if !ok || isNullish(v) {
		if v == nil {
			return "undefined"
		}
		return v.String()
	}
	if _, isFn := goja.AssertFunction(obj); isFn || obj.ClassName() == "Error" || obj.ClassName() == "Date" {
		return obj.String()
	}

	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return obj.String()
	}
	out, err := call(stringify, obj)
	if err != nil || goja.IsUndefined(out) {
		return obj.String()
	}
	return out.String()
}

func installFetch(vm *goja.Runtime, ctx context.Context, fetcher Fetcher) {
	_ = vm.Set("fetch", func(c goja.FunctionCall) goja.Value {
		promise, resolve, reject := vm.NewPromise()

		req := FetchRequest{Method: http.MethodGet, URL: c.Argument(0).String()}
		if init := c.Argument(1); !isNullish(init) {
			initObj := init.ToObject(vm)
			if m := initObj.Get("method"); !isNullish(m) {
				req.Method = strings.ToUpper(m.String())
			}
			if b := initObj.Get("body"); !isNullish(b) {
				req.Body = b.String()
			}
			if h, ok := initObj.Get("headers").(*goja.Object); ok {
				req.Headers = make(map[string]string)
				for _, k := range h.Keys() {
					req.Headers[k] = h.Get(k).String()
				}
			}
		}

		resp, err := fetcher.Fetch(ctx, req)
		if err != nil {
			_ = reject(newError(vm, "Failed to fetch: "+err.Error()))
			return vm.ToValue(promise)
		}

		_ = resolve(newResponse(vm, req.URL, resp))
		return vm.ToValue(promise)
	})
}

func newResponse(vm *goja.Runtime, url string, resp *FetchResponse) *goja.Object {
	obj := vm.NewObject()
	_ = obj.Set("ok", resp.Status >= 200 && resp.Status < 300)
	_ = obj.Set("status", resp.Status)
	_ = obj.Set("statusText", resp.StatusText)
	_ = obj.Set("url", url)

	headers := vm.NewObject()
	_ = headers.Set("get", func(c goja.FunctionCall) goja.Value {
		if v, ok := resp.Headers[strings.ToLower(c.Argument(0).String())]; ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = obj.Set("headers", headers)

	body := string(resp.Body)
	_ = obj.Set("text", func(goja.FunctionCall) goja.Value {
		promise, resolve, _ := vm.NewPromise()
		_ = resolve(body)
		return vm.ToValue(promise)
	})
	_ = obj.Set("json", func(goja.FunctionCall) goja.Value {
		promise, resolve, reject := vm.NewPromise()
		parse, _ := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))
		v, err := call(parse, vm.ToValue(body))
		if err != nil {
			_ = reject(newError(vm, ErrorMessage(err)))
		} else {
			_ = resolve(v)
		}
		return vm.ToValue(promise)
	})

	return obj
}
