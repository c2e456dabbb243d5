package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/react"
	"github.com/isdmx/hooklab/transform"
)

// ErrStaleEntryPoint is returned when mounting or driving an entry point
// that a later run has replaced
var ErrStaleEntryPoint = errors.New("entry point belongs to a previous run")

// DefaultEntryPoint is the name snippets must give their component
const DefaultEntryPoint = "Component"

const maxCallStackSize = 4096

// EntryPoint is the component produced by a successful run, together with
// the runtime it lives in. It is only usable while it is the sandbox's
// current entry point.
type EntryPoint struct {
	request RunRequest
	name    string
	vm      *goja.Runtime
	lib     *react.Library
	host    *react.Host
	fn      goja.Value
}

// Request returns the run request that produced the entry point
func (e *EntryPoint) Request() RunRequest {
	return e.request
}

// Name returns the identifier the entry point was read from
func (e *EntryPoint) Name() string {
	return e.name
}

// Sandbox runs snippets through transform, synthesize, instantiate and
// invoke. It owns a single current entry point; every run replaces it.
// A Sandbox is not safe for concurrent use.
type Sandbox struct {
	logger      *zap.Logger
	sink        console.Sink
	transformer *transform.Transformer
	entryName   string
	maxPasses   int
	fetcher     react.Fetcher
	width       int
	height      int
	timeout     time.Duration
	now         func() time.Time

	seq           uint64
	current       *EntryPoint
	view          *View
	last          Result
	onInvokeFails []func(*Failure)
}

// Option configures a Sandbox
type Option func(*Sandbox)

// WithLogger sets the sandbox logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sandbox) {
		s.logger = logger
	}
}

// WithSink sets where failures and user console output are sent
func WithSink(sink console.Sink) Option {
	return func(s *Sandbox) {
		s.sink = sink
	}
}

// WithTransformer replaces the default transformer
func WithTransformer(t *transform.Transformer) Option {
	return func(s *Sandbox) {
		s.transformer = t
	}
}

// WithEntryPoint sets the identifier a snippet must define
func WithEntryPoint(name string) Option {
	return func(s *Sandbox) {
		if name != "" {
			s.entryName = name
		}
	}
}

// WithMaxRenderPasses bounds the render/effect cycles of one update
func WithMaxRenderPasses(n int) Option {
	return func(s *Sandbox) {
		s.maxPasses = n
	}
}

// WithFetcher sets the backend of the fetch global
func WithFetcher(f react.Fetcher) Option {
	return func(s *Sandbox) {
		s.fetcher = f
	}
}

// WithWindowSize sets the initial window.innerWidth and innerHeight
func WithWindowSize(width, height int) Option {
	return func(s *Sandbox) {
		s.width = width
		s.height = height
	}
}

// WithTimeout bounds each run, mount and event; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) {
		s.timeout = d
	}
}

// WithClock sets the time source for console message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Sandbox) {
		s.now = now
	}
}

// New creates a Sandbox
func New(opts ...Option) *Sandbox {
	s := &Sandbox{
		logger:    zap.NewNop(),
		sink:      console.Discard,
		entryName: DefaultEntryPoint,
		maxPasses: react.DefaultMaxPasses,
		fetcher:   react.DisabledFetcher{},
		width:     1024,
		height:    768,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.transformer == nil {
		s.transformer = transform.New(s.logger)
	}
	s.logger = s.logger.Named("sandbox")

	return s
}

// OnInvokeFailure registers fn to be called for every render-time failure
func (s *Sandbox) OnInvokeFailure(fn func(*Failure)) {
	s.onInvokeFails = append(s.onInvokeFails, fn)
}

// Current returns the live entry point, or nil
func (s *Sandbox) Current() *EntryPoint {
	return s.current
}

// View returns the mounted view of the current entry point, or nil
func (s *Sandbox) View() *View {
	return s.view
}

// Last returns the most recent result, or nil after Reset
func (s *Sandbox) Last() Result {
	return s.last
}

// Reset unmounts and discards the current entry point and result
func (s *Sandbox) Reset() {
	s.discard()
	s.last = nil
}

// Run executes one RunRequest for source. The previous entry point is
// discarded before anything else happens, so a failed run leaves nothing
// mounted. A Failure is always returned as a value, never as a panic.
func (s *Sandbox) Run(ctx context.Context, source string) Result {
	s.seq++
	req := RunRequest{ID: s.seq, Source: source}
	s.discard()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	res := s.run(ctx, req)
	s.last = res
	return res
}

func (s *Sandbox) run(ctx context.Context, req RunRequest) (res Result) {
	stage := StageTransform
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered panic in pipeline", zap.Any("panic", r), zap.String("stage", string(stage)))
			res = s.fail(req, stage, fmt.Sprintf("internal error: %v", r))
		}
	}()

	out, err := s.transformer.TransformWithMap(req.Source)
	if err != nil {
		f := s.newFailure(req, StageTransform, err.Error())
		var syntaxErr *transform.SyntaxError
		if errors.As(err, &syntaxErr) {
			f.Diagnostics = syntaxErr.Diagnostics
		}
		s.emit(f)
		return f
	}

	stage = StageSynthesize
	vm := goja.New()
	vm.SetMaxCallStackSize(maxCallStackSize)
	lib := react.NewLibrary(vm)
	host := react.InstallHost(vm, react.HostOptions{
		Sink:         s.sink,
		Fetcher:      s.fetcher,
		Context:      context.WithoutCancel(ctx),
		WindowWidth:  s.width,
		WindowHeight: s.height,
		Now:          s.now,
	})

	var unit goja.Value
	err = guard(ctx, vm, func() error {
		factory, err := Compile(vm, out.Code, s.entryName, []string{transform.AmbientObject})
		if err != nil {
			return err
		}
		unit, err = factory(goja.Undefined(), lib.Object())
		return err
	})
	if err != nil {
		return s.fail(req, StageSynthesize, compileMessage(err, out.SourceMap))
	}

	stage = StageInstantiate
	unitFn, ok := goja.AssertFunction(unit)
	if !ok {
		return s.fail(req, StageInstantiate, MsgNotAFunction)
	}

	var entry goja.Value
	err = guard(ctx, vm, func() error {
		entry, err = unitFn(goja.Undefined())
		return err
	})
	if err != nil {
		return s.fail(req, StageInstantiate, react.ErrorMessage(err))
	}
	if _, ok := goja.AssertFunction(entry); !ok {
		return s.fail(req, StageInstantiate, MsgNotAFunction)
	}

	s.current = &EntryPoint{
		request: req,
		name:    s.entryName,
		vm:      vm,
		lib:     lib,
		host:    host,
		fn:      entry,
	}
	s.logger.Debug("run ready", zap.Uint64("request", req.ID))
	return Success{Entry: s.current}
}

// Mount renders entry, which must be the current entry point. Render-time
// errors come back as a *Failure with StageInvoke, are sent to the sink
// and to OnInvokeFailure callbacks, and leave nothing mounted.
func (s *Sandbox) Mount(ctx context.Context, entry *EntryPoint) (*View, error) {
	if entry == nil || entry != s.current {
		return nil, ErrStaleEntryPoint
	}
	if s.view != nil {
		s.unmountView(s.view)
	}

	renderer := react.NewRenderer(entry.lib, entry.fn,
		react.WithMaxPasses(s.maxPasses),
		react.WithLogger(s.logger.Named("renderer")),
		react.WithWarningHandler(func(msg string) {
			s.sink.OnMessage(console.Message{Kind: console.KindWarn, Text: msg, Timestamp: s.now()})
		}),
	)

	view := &View{sandbox: s, entry: entry, renderer: renderer}
	if err := view.do(ctx, renderer.Mount); err != nil {
		return nil, err
	}

	s.view = view
	s.logger.Debug("entry point mounted", zap.Uint64("request", entry.request.ID))
	return view, nil
}

// RunAndMount runs source and mounts the result when it succeeds
func (s *Sandbox) RunAndMount(ctx context.Context, source string) (Result, *View) {
	res := s.Run(ctx, source)
	ok, isSuccess := res.(Success)
	if !isSuccess {
		return res, nil
	}

	view, err := s.Mount(ctx, ok.Entry)
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			return f, nil
		}
		return s.fail(ok.Entry.request, StageInvoke, err.Error()), nil
	}
	return res, view
}

// invokeFailed turns a render-time error into a Failure, tears the view
// down and notifies every listener.
func (s *Sandbox) invokeFailed(v *View, err error) *Failure {
	s.unmountView(v)

	f := s.fail(v.entry.request, StageInvoke, react.ErrorMessage(err))
	for _, fn := range s.onInvokeFails {
		fn(f)
	}
	return f
}

func (s *Sandbox) discard() {
	if s.view != nil {
		s.unmountView(s.view)
	}
	s.current = nil
}

func (s *Sandbox) unmountView(v *View) {
	if s.view == v {
		s.view = nil
	}
	if v.closed {
		return
	}
	v.closed = true
	err := guard(context.Background(), v.entry.vm, v.renderer.Unmount)
	if err != nil {
		s.logger.Debug("cleanup failed during unmount", zap.Error(err))
	}
}

func (s *Sandbox) newFailure(req RunRequest, stage Stage, msg string) *Failure {
	return &Failure{Message: msg, Stage: stage, Request: req.ID}
}

func (s *Sandbox) fail(req RunRequest, stage Stage, msg string) *Failure {
	f := s.newFailure(req, stage, msg)
	s.last = f
	s.emit(f)
	return f
}

func (s *Sandbox) emit(f *Failure) {
	s.logger.Debug("pipeline failure",
		zap.Uint64("request", f.Request),
		zap.String("stage", string(f.Stage)),
		zap.String("message", f.Message))
	s.sink.OnMessage(console.Message{Kind: console.KindError, Text: f.Message, Timestamp: s.now()})
}

func (s *Sandbox) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// guard runs fn against vm, interrupting the runtime when ctx ends and
// converting panics into errors.
func guard(ctx context.Context, vm *goja.Runtime, fn func() error) (err error) {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
		close(done)
	})
	defer func() {
		if !stop() {
			<-done
		}
		vm.ClearInterrupt()
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	return fn()
}
