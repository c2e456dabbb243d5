// Package sandbox turns editor text into a mounted component.
//
// Each Run moves one RunRequest through four stages: transform (JSX to
// JavaScript), synthesize (compile the text into a unit with React as its
// only external binding), instantiate (call the unit and check the entry
// point is a function) and invoke (mount and render it). Any stage can
// stop the run with a *Failure tagged with that stage; the failure is also
// sent to the console sink.
//
// The sandbox holds at most one entry point. A new run discards the
// previous one and its runtime, so nothing from an earlier run stays
// reachable.
//
// Usage:
//
//	sb := sandbox.New(sandbox.WithLogger(logger), sandbox.WithSink(buf))
//	res, view := sb.RunAndMount(ctx, source)
//	if f, ok := res.(*sandbox.Failure); ok {
//	    fmt.Println(f.Stage, f.Message)
//	}
package sandbox
