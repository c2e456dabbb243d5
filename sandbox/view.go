package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdmx/hooklab/react"
)

// View is a mounted entry point. Events and window changes go through it so
// render-time errors are reported as invoke failures.
type View struct {
	sandbox  *Sandbox
	entry    *EntryPoint
	renderer *react.Renderer
	closed   bool
}

// Entry returns the entry point the view renders
func (v *View) Entry() *EntryPoint {
	return v.entry
}

// Tree returns the rendered host nodes
func (v *View) Tree() []*react.Node {
	if v.closed {
		return nil
	}
	return v.renderer.Tree()
}

// HTML returns the rendered output as markup
func (v *View) HTML() (string, error) {
	return react.RenderHTML(v.Tree())
}

// Text returns the text content of the rendered output
func (v *View) Text() string {
	return react.RenderText(v.Tree())
}

// Dispatch delivers an event to the node with the given id. An unknown id
// is a caller error and returns react.ErrNodeNotFound; errors thrown by
// handlers or the following re-render return a *Failure.
func (v *View) Dispatch(ctx context.Context, id, event string, payload map[string]any) error {
	if !v.closed && react.Find(v.Tree(), id) == nil {
		return fmt.Errorf("%w: %s", react.ErrNodeNotFound, id)
	}
	return v.do(ctx, func() error {
		return v.renderer.Dispatch(id, event, payload)
	})
}

// Resize changes the window size and notifies resize listeners
func (v *View) Resize(ctx context.Context, width, height int) error {
	return v.do(ctx, func() error {
		return v.renderer.Act(func() error {
			return v.entry.host.Window.Resize(width, height)
		})
	})
}

// Unmount tears the view down, running effect cleanups
func (v *View) Unmount() {
	v.sandbox.unmountView(v)
}

func (v *View) do(ctx context.Context, fn func() error) error {
	if v.closed || v.entry != v.sandbox.current {
		return ErrStaleEntryPoint
	}

	ctx, cancel := v.sandbox.bound(ctx)
	defer cancel()

	err := guard(ctx, v.entry.vm, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, react.ErrUnmounted) {
		return ErrStaleEntryPoint
	}
	return v.sandbox.invokeFailed(v, err)
}
