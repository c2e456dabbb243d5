package react

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is one host node of a rendered tree: an element when Tag is set,
// a text node otherwise. ID is stable across re-renders of the same position.
type Node struct {
	ID       string  `json:"id"`
	Tag      string  `json:"tag,omitempty"`
	Text     string  `json:"text,omitempty"`
	Attrs    []Attr  `json:"attrs,omitempty"`
	Children []*Node `json:"children,omitempty"`

	handlers map[string]goja.Callable
}

// Attr is a rendered attribute
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Handlers lists the event props attached to the node, sorted
func (n *Node) Handlers() []string {
	names := make([]string, 0, len(n.handlers))
	for name := range n.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attr returns the value of the named attribute
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// TextContent concatenates the text of n and its descendants
func (n *Node) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.Tag == "" {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// Find returns the node with the given id
func Find(nodes []*Node, id string) *Node {
	chain := findChain(nodes, id)
	if chain == nil {
		return nil
	}
	return chain[len(chain)-1]
}

// FindAll returns, in document order, every element matching pred
func FindAll(nodes []*Node, pred func(*Node) bool) []*Node {
	var out []*Node
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			if n.Tag != "" && pred(n) {
				out = append(out, n)
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

// ByTag matches elements with the given tag name
func ByTag(tag string) func(*Node) bool {
	return func(n *Node) bool { return n.Tag == tag }
}

// findChain returns the path from a root to the node with id, inclusive.
func findChain(nodes []*Node, id string) []*Node {
	for _, n := range nodes {
		if n.ID == id {
			return []*Node{n}
		}
		if strings.HasPrefix(id, n.ID+".") {
			if rest := findChain(n.Children, id); rest != nil {
				return append([]*Node{n}, rest...)
			}
		}
	}
	return nil
}

// RenderHTML serializes nodes as HTML markup
func RenderHTML(nodes []*Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, toHTML(n)); err != nil {
			return "", fmt.Errorf("failed to render html: %w", err)
		}
	}
	return buf.String(), nil
}

// RenderText returns the text content of nodes
func RenderText(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		n.writeText(&b)
	}
	return b.String()
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

func toHTML(n *Node) *html.Node {
	if n.Tag == "" {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}

	out := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
	}
	for _, a := range n.Attrs {
		out.Attr = append(out.Attr, html.Attribute{Key: a.Name, Val: a.Value})
	}
	if voidElements[n.Tag] {
		return out
	}
	for _, c := range n.Children {
		out.AppendChild(toHTML(c))
	}
	return out
}

var attributeNames = map[string]string{
	"className": "class",
	"htmlFor":   "for",
	"tabIndex":  "tabindex",
	"readOnly":  "readonly",
	"maxLength": "maxlength",
	"autoFocus": "autofocus",
}

// toAttribute maps a host prop to its DOM attribute. Props that render
// nothing (false, null, undefined, functions) report ok=false.
func toAttribute(name string, v goja.Value) (Attr, bool) {
	if isNullish(v) {
		return Attr{}, false
	}
	if _, ok := goja.AssertFunction(v); ok {
		return Attr{}, false
	}
	if mapped, ok := attributeNames[name]; ok {
		name = mapped
	}

	if b, ok := v.Export().(bool); ok {
		if !b {
			return Attr{}, false
		}
		return Attr{Name: strings.ToLower(name), Value: ""}, true
	}

	if name == "style" {
		if obj, ok := v.(*goja.Object); ok {
			return Attr{Name: "style", Value: styleString(obj)}, true
		}
	}

	if name == "dangerouslySetInnerHTML" || name == "key" || name == "ref" {
		return Attr{}, false
	}

	return Attr{Name: name, Value: v.String()}, true
}

func styleString(obj *goja.Object) string {
	keys := obj.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := obj.Get(k)
		if isNullish(v) {
			continue
		}
		if b, ok := v.Export().(bool); ok && !b {
			continue
		}
		value := v.String()
		switch v.Export().(type) {
		case int64, float64:
			if value != "0" && !unitless[k] {
				value += "px"
			}
		}
		parts = append(parts, kebab(k)+": "+value)
	}
	return strings.Join(parts, "; ")
}

var unitless = map[string]bool{
	"opacity": true, "zIndex": true, "fontWeight": true, "lineHeight": true,
	"flex": true, "flexGrow": true, "flexShrink": true, "order": true,
}

func kebab(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
