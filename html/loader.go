// Package html loads markup into a bridge context. Parsing is done by
// golang.org/x/net/html; every element found is created and attributed
// through the same Go API script uses, so the renderer sees ordinary
// commands.
package html

import (
	"fmt"
	"io"
	"strings"

	"github.com/chrisuehlinger/nodebridge/js"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Load parses a full document from r and replays it under the context's
// root. The <html> element's attributes land on the root and its <body> on
// the document body. Inline scripts run as they are reached; their errors
// are collected and loading continues.
func Load(c *js.Context, r io.Reader) error {
	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	l := &loader{ctx: c, logger: c.Logger().Named("html")}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.DataAtom == atom.Html {
			l.setAttributes(c.Root(), n)
			l.children(c.Root(), n)
		}
	}
	return l.errs
}

// LoadString is Load for markup held in a string.
func LoadString(c *js.Context, markup string) error {
	return Load(c, strings.NewReader(markup))
}

// LoadFragment parses r as the content of parent and appends the result.
func LoadFragment(c *js.Context, parent *js.Element, r io.Reader) error {
	ctxNode := &html.Node{
		Type:     html.ElementNode,
		Data:     strings.ToLower(parent.Tag()),
		DataAtom: atom.Lookup([]byte(strings.ToLower(parent.Tag()))),
	}
	nodes, err := html.ParseFragment(r, ctxNode)
	if err != nil {
		return fmt.Errorf("parsing fragment: %w", err)
	}

	l := &loader{ctx: c, logger: c.Logger().Named("html")}
	for _, n := range nodes {
		l.node(parent, n)
	}
	return l.errs
}

type loader struct {
	ctx     *js.Context
	logger  *zap.Logger
	scripts int
	errs    error
}

func (l *loader) children(parent *js.Element, n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		l.node(parent, child)
	}
}

func (l *loader) node(parent *js.Element, n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}

	var el *js.Element
	if n.DataAtom == atom.Body && parent == l.ctx.Root() {
		el = l.ctx.Body()
	} else {
		el = l.ctx.CreateElement(n.Data)
		if err := parent.AppendChild(el); err != nil {
			l.errs = multierr.Append(l.errs, fmt.Errorf("appending <%s>: %w", n.Data, err))
			return
		}
	}
	l.setAttributes(el, n)

	if n.DataAtom == atom.Script {
		l.runScript(n)
		return
	}
	l.children(el, n)
}

func (l *loader) setAttributes(el *js.Element, n *html.Node) {
	vm := l.ctx.Runtime().VM()
	for _, attr := range n.Attr {
		if err := el.SetAttribute(attr.Key, vm.ToValue(attr.Val)); err != nil {
			l.logger.Debug("Skipping attribute",
				zap.String("tag", n.Data), zap.String("name", attr.Key), zap.Error(err))
			continue
		}
		if attr.Key == "style" {
			el.Style().SetCSSText(attr.Val)
		}
	}
}

// runScript executes an inline script. External scripts are not fetched.
func (l *loader) runScript(n *html.Node) {
	if src := attr(n, "src"); src != "" {
		l.logger.Debug("Ignoring external script", zap.String("src", src))
		return
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	l.scripts++
	name := fmt.Sprintf("inline-script-%d", l.scripts)
	if err := l.ctx.ExecuteScript(sb.String(), name); err != nil {
		l.errs = multierr.Append(l.errs, fmt.Errorf("%s: %w", name, err))
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
