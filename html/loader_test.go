package html

import (
	"strings"
	"testing"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/chrisuehlinger/nodebridge/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T) *js.Context {
	t.Helper()
	c := js.NewContext()
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadDocument(t *testing.T) {
	c := newContext(t)

	err := LoadString(c, `<!DOCTYPE html>
<html lang="en">
<head><title>Test</title></head>
<body class="page">
  <div id="main" title="hello"><span>text</span><img src="a.png"></div>
</body>
</html>`)
	require.NoError(t, err)

	assert.Equal(t, "en", c.Root().GetAttribute("lang").String())
	body := c.Body()
	assert.Equal(t, "page", body.GetAttribute("class").String())

	main := c.ElementByAttributeID("main")
	require.NotNil(t, main)
	assert.Equal(t, "div", main.Tag())
	assert.Same(t, body, main.Parent())

	var tags []string
	for _, child := range main.Children() {
		tags = append(tags, child.Tag())
	}
	assert.Equal(t, []string{"span", "img"}, tags)

	v, err := c.Execute(`document.getElementById("main").getAttribute("title")`)
	require.NoError(t, err)
	assert.Equal(t, "hello", v.String())
}

func TestLoadEmitsCommandsInDocumentOrder(t *testing.T) {
	c := newContext(t)
	c.Buffer().Drain()

	require.NoError(t, LoadString(c, `<body><p id="a"></p><p id="b"></p></body>`))

	var created []string
	for _, cmd := range c.Buffer().Drain() {
		if cmd.Kind == command.CreateElement {
			created = append(created, cmd.Args[0])
		}
	}
	assert.Equal(t, []string{"head", "BODY", "p", "p"}, created)
}

func TestLoadRunsInlineScripts(t *testing.T) {
	c := newContext(t)

	err := LoadString(c, `<body>
<div id="x"></div>
<script>var seen = document.getElementById("x") !== null;</script>
<script>throw new Error("broken");</script>
<script src="remote.js"></script>
<script>var after = true;</script>
</body>`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inline-script-2")
	assert.Contains(t, err.Error(), "broken")

	v, err := c.Execute(`[seen, after]`)
	require.NoError(t, err)
	assert.Equal(t, []any{true, true}, v.Export())
}

func TestLoadStyleAttribute(t *testing.T) {
	c := newContext(t)

	require.NoError(t, LoadString(c, `<body><div id="box" style="width: 10px; background-color: red"></div></body>`))
	box := c.ElementByAttributeID("box")
	require.NotNil(t, box)
	assert.Equal(t, "10px", box.Style().GetPropertyValue("width"))
	assert.Equal(t, "red", box.Style().GetPropertyValue("background-color"))
}

func TestLoadSkipsInvalidAttributeNames(t *testing.T) {
	c := newContext(t)

	require.NoError(t, LoadString(c, `<body><div id="d" 1bad="x" ok="y"></div></body>`))
	d := c.ElementByAttributeID("d")
	require.NotNil(t, d)
	assert.Equal(t, []string{"id", "ok"}, d.AttributeNames())
}

func TestLoadFragment(t *testing.T) {
	c := newContext(t)
	list := c.CreateElement("ul")

	err := LoadFragment(c, list, strings.NewReader(`<li>one</li><li data-n="2">two</li>`))
	require.NoError(t, err)

	items := list.Children()
	require.Len(t, items, 2)
	assert.Equal(t, "li", items[0].Tag())
	assert.Equal(t, "2", items[1].GetAttribute("data-n").String())
}
