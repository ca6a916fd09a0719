package js

import (
	"testing"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentBody(t *testing.T) {
	c := newTestContext(t)
	c.Buffer().Drain()

	got := run(t, c, `
		var b = document.body;
		[b === document.body, b.tagName, b.parentNode === document.documentElement];
	`)
	assert.Equal(t, []any{true, "BODY", true}, got.Export())

	body := c.Body()
	var insert []command.Command
	for _, cmd := range c.Buffer().Drain() {
		if cmd.Kind == command.InsertAdjacentNode {
			insert = append(insert, cmd)
		}
	}
	require.Len(t, insert, 1, "the body is attached once")
	assert.Equal(t, RootID, insert[0].Target)
	assert.Equal(t, []string{"beforeend", formatID(body.ID())}, insert[0].Args)
}

func TestDocumentCreateElement(t *testing.T) {
	c := newTestContext(t)

	_, err := c.Execute(`document.createElement()`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "createElement")

	got := run(t, c, `document.createElement("p").tagName`)
	assert.Equal(t, "P", got.String())
}

func TestElementByAttributeID(t *testing.T) {
	c := newTestContext(t)

	run(t, c, `
		var outer = document.createElement("section");
		var inner = document.createElement("span");
		inner.id = "target";
		outer.appendChild(inner);
		document.body.appendChild(outer);
	`)
	el := c.ElementByAttributeID("target")
	require.NotNil(t, el)
	assert.Equal(t, "span", el.Tag())
	assert.Nil(t, c.ElementByAttributeID("missing"))
}
