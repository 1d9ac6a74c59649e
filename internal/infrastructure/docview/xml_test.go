package docview

import (
	"testing"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOrder = `<?xml version="1.0"?>
<Order>
	<OrderNumber>PO-1001</OrderNumber>
	<Header>
		<Currency> USD </Currency>
		<Empty></Empty>
	</Header>
	<Lines>
		<Line>
			<Number>1</Number>
			<Sku>SKU-A</Sku>
		</Line>
		<Line>
			<Number>2</Number>
			<Sku>SKU-B</Sku>
		</Line>
	</Lines>
</Order>`

func TestParse(t *testing.T) {
	t.Run("navigates nested paths", func(t *testing.T) {
		n, err := Parse([]byte(sampleOrder))
		require.NoError(t, err)

		assert.Equal(t, "PO-1001", n.Text("OrderNumber"))
		assert.Equal(t, "USD", n.Text("Header/Currency"), "text should be trimmed")
		assert.Equal(t, "", n.Text("Header/Empty"))
		assert.Equal(t, "", n.Text("Header/Missing"))
	})

	t.Run("collects repeated elements in document order", func(t *testing.T) {
		n, err := Parse([]byte(sampleOrder))
		require.NoError(t, err)

		lines := n.All("Lines/Line")
		require.Len(t, lines, 2)
		assert.Equal(t, "1", lines[0].Text("Number"))
		assert.Equal(t, "SKU-A", lines[0].Text("Sku"))
		assert.Equal(t, "2", lines[1].Text("Number"))
	})

	t.Run("exists", func(t *testing.T) {
		n, err := Parse([]byte(sampleOrder))
		require.NoError(t, err)

		assert.True(t, n.Exists("Header/Currency"))
		assert.True(t, n.Exists("Header/Empty"))
		assert.False(t, n.Exists("Header/Nope"))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := Parse([]byte("not xml at all"))
		assert.Error(t, err)

		_, err = Parse([]byte(""))
		assert.Error(t, err)

		_, err = Parse([]byte("<a><b></a>"))
		assert.Error(t, err)
	})
}

func TestXMLParser(t *testing.T) {
	t.Run("wraps parse failures as malformed", func(t *testing.T) {
		_, err := XMLParser{}.Parse(ingest.RawDocument{
			SourceRef: "msg-1",
			Body:      []byte("<broken"),
		})
		require.Error(t, err)
		assert.True(t, ingest.IsMalformed(err))
	})

	t.Run("returns a view for valid XML", func(t *testing.T) {
		view, err := XMLParser{}.Parse(ingest.RawDocument{
			SourceRef: "msg-2",
			Body:      []byte(sampleOrder),
		})
		require.NoError(t, err)
		assert.Equal(t, "PO-1001", view.Text("OrderNumber"))
	})
}
