package gtnexus_test

import (
	"testing"
	"time"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/edibridge/backend/internal/application/mappers/gtnexus"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/infrastructure/docview"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseView(t *testing.T, body string) ingest.DocumentView {
	t.Helper()
	view, err := docview.XMLParser{}.Parse(ingest.RawDocument{
		TenantID:   uuid.New(),
		SystemCode: gtnexus.SystemCode,
		SourceRef:  "test",
		Body:       []byte(body),
	})
	require.NoError(t, err)
	return view
}

func TestOrderMapper_Revision(t *testing.T) {
	m := gtnexus.NewOrderMapper()

	t.Run("numeric", func(t *testing.T) {
		rev, err := m.Revision(parseView(t, `<Order><LastModified>42</LastModified></Order>`))
		require.NoError(t, err)
		assert.Equal(t, document.Revision(42), rev)
	})

	t.Run("rfc3339 timestamp", func(t *testing.T) {
		rev, err := m.Revision(parseView(t, `<Order><LastModified>2026-03-01T10:30:00Z</LastModified></Order>`))
		require.NoError(t, err)
		want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
		assert.Equal(t, document.RevisionFromTime(want), rev)
	})

	t.Run("timestamps order after small numerics", func(t *testing.T) {
		numeric, err := m.Revision(parseView(t, `<Order><LastModified>9000</LastModified></Order>`))
		require.NoError(t, err)
		stamped, err := m.Revision(parseView(t, `<Order><LastModified>2026-03-01T10:30:00Z</LastModified></Order>`))
		require.NoError(t, err)
		assert.Greater(t, stamped, numeric)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := m.Revision(parseView(t, `<Order></Order>`))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Revision(parseView(t, `<Order><LastModified>yesterday</LastModified></Order>`))
		assert.Error(t, err)
	})
}

func TestOrderMapper_BusinessKey(t *testing.T) {
	m := gtnexus.NewOrderMapper()

	t.Run("prefixed and uppercased", func(t *testing.T) {
		key, err := m.BusinessKey(parseView(t, `<Order><OrderNumber>po-77</OrderNumber></Order>`))
		require.NoError(t, err)
		assert.Equal(t, "GTN-PO-77", key)
	})

	t.Run("missing number", func(t *testing.T) {
		_, err := m.BusinessKey(parseView(t, `<Order></Order>`))
		assert.Error(t, err)
	})
}

func TestIsCancellation(t *testing.T) {
	m := gtnexus.NewOrderMapper()

	cases := []struct {
		status string
		want   bool
	}{
		{"Cancelled", true},
		{"CANCELED", true},
		{"canceled", true},
		{"Open", false},
		{"", false},
	}
	for _, c := range cases {
		doc := parseView(t, `<Order><Status>`+c.status+`</Status></Order>`)
		assert.Equal(t, c.want, m.IsCancellation(doc), "status %q", c.status)
	}
}

func TestOrderMapper_ChildDescriptors(t *testing.T) {
	m := gtnexus.NewOrderMapper()
	doc := parseView(t, `<Order><Lines>
		<Line><Number>1</Number><Sku>SKU-A</Sku><Quantity>10</Quantity><UnitPrice>2.50</UnitPrice></Line>
		<Line><Number>2</Number><Sku>SKU-B</Sku><Quantity>bad</Quantity></Line>
	</Lines></Order>`)

	ds, err := m.ChildDescriptors(doc)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "1", m.DescriptorKey(ds[0]))
	assert.Equal(t, "SKU-A", ds[0].Sku)
	// Numeric fields stay raw so a bad value becomes a per-line violation
	// later, not a dead-lettered document.
	assert.Equal(t, "bad", ds[1].Quantity)
}

func TestShipmentMapper_ChildDescriptors(t *testing.T) {
	m := gtnexus.NewShipmentMapper()
	doc := parseView(t, `<Shipment><Containers>
		<Container><Number>MSKU1</Number><Items>
			<Item><OrderNumber>PO-1</OrderNumber><Sku>SKU-A</Sku></Item>
			<Item><OrderNumber>PO-1</OrderNumber><Sku>SKU-B</Sku></Item>
		</Items></Container>
		<Container><Number>MSKU2</Number><Items>
			<Item><OrderNumber>PO-2</OrderNumber><Sku>SKU-C</Sku></Item>
		</Items></Container>
	</Containers></Shipment>`)

	ds, err := m.ChildDescriptors(doc)
	require.NoError(t, err)
	require.Len(t, ds, 3)
	assert.Equal(t, "MSKU1-1", m.DescriptorKey(ds[0]))
	assert.Equal(t, "MSKU1-2", m.DescriptorKey(ds[1]))
	assert.Equal(t, "MSKU2-1", m.DescriptorKey(ds[2]))
}

func TestPartyDescriptors(t *testing.T) {
	m := gtnexus.NewOrderMapper()
	doc := parseView(t, `<Order><Parties>
		<Party><Role>Vendor</Role><Code>V100</Code><Name>Acme Mills</Name>
			<Address><City>Shenzhen</City><Country>CN</Country></Address></Party>
		<Party><Role>Agent</Role><Code>A7</Code></Party>
	</Parties></Order>`)

	ds := m.PartyDescriptors(doc)
	require.Len(t, ds, 2)
	assert.Equal(t, "Vendor", ds[0].Role)
	assert.Equal(t, "V100", ds[0].Code)
	assert.Equal(t, "Acme Mills", ds[0].Name)
	assert.Equal(t, "Shenzhen", ds[0].Address.City)
	assert.Equal(t, "Agent", ds[1].Role)
	assert.Empty(t, ds[1].Name)
}
