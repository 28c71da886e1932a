package cache

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glanzwerk/beleg/internal/document/domain"
	"github.com/glanzwerk/beleg/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTTLCache_ExpiresEntries(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	c.Set("b", 2, -time.Second)
	_, ok = c.Get("b")
	assert.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestDocumentCache_DetailInvalidatesOnChange(t *testing.T) {
	publisher := events.NewPublisher(zap.NewNop())
	c := NewDocumentCache(publisher)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	docID := node.Generate()

	doc := domain.DocumentWithLines{
		Document: domain.Document{ID: docID, DocType: domain.DocTypeInvoice},
	}
	c.SetDetail(docID.String(), doc)

	got, ok := c.GetDetail(docID.String())
	require.True(t, ok)
	assert.Equal(t, docID, got.ID)

	publisher.Publish(events.DocumentChanged{
		DocID:   docID,
		DocType: domain.DocTypeInvoice,
		Action:  "document.updated",
	})

	_, ok = c.GetDetail(docID.String())
	assert.False(t, ok)
}

func TestDocumentCache_ListInvalidatesPerDocType(t *testing.T) {
	publisher := events.NewPublisher(zap.NewNop())
	c := NewDocumentCache(publisher)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	invoices := domain.ListDocumentResponse{
		Documents: []domain.Document{{ID: node.Generate(), DocType: domain.DocTypeInvoice}},
	}
	offers := domain.ListDocumentResponse{
		Documents: []domain.Document{{ID: node.Generate(), DocType: domain.DocTypeOffer}},
	}
	c.SetList(string(domain.DocTypeInvoice), "page=1", invoices)
	c.SetList(string(domain.DocTypeInvoice), "page=2", invoices)
	c.SetList(string(domain.DocTypeOffer), "page=1", offers)

	_, ok := c.GetList(string(domain.DocTypeInvoice), "page=1")
	require.True(t, ok)

	publisher.Publish(events.DocumentChanged{
		DocID:   node.Generate(),
		DocType: domain.DocTypeInvoice,
		Action:  "document.created",
	})

	_, ok = c.GetList(string(domain.DocTypeInvoice), "page=1")
	assert.False(t, ok)
	_, ok = c.GetList(string(domain.DocTypeInvoice), "page=2")
	assert.False(t, ok)

	// an invoice change leaves offer lists alone
	got, ok := c.GetList(string(domain.DocTypeOffer), "page=1")
	require.True(t, ok)
	assert.Equal(t, offers.Documents[0].ID, got.Documents[0].ID)
}

func TestDocumentCache_ListKeepsPageInfo(t *testing.T) {
	publisher := events.NewPublisher(zap.NewNop())
	c := NewDocumentCache(publisher)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	resp := domain.ListDocumentResponse{
		Documents: []domain.Document{{ID: node.Generate(), DocType: domain.DocTypeInvoice}},
	}
	resp.NextPageToken = "cursor-token"
	c.SetList(string(domain.DocTypeInvoice), "page=1", resp)

	got, ok := c.GetList(string(domain.DocTypeInvoice), "page=1")
	require.True(t, ok)
	assert.Equal(t, "cursor-token", got.NextPageToken)
	assert.Equal(t, resp.Documents[0].ID, got.Documents[0].ID)
}
