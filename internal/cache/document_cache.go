package cache

import (
	"strings"
	"time"

	"github.com/glanzwerk/beleg/internal/document/domain"
	"github.com/glanzwerk/beleg/internal/events"
)

const (
	defaultDetailTTL = 5 * time.Minute
	defaultListTTL   = 30 * time.Second
)

// DocumentCache stores rendered detail and per-type list responses.
// It subscribes to change events so a mutation drops both the document's
// detail entry and the docType-level list entries.
type DocumentCache interface {
	GetDetail(docID string) (domain.DocumentWithLines, bool)
	SetDetail(docID string, doc domain.DocumentWithLines)
	GetList(docType, key string) (domain.ListDocumentResponse, bool)
	SetList(docType, key string, resp domain.ListDocumentResponse)
}

type documentCache struct {
	details Cache[string, domain.DocumentWithLines]
	lists   Cache[string, domain.ListDocumentResponse]
	// listKeys remembers which list entries exist per docType so
	// invalidation does not need to enumerate the cache.
	listKeys Cache[string, []string]
}

func NewDocumentCache(publisher events.Publisher) DocumentCache {
	c := &documentCache{
		details:  NewTTLCache[string, domain.DocumentWithLines](),
		lists:    NewTTLCache[string, domain.ListDocumentResponse](),
		listKeys: NewTTLCache[string, []string](),
	}
	publisher.Subscribe(c.onDocumentChanged)
	return c
}

func (c *documentCache) onDocumentChanged(event events.DocumentChanged) {
	c.details.Delete(event.DocID.String())
	keys, ok := c.listKeys.Get(string(event.DocType))
	if !ok {
		return
	}
	for _, key := range keys {
		c.lists.Delete(key)
	}
	c.listKeys.Delete(string(event.DocType))
}

func (c *documentCache) GetDetail(docID string) (domain.DocumentWithLines, bool) {
	return c.details.Get(docID)
}

func (c *documentCache) SetDetail(docID string, doc domain.DocumentWithLines) {
	c.details.Set(docID, doc, defaultDetailTTL)
}

func (c *documentCache) GetList(docType, key string) (domain.ListDocumentResponse, bool) {
	return c.lists.Get(listKey(docType, key))
}

func (c *documentCache) SetList(docType, key string, resp domain.ListDocumentResponse) {
	full := listKey(docType, key)
	c.lists.Set(full, resp, defaultListTTL)

	keys, _ := c.listKeys.Get(docType)
	keys = append(keys, full)
	c.listKeys.Set(docType, keys, defaultListTTL)
}

func listKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
