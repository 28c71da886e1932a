// Package events carries in-process change notifications so read-side
// caches can invalidate after every successful mutation.
package events

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	doctypes "github.com/glanzwerk/beleg/internal/document/domain"
	"go.uber.org/zap"
)

// DocumentChanged is fired after a mutation commits.
type DocumentChanged struct {
	DocID   snowflake.ID
	DocType doctypes.DocType
	Action  string
}

// Publisher fans DocumentChanged events out to subscribers.
type Publisher interface {
	Publish(event DocumentChanged)
	Subscribe(fn func(DocumentChanged))
}

type publisher struct {
	mu          sync.RWMutex
	subscribers []func(DocumentChanged)
	log         *zap.Logger
}

func NewPublisher(log *zap.Logger) Publisher {
	return &publisher{log: log.Named("events")}
}

func (p *publisher) Subscribe(fn func(DocumentChanged)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

func (p *publisher) Publish(event DocumentChanged) {
	p.mu.RLock()
	subscribers := make([]func(DocumentChanged), len(p.subscribers))
	copy(subscribers, p.subscribers)
	p.mu.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}

	p.log.Debug("document changed",
		zap.String("doc_id", event.DocID.String()),
		zap.String("doc_type", string(event.DocType)),
		zap.String("action", event.Action),
	)
}
