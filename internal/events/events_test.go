package events

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	doctypes "github.com/glanzwerk/beleg/internal/document/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublisher_FansOutToAllSubscribers(t *testing.T) {
	publisher := NewPublisher(zap.NewNop())

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	docID := node.Generate()

	var first, second []DocumentChanged
	publisher.Subscribe(func(event DocumentChanged) { first = append(first, event) })
	publisher.Subscribe(func(event DocumentChanged) { second = append(second, event) })

	event := DocumentChanged{DocID: docID, DocType: doctypes.DocTypeInvoice, Action: "document.created"}
	publisher.Publish(event)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, event, first[0])
	assert.Equal(t, event, second[0])
}

func TestPublisher_IgnoresNilSubscribers(t *testing.T) {
	publisher := NewPublisher(zap.NewNop())
	publisher.Subscribe(nil)

	var seen int
	publisher.Subscribe(func(DocumentChanged) { seen++ })

	publisher.Publish(DocumentChanged{Action: "document.updated"})
	assert.Equal(t, 1, seen)
}
