package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buttonWebhook = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "123",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "contacts": [{"profile": {"name": "Ravi"}, "wa_id": "911111111111"}],
        "messages": [
          {"from": "911111111111", "id": "wamid.1", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "accept:pb-7", "title": "Accept"}}},
          {"from": "911111111111", "id": "wamid.2", "type": "text", "text": {"body": "stock v1 10"}},
          {"from": "911111111111", "id": "wamid.3", "type": "image", "image": {"id": "media-1"}}
        ],
        "statuses": [{"id": "wamid.0", "status": "read", "recipient_id": "911111111111"}]
      }
    }]
  }]
}`

func TestWebhookPayload_Flatten(t *testing.T) {
	var p WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(buttonWebhook), &p))

	msgs := p.InboundMessages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "accept:pb-7", msgs[0].Body())
	assert.Equal(t, "stock v1 10", msgs[1].Body())
	assert.Empty(t, msgs[2].Body())

	statuses := p.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, "read", statuses[0].Status)
	assert.Equal(t, "Ravi", p.Entry[0].Changes[0].Value.Contacts[0].Profile.Name)
}

func TestInboundMessage_ListReply(t *testing.T) {
	m := InboundMessage{Interactive: &InteractiveContent{Type: "list_reply", ListReply: &ReplyButton{ID: "help"}}}
	assert.Equal(t, "help", m.Body())
}
