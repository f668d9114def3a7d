package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponseText(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "first"},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: " second"},
	}}
	assert.Equal(t, "first second", resp.Text())

	var nilResp *MessageResponse
	assert.Equal(t, "", nilResp.Text())
	assert.Equal(t, "", (&MessageResponse{}).Text())
}

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	})
	assert.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}
