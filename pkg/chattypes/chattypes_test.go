package chattypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	assert.Equal(t, OriginUser, msg.Origin)
	assert.Equal(t, "hello", msg.Text)
	assert.True(t, msg.IsUser())
	assert.False(t, msg.Failed)
	assert.Equal(t, AlignRight, msg.Alignment())
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage("hi there")

	assert.Equal(t, OriginAssistant, msg.Origin)
	assert.False(t, msg.IsUser())
	assert.Equal(t, AlignLeft, msg.Alignment())
}

func TestNewFailureMessage(t *testing.T) {
	msg := NewFailureMessage("❌500 Internal Server Error")

	assert.Equal(t, OriginAssistant, msg.Origin)
	assert.True(t, msg.Failed)
}

func TestMessageIDsAreUnique(t *testing.T) {
	a := NewUserMessage("a")
	b := NewUserMessage("a")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAlignmentString(t *testing.T) {
	assert.Equal(t, "left", AlignLeft.String())
	assert.Equal(t, "right", AlignRight.String())
}

func TestImageSize(t *testing.T) {
	var img *Image
	assert.Equal(t, 0, img.Size())

	img = &Image{Data: []byte{1, 2, 3}}
	assert.Equal(t, 3, img.Size())
}
