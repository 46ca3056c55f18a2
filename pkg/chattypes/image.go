package chattypes

// Image is a binary attachment sent alongside a chat message.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the attachment size in bytes.
func (i *Image) Size() int {
	if i == nil {
		return 0
	}
	return len(i.Data)
}
