package core

import "github.com/google/uuid"

// Sample is a finalized training unit handed to exactly one dataset writer
// Items are in image space, clipped to (0, 0, Width, Height)
type Sample struct {
	ID     uuid.UUID
	Image  []byte // JPEG
	Width  int
	Height int
	Items  []TargetItem
}

// NewSample assigns a fresh random id
func NewSample(image []byte, width, height int, items []TargetItem) *Sample {
	owned := make([]TargetItem, len(items))
	copy(owned, items)
	return &Sample{
		ID:     uuid.New(),
		Image:  image,
		Width:  width,
		Height: height,
		Items:  owned,
	}
}

// FileName returns the image file name used by directory-based writers
func (s *Sample) FileName() string {
	return s.ID.String() + ".jpg"
}
