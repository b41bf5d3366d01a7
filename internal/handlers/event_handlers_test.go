package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"porchboard/internal/services"
)

type closeTrackingReader struct {
	*strings.Reader
	closed bool
}

func (r *closeTrackingReader) Close() error {
	r.closed = true
	return nil
}

func TestCloseEventImages_ClosesEveryReader(t *testing.T) {
	first := &closeTrackingReader{Reader: strings.NewReader("png-bytes")}
	second := &closeTrackingReader{Reader: strings.NewReader("jpeg-bytes")}

	closeEventImages([]services.EventImage{
		{Filename: "porch.png", Reader: first},
		{Filename: "band.jpg", Reader: second},
	})

	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestCloseEventImages_SkipsPlainReaders(t *testing.T) {
	tracked := &closeTrackingReader{Reader: strings.NewReader("png-bytes")}

	// A reader without a Close method is left alone.
	closeEventImages([]services.EventImage{
		{Filename: "flyer.png", Reader: strings.NewReader("flyer-bytes")},
		{Filename: "porch.png", Reader: tracked},
	})

	assert.True(t, tracked.closed)
}
