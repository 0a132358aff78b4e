package out

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	captureout "worklens/internal/modules/capture/port/out"
	apperrors "worklens/internal/platform/errors"

	"github.com/kbinani/screenshot"
)

// DisplayScreenshotter grabs one display, or every display when Display is
// negative.
type DisplayScreenshotter struct {
	Display int
}

func NewDisplayScreenshotter(display int) captureout.Screenshotter {
	return &DisplayScreenshotter{Display: display}
}

func (s *DisplayScreenshotter) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	displays := screenshot.NumActiveDisplays()
	if displays == 0 {
		return nil, fmt.Errorf("%w: no active displays", apperrors.ErrCapture)
	}
	if s.Display >= displays {
		return nil, fmt.Errorf("%w: display %d out of range 0-%d", apperrors.ErrCapture, s.Display, displays-1)
	}
	bounds := screenshot.GetDisplayBounds(max(s.Display, 0))
	if s.Display < 0 {
		for i := 1; i < displays; i++ {
			bounds = bounds.Union(screenshot.GetDisplayBounds(i))
		}
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: capture display: %v", apperrors.ErrCapture, err)
	}
	buf := bytes.Buffer{}
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode screenshot: %v", apperrors.ErrCapture, err)
	}
	return buf.Bytes(), nil
}
