package assembly

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/nfnt/resize"

	"github.com/pridato/vidgen/internal/ports"
)

const thumbnailQuality = 85

// thumbnail grabs one frame near the start of the video and returns it as a
// JPEG no wider than width.
func thumbnail(ctx context.Context, tc ports.Transcoder, ws *Workspace, video string, duration float64, width int) ([]byte, error) {
	at := 1.0
	if duration > 0 && duration/2 < at {
		at = duration / 2
	}
	frame := ws.Path("frame.png")
	if err := tc.ExtractFrame(ctx, video, frame, at); err != nil {
		return nil, err
	}
	f, err := os.Open(frame)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if width > 0 && img.Bounds().Dx() > width {
		img = resize.Resize(uint(width), 0, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
