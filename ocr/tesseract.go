package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/agenticai/agentd/domain"
)

// tesseractEngine adapts a gosseract client to the Engine interface. The
// underlying client holds a single Tesseract handle and is not safe for
// concurrent use, so calls serialize on the mutex.
type tesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func newTesseractEngine(lang string) (*tesseractEngine, error) {
	client := gosseract.NewClient()
	if lang != "" {
		if err := client.SetLanguage(lang); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR language %q: %w", lang, err)
		}
	}
	return &tesseractEngine{client: client}, nil
}

func (e *tesseractEngine) Recognize(ctx context.Context, img image.Image) ([]domain.Recognition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to load image into OCR engine: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR recognition failed: %w", err)
	}

	recognitions := make([]domain.Recognition, 0, len(boxes))
	for _, box := range boxes {
		recognitions = append(recognitions, domain.Recognition{
			Text:       box.Word,
			Confidence: box.Confidence,
			Region:     box.Box,
		})
	}
	return recognitions, nil
}

func (e *tesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
