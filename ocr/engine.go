// Package ocr implements the document extraction pipeline: attachment
// payload resolution, format-specific rasterization, OCR engine
// invocation and artifact persistence.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"

	"github.com/agenticai/agentd/config"
	"github.com/agenticai/agentd/domain"
)

// Engine runs text recognition against a single raster image. Recognize
// may fail on malformed input; callers treat that as zero text, not as a
// batch failure.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]domain.Recognition, error)
}

// EngineProvider yields the shared process-wide engine handle. A provider
// error is a configuration defect and aborts the whole extraction.
type EngineProvider interface {
	Engine() (Engine, error)
}

// EngineFunc adapts a plain constructor into an EngineProvider.
type EngineFunc func() (Engine, error)

func (f EngineFunc) Engine() (Engine, error) { return f() }

// NewEngine constructs the configured OCR engine. An unsupported provider
// is a fatal configuration error.
func NewEngine(cfg *config.Config) (Engine, error) {
	switch strings.ToLower(cfg.OCRProvider) {
	case "tesseract":
		return newTesseractEngine(cfg.OCRLang)
	default:
		return nil, fmt.Errorf("unsupported OCR provider %q", cfg.OCRProvider)
	}
}

// LazyEngine defers engine construction to first use and caches the
// outcome, success or failure, for the process lifetime. Concurrent
// first uses resolve to a single construction.
type LazyEngine struct {
	build  func() (Engine, error)
	once   sync.Once
	engine Engine
	err    error
}

// NewLazyEngine wraps build in a once-guarded provider.
func NewLazyEngine(build func() (Engine, error)) *LazyEngine {
	return &LazyEngine{build: build}
}

// Engine returns the shared engine, constructing it on first call.
func (l *LazyEngine) Engine() (Engine, error) {
	l.once.Do(func() {
		l.engine, l.err = l.build()
	})
	if l.err != nil {
		return nil, fmt.Errorf("ocr engine unavailable: %w", l.err)
	}
	return l.engine, nil
}

// Close releases the underlying engine if it was ever constructed. The
// provider hands out no engines afterwards.
func (l *LazyEngine) Close() error {
	l.once.Do(func() {
		l.err = errors.New("ocr engine closed")
	})
	if closer, ok := l.engine.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
