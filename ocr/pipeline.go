package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	// Register decoders for the supported raster formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/agenticai/agentd/config"
	"github.com/agenticai/agentd/domain"
	"github.com/agenticai/agentd/store"
)

// Sentinel segments substituted when extraction yields no usable text, so
// prompt assembly always has non-empty document context.
const (
	SentinelNoAttachments = "[No attachments provided]"
	SentinelNoCompatible  = "[Attachments were provided but none were OCR-compatible]"
)

var supportedTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/webp":      {},
	"image/bmp":       {},
	"image/tiff":      {},
	"application/pdf": {},
}

// Pipeline converts canonical attachments into extracted text segments
// and persisted artifacts. Attachment-level failures degrade to skips;
// only an unavailable engine fails the batch.
type Pipeline struct {
	engines EngineProvider
	store   store.Store
	dpi     float64
	workers int
	logger  zerolog.Logger
}

// NewPipeline creates a pipeline using the shared engine provider and
// artifact store.
func NewPipeline(engines EngineProvider, st store.Store, cfg *config.Config, logger zerolog.Logger) *Pipeline {
	workers := cfg.OCRWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		engines: engines,
		store:   st,
		dpi:     cfg.PDFRenderDPI,
		workers: workers,
		logger:  logger,
	}
}

type attachmentResult struct {
	attachment domain.Attachment
	texts      []string
	payload    []byte
	inline     bool
}

// Extract runs the full pipeline over the attachment batch. The returned
// text segments are flattened in attachment order with empty strings
// filtered; artifacts are recorded for every attachment that produced at
// least one non-empty segment.
func (p *Pipeline) Extract(ctx context.Context, attachments []domain.Attachment) ([]string, []domain.Artifact, error) {
	if len(attachments) == 0 {
		return []string{SentinelNoAttachments}, nil, nil
	}

	engine, err := p.engines.Engine()
	if err != nil {
		return nil, nil, err
	}

	mapper := iter.Mapper[domain.Attachment, attachmentResult]{MaxGoroutines: p.workers}
	results := mapper.Map(attachments, func(att *domain.Attachment) attachmentResult {
		return p.extractOne(ctx, engine, *att)
	})

	var texts []string
	var artifacts []domain.Artifact
	for _, result := range results {
		if len(result.texts) == 0 {
			continue
		}
		texts = append(texts, result.texts...)

		doc := &store.ExtractedDocument{
			Name:        result.attachment.Name,
			ContentType: result.attachment.ContentType,
			Text:        strings.Join(result.texts, "\n"),
		}
		if result.inline {
			doc.SourceBytes = result.payload
		}
		artifact, err := p.store.SaveExtractedDocument(ctx, doc)
		if err != nil {
			p.logger.Warn().Err(err).Str("attachment", result.attachment.Name).
				Msg("failed to persist extracted document")
			continue
		}
		artifacts = append(artifacts, *artifact)
	}

	if len(texts) == 0 {
		return []string{SentinelNoCompatible}, nil, nil
	}
	return texts, artifacts, nil
}

// extractOne processes a single attachment. Every failure is local:
// the result simply carries no text.
func (p *Pipeline) extractOne(ctx context.Context, engine Engine, att domain.Attachment) attachmentResult {
	result := attachmentResult{attachment: att}

	contentType := strings.ToLower(strings.TrimSpace(att.ContentType))
	if _, ok := supportedTypes[contentType]; !ok {
		p.logger.Debug().Str("attachment", att.Name).Str("content_type", att.ContentType).
			Msg("skipping attachment with unsupported content type")
		return result
	}

	payload, inline, ok := p.resolvePayload(att)
	if !ok {
		return result
	}
	result.payload = payload
	result.inline = inline

	var images []image.Image
	if contentType == "application/pdf" {
		images = p.rasterizePDF(att.Name, payload)
	} else {
		img, _, err := image.Decode(bytes.NewReader(payload))
		if err != nil {
			p.logger.Warn().Err(err).Str("attachment", att.Name).Msg("failed to decode image attachment")
			return result
		}
		images = []image.Image{img}
	}

	for _, img := range images {
		if ctx.Err() != nil {
			return result
		}
		recognitions, err := engine.Recognize(ctx, img)
		if err != nil {
			p.logger.Warn().Err(err).Str("attachment", att.Name).Msg("OCR recognition failed for image")
			continue
		}
		for _, rec := range recognitions {
			if text := strings.TrimSpace(rec.Text); text != "" {
				result.texts = append(result.texts, text)
			}
		}
	}
	return result
}

// resolvePayload prefers the inline base64 body over a path reference.
func (p *Pipeline) resolvePayload(att domain.Attachment) (payload []byte, inline, ok bool) {
	if att.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(att.Data)
		if err != nil {
			p.logger.Warn().Err(err).Str("attachment", att.Name).Msg("failed to decode attachment data")
			return nil, false, false
		}
		return decoded, true, true
	}
	if att.Path != "" {
		data, err := os.ReadFile(att.Path)
		if err != nil {
			p.logger.Warn().Err(err).Str("attachment", att.Name).Str("path", att.Path).
				Msg("failed to read attachment file")
			return nil, false, false
		}
		return data, false, true
	}
	p.logger.Debug().Str("attachment", att.Name).Msg("attachment carries neither data nor path")
	return nil, false, false
}

// rasterizePDF renders each page to an image at the configured DPI. A
// page that fails rendering is skipped; remaining pages still process.
func (p *Pipeline) rasterizePDF(name string, payload []byte) []image.Image {
	doc, err := fitz.NewFromMemory(payload)
	if err != nil {
		p.logger.Warn().Err(err).Str("attachment", name).Msg("failed to open PDF attachment")
		return nil
	}
	defer doc.Close()

	var images []image.Image
	for page := 0; page < doc.NumPage(); page++ {
		img, err := doc.ImageDPI(page, p.dpi)
		if err != nil {
			p.logger.Warn().Err(err).Str("attachment", name).Int("page", page).
				Msg("failed to rasterize PDF page")
			continue
		}
		images = append(images, img)
	}
	return images
}
