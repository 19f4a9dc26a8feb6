// Package raster renders multi-page documents into per-page images for
// recognition.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"

	"github.com/sheetscan/sheetscan/internal/domain"
)

const (
	// baseDPI is the nominal PDF render resolution.
	baseDPI = 72
	// upscaleFactor renders pages at 2x the nominal resolution. The oracle
	// works on pixel-level bubble and handwriting detection, so under-scaled
	// renders measurably increase its error rate.
	upscaleFactor = 2
	// jpegQuality bounds the payload size of a rendered page.
	jpegQuality = 80
)

// Rasterizer converts a document's bytes into an ordered sequence of JPEG
// page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, document []byte) ([][]byte, error)
}

// FitzRasterizer implements Rasterizer using go-fitz (MuPDF).
type FitzRasterizer struct{}

// NewRasterizer creates a new document rasterizer.
func NewRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

// Rasterize renders every page of the document at 2x scale and encodes it as
// JPEG. A failure on any page aborts the whole document; there are no
// partial-page results.
func (r *FitzRasterizer) Rasterize(ctx context.Context, document []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(document)
	if err != nil {
		return nil, domain.RasterizationError("failed to open document", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.RasterizationError("document has no pages", nil)
	}

	pages := make([][]byte, 0, pageCount)

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, baseDPI*upscaleFactor)
		if err != nil {
			return nil, domain.RasterizationError(fmt.Sprintf("failed to render page %d", pageNum+1), err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, domain.RasterizationError(fmt.Sprintf("failed to encode page %d as JPG", pageNum+1), err)
		}

		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}
