// Package intake turns raw input files into the flat ordered work queue
// consumed by the dispatcher.
package intake

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sheetscan/sheetscan/internal/domain"
	"github.com/sheetscan/sheetscan/internal/observability"
	"github.com/sheetscan/sheetscan/internal/raster"
)

var pdfMagic = []byte("%PDF-")

// InputFile is one raw upload: a raster image or a multi-page document.
type InputFile struct {
	Name string
	Data []byte
}

// IsDocument reports whether the file is a multi-page document rather than a
// plain raster image.
func (f InputFile) IsDocument() bool {
	return bytes.HasPrefix(f.Data, pdfMagic) || strings.HasSuffix(strings.ToLower(f.Name), ".pdf")
}

// Builder produces work items from input files, expanding documents into
// pages and linking related items through the grouping policy.
type Builder struct {
	rasterizer raster.Rasterizer
	logger     *observability.Logger
}

// NewBuilder creates a work item builder.
func NewBuilder(rasterizer raster.Rasterizer, logger *observability.Logger) *Builder {
	return &Builder{
		rasterizer: rasterizer,
		logger:     logger.WithComponent("intake"),
	}
}

// Build flattens the input files into an ordered work queue. Item order
// matches input order exactly: cross-file ordering is the order files were
// supplied, document-internal page order is preserved. forced is the variant
// applied to every item; empty means oracle auto-detection.
//
// Any single-file preparation failure aborts the whole build: a batch whose
// work queue cannot be safely assembled never starts.
func (b *Builder) Build(ctx context.Context, files []InputFile, forced domain.SheetVariant) ([]domain.WorkItem, error) {
	items := make([]domain.WorkItem, 0, len(files))

	for _, file := range files {
		if len(file.Data) == 0 {
			return nil, domain.IOError("failed to read files", fmt.Errorf("%s is empty", file.Name))
		}

		if !file.IsDocument() {
			items = append(items, domain.WorkItem{
				Image:         file.Data,
				SourceName:    file.Name,
				Kind:          domain.SourceKindImage,
				ForcedVariant: forced,
			})
			continue
		}

		pages, err := b.rasterizer.Rasterize(ctx, file.Data)
		if err != nil {
			return nil, domain.IOError("failed to read files", fmt.Errorf("%s: %w", file.Name, err))
		}

		groups := DocumentGroups(len(pages))
		for i, page := range pages {
			items = append(items, domain.WorkItem{
				Image:         page,
				SourceName:    file.Name,
				Kind:          domain.SourceKindDocumentPage,
				Page:          i + 1,
				GroupID:       groups[i],
				ForcedVariant: forced,
			})
		}

		b.logger.Debug().
			Str("file", file.Name).
			Int("pages", len(pages)).
			Msg("Expanded document into pages")
	}

	b.logger.Info().
		Int("files", len(files)).
		Int("items", len(items)).
		Msg("Built work queue")

	return items, nil
}

// BuildPaired flattens three per-variant upload buckets into one work queue.
// Buckets are indexed in canonical variant order (info, vibe, stats).
// Documents inside a bucket are expanded into pages first; the expanded
// sequences are then combined positionally, so the items at index i across
// all buckets share one group identifier and each item carries its bucket's
// variant as a forced hint. Items are emitted index-major to keep group
// members adjacent in the queue.
func (b *Builder) BuildPaired(ctx context.Context, buckets [3][]InputFile) ([]domain.WorkItem, error) {
	var expanded [3][]domain.WorkItem

	for bi, files := range buckets {
		variant := domain.Variants[bi]
		for _, file := range files {
			if len(file.Data) == 0 {
				return nil, domain.IOError("failed to read files", fmt.Errorf("%s is empty", file.Name))
			}

			if !file.IsDocument() {
				expanded[bi] = append(expanded[bi], domain.WorkItem{
					Image:         file.Data,
					SourceName:    file.Name,
					Kind:          domain.SourceKindImage,
					ForcedVariant: variant,
				})
				continue
			}

			pages, err := b.rasterizer.Rasterize(ctx, file.Data)
			if err != nil {
				return nil, domain.IOError("failed to read files", fmt.Errorf("%s: %w", file.Name, err))
			}
			for i, page := range pages {
				expanded[bi] = append(expanded[bi], domain.WorkItem{
					Image:         page,
					SourceName:    file.Name,
					Kind:          domain.SourceKindDocumentPage,
					Page:          i + 1,
					ForcedVariant: variant,
				})
			}
		}
	}

	groups := PairedGroups([3]int{len(expanded[0]), len(expanded[1]), len(expanded[2])})

	items := make([]domain.WorkItem, 0, len(expanded[0])+len(expanded[1])+len(expanded[2]))
	for i := range groups {
		for bi := range expanded {
			if i >= len(expanded[bi]) {
				continue
			}
			item := expanded[bi][i]
			item.GroupID = groups[i]
			items = append(items, item)
		}
	}

	b.logger.Info().
		Int("groups", len(groups)).
		Int("items", len(items)).
		Msg("Built paired work queue")

	return items, nil
}
