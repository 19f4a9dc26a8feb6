package domain

import "fmt"

// SheetVariant identifies which of the three fixed answer-sheet layouts a
// page represents. A record always carries a concrete variant; the Auto and
// Paired meta-modes exist only at batch-request level (see Mode).
type SheetVariant string

const (
	VariantInfo  SheetVariant = "info"
	VariantVibe  SheetVariant = "vibe"
	VariantStats SheetVariant = "stats"
)

// Variants lists the concrete sheet variants in their canonical order. The
// order is load-bearing: paired-mode buckets are combined in this order.
var Variants = [3]SheetVariant{VariantInfo, VariantVibe, VariantStats}

// ParseVariant converts a user-supplied string into a SheetVariant.
func ParseVariant(s string) (SheetVariant, error) {
	switch SheetVariant(s) {
	case VariantInfo, VariantVibe, VariantStats:
		return SheetVariant(s), nil
	default:
		return "", ValidationError(fmt.Sprintf("unknown sheet variant %q", s), nil)
	}
}

// Mode selects how a batch determines the variant of each page.
type Mode string

const (
	// ModeAuto lets the recognition oracle detect the variant per page.
	ModeAuto Mode = "auto"
	// ModeForced processes every page as one fixed variant.
	ModeForced Mode = "forced"
	// ModePaired combines three per-variant upload buckets positionally.
	ModePaired Mode = "paired"
)
