// Package assets resolves the images referenced by an invoice (logo, signature,
// payment QR) into decoded, in-memory images before any page is rendered.
package assets

import (
	"errors"
	"image"
	"sort"

	"github.com/erp/invoice-export/internal/domain/invoice"
)

// ErrUnsupportedRef is returned when no source understands a reference
var ErrUnsupportedRef = errors.New("unsupported asset reference")

// Asset is the outcome of resolving one reference
type Asset struct {
	Kind   invoice.AssetKind
	Ref    string
	Source string // source that served the bytes, "cache" when served from cache
	Image  image.Image
	Err    error // set when the asset is unresolved
}

// Resolved reports whether the asset decoded to an image
func (a *Asset) Resolved() bool {
	return a != nil && a.Err == nil && a.Image != nil
}

// ResolvedAssets maps asset kinds to their outcomes for one export call.
// It is read-only after Resolve returns.
type ResolvedAssets struct {
	assets map[invoice.AssetKind]*Asset
}

// NewResolvedAssets builds a set from individual outcomes
func NewResolvedAssets(list ...*Asset) *ResolvedAssets {
	r := &ResolvedAssets{assets: make(map[invoice.AssetKind]*Asset, len(list))}
	for _, a := range list {
		if a != nil {
			r.assets[a.Kind] = a
		}
	}
	return r
}

// Image returns the decoded image for kind, or false when absent or unresolved
func (r *ResolvedAssets) Image(kind invoice.AssetKind) (image.Image, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.assets[kind]
	if !ok || !a.Resolved() {
		return nil, false
	}
	return a.Image, true
}

// Referenced reports whether the document referenced kind at all
func (r *ResolvedAssets) Referenced(kind invoice.AssetKind) bool {
	if r == nil {
		return false
	}
	_, ok := r.assets[kind]
	return ok
}

// Failures returns unresolved assets ordered by kind
func (r *ResolvedAssets) Failures() []*Asset {
	if r == nil {
		return nil
	}
	var out []*Asset
	for _, a := range r.assets {
		if !a.Resolved() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
