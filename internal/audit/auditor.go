package audit

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/nao1215/sitekeeper/internal/model"
)

// MissingRef is a reference whose target does not exist in the site.
type MissingRef struct {
	Page string
	Ref  Ref
}

// SiteAudit is the result of auditing a set of pages.
type SiteAudit struct {
	// Refs holds each page's local references, keyed by page name.
	Refs map[string][]Ref

	// Missing lists references to files that do not exist, in page order.
	Missing []MissingRef

	// Metadata lists disclosing EXIF tags, sorted by image then tag.
	Metadata []MetadataFinding

	// ImagesScanned is the number of distinct JPEG/TIFF images read.
	ImagesScanned int

	// Errors holds pages or images that could not be read.
	Errors []model.Issue
}

// Auditor audits pages of one site.
type Auditor struct {
	maxImageSize int64
	logger       *slog.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithMaxImageSize sets the largest image read for EXIF data.
func WithMaxImageSize(n int64) Option {
	return func(a *Auditor) {
		a.maxImageSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Auditor.
func New(opts ...Option) *Auditor {
	a := &Auditor{
		maxImageSize: DefaultMaxImageSize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit reads every page in paths, checks that its local references exist
// under root, and scans each referenced JPEG/TIFF image once for EXIF
// metadata. Unreadable pages and images are recorded in Errors; only
// context cancellation aborts the audit.
func (a *Auditor) Audit(ctx context.Context, root string, paths []string) (*SiteAudit, error) {
	result := &SiteAudit{
		Refs:     make(map[string][]Ref),
		Missing:  make([]MissingRef, 0),
		Metadata: make([]MetadataFinding, 0),
		Errors:   make([]model.Issue, 0),
	}
	scanned := make(map[string]bool)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		content, err := os.ReadFile(p) //nolint:gosec // page paths come from listing the site directory
		if err != nil {
			result.Errors = append(result.Errors, model.Issue{Page: filepath.Base(p), Stage: "audit", Kind: model.KindPage, Reason: err.Error()})
			continue
		}
		page := model.NewPage(p, root, content)

		refs, err := ExtractRefs(page.Name, content)
		if err != nil {
			result.Errors = append(result.Errors, model.Issue{Page: page.Name, Stage: "audit", Kind: model.KindPage, Reason: err.Error()})
			continue
		}
		result.Refs[page.Name] = refs

		for _, ref := range refs {
			target := filepath.Join(root, filepath.FromSlash(ref.Target))
			if _, err := os.Stat(target); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					result.Missing = append(result.Missing, MissingRef{Page: page.Name, Ref: ref})
				}
				continue
			}
			if ref.Kind != RefImage || !HasEXIFExtension(ref.Target) || scanned[ref.Target] {
				continue
			}
			scanned[ref.Target] = true

			findings, err := AuditImageFile(target, ref.Target, a.maxImageSize)
			if err != nil {
				a.logger.Debug("image not audited", "image", target, "error", err)
				result.Errors = append(result.Errors, model.Issue{Page: ref.Target, Stage: "audit", Kind: model.KindWarning, Reason: err.Error()})
				continue
			}
			result.Metadata = append(result.Metadata, findings...)
		}
	}

	result.ImagesScanned = len(scanned)
	sort.SliceStable(result.Metadata, func(i, j int) bool {
		if result.Metadata[i].Image != result.Metadata[j].Image {
			return result.Metadata[i].Image < result.Metadata[j].Image
		}
		return result.Metadata[i].Tag < result.Metadata[j].Tag
	})
	return result, nil
}
