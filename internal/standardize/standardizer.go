package standardize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/sitekeeper/internal/config"
	"github.com/nao1215/sitekeeper/internal/model"
	"github.com/nao1215/sitekeeper/internal/stylesheet"
)

// Standardizer brings pages to the canonical shell described by a site profile.
// It holds no per-page state and is safe for concurrent use.
type Standardizer struct {
	site   *config.File
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Standardizer.
type Option func(*Standardizer)

// WithClock sets the time source used for the footer copyright year.
func WithClock(now func() time.Time) Option {
	return func(s *Standardizer) {
		s.now = now
	}
}

// WithLogger sets the logger used for per-page debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Standardizer) {
		s.logger = logger
	}
}

// New creates a Standardizer for the given site profile.
// A nil profile uses config.DefaultFile.
func New(site *config.File, opts ...Option) *Standardizer {
	if site == nil {
		site = config.DefaultFile()
	}
	s := &Standardizer{
		site:   site,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document is a parsed page between Prepare and Apply.
type Document struct {
	// Page is the page being standardized.
	Page *model.Page

	root *html.Node
	doc  *goquery.Document

	// styled holds the elements of Page.Styles, index for index.
	styled []*html.Node

	// blocks holds the <style> elements to move and their text.
	blocks     []*html.Node
	blockTexts []string
	registered bool
}

// Result is the outcome of standardizing one page in memory.
type Result struct {
	Page *model.Page

	// Output is the rendered page.
	Output []byte

	// Changed is false when Output equals the original content byte for byte.
	Changed bool

	// Changes lists the shell parts that were added, in application order.
	Changes []string

	// StylesReplaced is the number of non-empty style attributes replaced by a class.
	StylesReplaced int

	// EmptyStyles is the number of empty style attributes removed.
	EmptyStyles int

	// BlocksMoved is the number of <style> elements moved to the stylesheet.
	BlocksMoved int
}

// Outcome converts the result to the report's page outcome.
func (r *Result) Outcome() model.PageOutcome {
	status := model.PageRewritten
	if !r.Changed {
		status = model.PageUnchanged
	}
	return model.PageOutcome{
		Name:           r.Page.Name,
		Status:         status,
		Changes:        r.Changes,
		StylesReplaced: r.StylesReplaced,
	}
}

// Prepare validates and parses the page and collects its inline styles.
func (s *Standardizer) Prepare(ctx context.Context, page *model.Page) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := Validate(page.Content); err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Page = page.Name
		}
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(page.Content))
	if err != nil {
		return nil, &ParseError{Page: page.Name, Reason: err.Error(), Err: err}
	}

	d := &Document{
		Page: page,
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}
	// A frameset document parses without a body, so there is nowhere to put the shell.
	if d.doc.Find("body").Length() == 0 {
		return nil, &ParseError{Page: page.Name, Reason: "document has no body", Err: ErrNoBody}
	}
	page.Landmarks = DetectLandmarks(d.doc)
	s.collectStyles(d)
	return d, nil
}

// Register assigns class names to the page's inline styles through acc.
// pageIndex is the page's position in the run and orders the rules.
func (s *Standardizer) Register(d *Document, acc *stylesheet.Accumulator, pageIndex int) error {
	if acc == nil {
		return ErrNilAccumulator
	}
	for i := range d.Page.Styles {
		occ := &d.Page.Styles[i]
		if occ.Declarations == "" {
			continue
		}
		occ.ClassName, _ = acc.Register(occ.Declarations, d.Page.Name, stylesheet.Origin{Page: pageIndex, Seq: i})
	}
	for i, text := range d.blockTexts {
		acc.RegisterBlock(text, d.Page.Name, stylesheet.Origin{Page: pageIndex, Seq: len(d.Page.Styles) + i})
	}
	d.registered = true
	return nil
}

// Apply adds the missing shell, replaces inline styles and renders the page.
// The document must not be reused afterwards.
func (s *Standardizer) Apply(ctx context.Context, d *Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.registered && (len(d.blocks) > 0 || hasDeclarations(d.Page.Styles)) {
		return nil, ErrStylesNotRegistered
	}

	res := &Result{Page: d.Page}
	s.ensureDoctype(d, res)
	s.normalizeHead(d, res)
	s.ensureNavigation(d, res)
	s.ensureBreadcrumb(d, res)
	s.ensureProgress(d, res)
	s.ensureFooter(d, res)
	s.ensureAccessibility(d, res)
	s.ensureScripts(d, res)
	s.applyStyles(d, res)

	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", d.Page.Name, err)
	}
	res.Output = buf.Bytes()
	res.Changed = !bytes.Equal(res.Output, d.Page.Content)

	s.logger.Debug("page standardized",
		"page", d.Page.Name,
		"changed", res.Changed,
		"changes", len(res.Changes),
		"styles_replaced", res.StylesReplaced,
	)
	return res, nil
}

// Standardize runs Prepare, Register and Apply on one page.
func (s *Standardizer) Standardize(ctx context.Context, page *model.Page, acc *stylesheet.Accumulator, pageIndex int) (*Result, error) {
	d, err := s.Prepare(ctx, page)
	if err != nil {
		return nil, err
	}
	if err := s.Register(d, acc, pageIndex); err != nil {
		return nil, err
	}
	return s.Apply(ctx, d)
}

// Commit writes a changed result over its page file. Unchanged results
// are not written.
func Commit(res *Result) error {
	if !res.Changed {
		return nil
	}
	if err := WriteFileAtomic(res.Page.Path, res.Output); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	return nil
}

func (r *Result) add(change string) {
	r.Changes = append(r.Changes, change)
}

func hasDeclarations(styles []model.StyleOccurrence) bool {
	for _, occ := range styles {
		if occ.Declarations != "" {
			return true
		}
	}
	return false
}
