package standardize

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/sitekeeper/internal/model"
)

// Landmark marker attribute and selectors. A landmark is present when
// any element matches its selector, whatever its content.
const (
	LandmarkAttr = "data-landmark"

	SelectorNavigation = `[data-landmark="navigation"], nav.main-nav`
	SelectorBreadcrumb = `[data-landmark="breadcrumb"], nav.breadcrumb`
	SelectorFooter     = `[data-landmark="footer"], footer.site-footer, body > footer, [role="contentinfo"]`
	SelectorSkipLink   = `[data-landmark="skip-link"], a.skip-to-main`
	SelectorMain       = `[data-landmark="main"], main, [role="main"]`
	SelectorProgress   = `[data-landmark="progress"], .progress-indicator`
	SelectorMermaid    = `script[data-landmark="mermaid"]`
)

// MainID is the id given to the main region when it has none.
const MainID = "main-content"

// shellSelector matches every landmark that stays outside <main>.
const shellSelector = SelectorNavigation + ", " + SelectorBreadcrumb + ", " +
	SelectorFooter + ", " + SelectorSkipLink + ", " + SelectorProgress

// DetectLandmarks reports which shell landmarks the document already has.
func DetectLandmarks(doc *goquery.Document) model.Landmarks {
	return model.Landmarks{
		Navigation: doc.Find(SelectorNavigation).Length() > 0,
		Breadcrumb: doc.Find(SelectorBreadcrumb).Length() > 0,
		Footer:     doc.Find(SelectorFooter).Length() > 0,
		Main:       doc.Find(SelectorMain).Length() > 0,
		SkipLink:   doc.Find(SelectorSkipLink).Length() > 0,
		Progress:   doc.Find(SelectorProgress).Length() > 0,
	}
}
