package directory

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"

	"github.com/labatlas/centerscrape/internal/textutil"
)

// preloadMarker identifies the inline script some detail pages use to seed
// their client-side widgets.
const preloadMarker = "__PRELOADED_STATE__"

// preloadedFields evaluates the page's inline preloaded-state script and
// reads the collection fields out of it. Any evaluation problem degrades to
// empty fields.
func preloadedFields(doc *goquery.Document) (charges, radius, report string) {
	var src string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if strings.Contains(text, preloadMarker) {
			src = text
			return false
		}
		return true
	})
	if src == "" {
		return "", "", ""
	}

	vm := goja.New()
	if _, err := vm.RunString("var window = {};\n" + src); err != nil {
		return "", "", ""
	}

	read := func(expr string) string {
		v, err := vm.RunString("window." + preloadMarker + "." + expr)
		if err != nil || v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			return ""
		}
		return textutil.NormalizeText(v.String())
	}

	return read("collectionCharges"), read("collectionRadius"), read("avgReportTime")
}
