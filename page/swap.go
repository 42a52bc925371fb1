package page

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const oobAttr = "hx-swap-oob"

// Strategy is how an out-of-band element replaces its target.
type Strategy string

const (
	OuterHTML  Strategy = "outerHTML"
	InnerHTML  Strategy = "innerHTML"
	BeforeEnd  Strategy = "beforeend"
	AfterBegin Strategy = "afterbegin"
	Delete     Strategy = "delete"
)

// parseOOB reads an hx-swap-oob value: "true", a strategy, or "strategy:selector".
func parseOOB(value, id string) (Strategy, string, error) {
	strategy, selector, _ := strings.Cut(value, ":")

	var s Strategy
	switch strategy {
	case "", "true", string(OuterHTML):
		s = OuterHTML
	case string(InnerHTML), string(BeforeEnd), string(AfterBegin), string(Delete):
		s = Strategy(strategy)
	default:
		return "", "", fmt.Errorf("unsupported swap strategy %q", strategy)
	}

	if selector == "" {
		if id == "" {
			return "", "", errors.New("out-of-band element has neither id nor selector")
		}
		selector = "#" + id
	}
	return s, selector, nil
}

// apply swaps every top-level out-of-band element of fragment into doc and
// returns the affected selectors. Elements without hx-swap-oob are ignored.
func apply(doc *goquery.Document, fragment string) ([]string, error) {
	frag, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	var (
		swapped []string
		errs    []error
	)
	frag.Find("body").Children().Filter("[" + oobAttr + "]").Each(func(_ int, el *goquery.Selection) {
		value, _ := el.Attr(oobAttr)
		id, _ := el.Attr("id")

		strategy, selector, err := parseOOB(value, id)
		if err != nil {
			errs = append(errs, err)
			return
		}
		el.RemoveAttr(oobAttr)

		if err := swapOne(doc, el, strategy, selector); err != nil {
			errs = append(errs, err)
			return
		}
		swapped = append(swapped, selector)
	})

	return swapped, errors.Join(errs...)
}

func swapOne(doc *goquery.Document, el *goquery.Selection, strategy Strategy, selector string) error {
	target := doc.Find(selector)

	if strategy == Delete {
		target.Remove()
		return nil
	}

	if target.Length() == 0 {
		// A region the page does not know yet is created at the end of the body.
		if strategy != OuterHTML {
			return fmt.Errorf("no element matches %s", selector)
		}
		outer, err := goquery.OuterHtml(el)
		if err != nil {
			return err
		}
		doc.Find("body").AppendHtml(outer)
		return nil
	}

	inner, err := el.Html()
	if err != nil {
		return err
	}

	switch strategy {
	case OuterHTML:
		outer, err := goquery.OuterHtml(el)
		if err != nil {
			return err
		}
		target.ReplaceWithHtml(outer)
	case InnerHTML:
		target.SetHtml(inner)
	case BeforeEnd:
		target.AppendHtml(inner)
	case AfterBegin:
		target.PrependHtml(inner)
	}
	return nil
}
