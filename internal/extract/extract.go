package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/ashureev/pricewatch/internal/domain"
)

// Pipeline extracts a normalized price reading from page markup.
type Pipeline struct {
	registry         *Registry
	fallbackCurrency string
}

// NewPipeline creates an extraction pipeline over the given registry.
// fallbackCurrency is used when a page carries no currency text.
func NewPipeline(registry *Registry, fallbackCurrency string) *Pipeline {
	return &Pipeline{registry: registry, fallbackCurrency: fallbackCurrency}
}

// priceReplacer strips grouping and decimal punctuation before parsing,
// so "1,299.00" parses as 129900. Non-breaking spaces show up in price
// text on most storefronts.
var priceReplacer = strings.NewReplacer(",", "", ".", "", " ", "", " ", "")

// Extract resolves the site's selector spec and returns a price reading.
//
// An unregistered site is a hard domain.ErrUnsupportedSite; adding an
// item for an unsupported site must never succeed. A price selector
// that matches no element is a domain.ErrParse. A matched element with
// empty text yields price 0 rather than an error, so the polling loop
// can treat drifted page structure as a benign per-item condition.
func (p *Pipeline) Extract(markup, site string) (domain.PriceReading, error) {
	spec, ok := p.registry.Lookup(site)
	if !ok {
		return domain.PriceReading{}, fmt.Errorf("site %q: %w", site, domain.ErrUnsupportedSite)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return domain.PriceReading{}, fmt.Errorf("site %q: parse markup: %w", site, domain.ErrParse)
	}

	priceNode := doc.Find(spec.Price).First()
	if priceNode.Length() == 0 {
		return domain.PriceReading{}, fmt.Errorf("site %q: selector %q matched nothing: %w", site, spec.Price, domain.ErrParse)
	}

	price, err := parsePrice(priceNode.Text())
	if err != nil {
		return domain.PriceReading{}, fmt.Errorf("site %q: %w", site, err)
	}

	currency := p.fallbackCurrency
	if spec.Currency != "" {
		if text := strings.TrimSpace(doc.Find(spec.Currency).First().Text()); text != "" {
			currency = text
		}
	}

	return domain.PriceReading{Price: price, Currency: currency}, nil
}

func parsePrice(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil
	}

	stripped := priceReplacer.Replace(text)
	price, err := decimal.NewFromString(stripped)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparsable price text %q: %w", text, domain.ErrParse)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative price %q: %w", text, domain.ErrParse)
	}
	return price, nil
}
