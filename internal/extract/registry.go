// Package extract turns product-page markup into price readings.
package extract

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SelectorSpec locates the price and currency text on one site's pages.
type SelectorSpec struct {
	Price    string `yaml:"price"`
	Currency string `yaml:"currency"`
}

// Registry maps site identifiers to selector specs. Entries are
// registered during startup; the registry is read-only afterwards.
type Registry struct {
	specs map[string]SelectorSpec
}

// NewRegistry creates an empty selector registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]SelectorSpec)}
}

// Register adds or replaces the selector spec for a site. Adding a new
// site never requires touching pipeline or scheduler call sites.
func (r *Registry) Register(site string, spec SelectorSpec) error {
	if site == "" {
		return fmt.Errorf("site identifier cannot be empty")
	}
	if spec.Price == "" {
		return fmt.Errorf("site %q: price selector cannot be empty", site)
	}
	r.specs[site] = spec
	return nil
}

// Lookup returns the selector spec for a site.
func (r *Registry) Lookup(site string) (SelectorSpec, bool) {
	spec, ok := r.specs[site]
	return spec, ok
}

// Sites returns the registered site identifiers, sorted.
func (r *Registry) Sites() []string {
	sites := make([]string, 0, len(r.specs))
	for site := range r.specs {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}

// LoadSitesFile reads a YAML selector table and registers every entry.
//
// File format:
//
//	shopexample:
//	  price: "span.product-price"
//	  currency: "span.product-currency"
func (r *Registry) LoadSitesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sites file: %w", err)
	}

	var table map[string]SelectorSpec
	if err := yaml.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("parse sites file: %w", err)
	}

	for site, spec := range table {
		if err := r.Register(site, spec); err != nil {
			return fmt.Errorf("sites file: %w", err)
		}
	}
	return nil
}
