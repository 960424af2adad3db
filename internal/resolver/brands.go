package resolver

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidBrandTable is returned when a brand table has an empty brand,
// a brand without aliases or an empty alias.
var ErrInvalidBrandTable = errors.New("resolver: invalid brand table")

// BrandRule maps the spellings of a brand to its canonical name.
// Aliases are tried in order.
type BrandRule struct {
	Brand   string   `yaml:"brand"`
	Aliases []string `yaml:"aliases"`
}

// brandTableFile is the YAML layout of resolver.brand_table_file.
//
//	brands:
//	  - brand: Apple
//	    aliases: [apple, iphone, ipad, iph, ip]
type brandTableFile struct {
	Brands []BrandRule `yaml:"brands"`
}

// BrandTable is an ordered, compiled set of brand rules. Earlier rules win
// when aliases of several brands could match.
type BrandTable struct {
	rules []compiledRule
}

type compiledRule struct {
	brand   string
	aliases []compiledAlias
}

type compiledAlias struct {
	text string
	word *regexp.Regexp
}

// DefaultBrandRules is the built-in brand table used when no file is configured.
// Short aliases that are also common English prefixes ("mi", "sm") are left
// out because prefix matching would claim unrelated input.
var DefaultBrandRules = []BrandRule{
	{Brand: "Apple", Aliases: []string{"apple", "iphone", "ipad", "iph", "ip"}},
	{Brand: "Samsung", Aliases: []string{"samsung", "galaxy", "sams"}},
	{Brand: "Google", Aliases: []string{"google", "pixel"}},
	{Brand: "OnePlus", Aliases: []string{"oneplus", "one plus"}},
	{Brand: "Microsoft", Aliases: []string{"microsoft", "surface"}},
	{Brand: "Xiaomi", Aliases: []string{"xiaomi", "redmi", "poco"}},
	{Brand: "Huawei", Aliases: []string{"huawei"}},
	{Brand: "Sony", Aliases: []string{"sony", "xperia"}},
	{Brand: "Motorola", Aliases: []string{"motorola", "moto"}},
	{Brand: "Nokia", Aliases: []string{"nokia"}},
	{Brand: "Oppo", Aliases: []string{"oppo"}},
}

// NewBrandTable validates and compiles rules.
// Aliases are matched against folded input, so they are folded the same way.
func NewBrandTable(rules []BrandRule) (*BrandTable, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no brands", ErrInvalidBrandTable)
	}

	t := &BrandTable{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		brand := strings.TrimSpace(r.Brand)
		if brand == "" {
			return nil, fmt.Errorf("%w: rule %d has no brand", ErrInvalidBrandTable, i)
		}
		if len(r.Aliases) == 0 {
			return nil, fmt.Errorf("%w: brand %q has no aliases", ErrInvalidBrandTable, brand)
		}

		cr := compiledRule{brand: brand}
		for _, a := range r.Aliases {
			text := foldText(a)
			if text == "" {
				return nil, fmt.Errorf("%w: brand %q has an empty alias", ErrInvalidBrandTable, brand)
			}
			cr.aliases = append(cr.aliases, compiledAlias{
				text: text,
				word: regexp.MustCompile(`\b` + regexp.QuoteMeta(text) + `\b`),
			})
		}
		t.rules = append(t.rules, cr)
	}
	return t, nil
}

// DefaultBrandTable returns the compiled built-in table.
func DefaultBrandTable() *BrandTable {
	t, err := NewBrandTable(DefaultBrandRules)
	if err != nil {
		panic(err) // built-in table is static
	}
	return t
}

// LoadBrandTable reads a brand table from a YAML file.
func LoadBrandTable(path string) (*BrandTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading brand table: %w", err)
	}
	return ParseBrandTable(data)
}

// ParseBrandTable parses brand table YAML.
func ParseBrandTable(data []byte) (*BrandTable, error) {
	var f brandTableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBrandTable, err)
	}
	return NewBrandTable(f.Brands)
}

// Brands returns the canonical brand names in table order.
func (t *BrandTable) Brands() []string {
	out := make([]string, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.brand
	}
	return out
}
