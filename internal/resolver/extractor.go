package resolver

import "strings"

// Tokens is what an Extractor recognised in a raw descriptor.
type Tokens struct {
	Brand   string
	Storage string

	// Model is the folded text left once brand and storage are removed.
	Model string
}

// Extractor splits raw descriptors into brand, storage and model text.
type Extractor struct {
	brands *BrandTable
}

// NewExtractor creates an extractor over brands. A nil table uses the
// built-in one.
func NewExtractor(brands *BrandTable) *Extractor {
	if brands == nil {
		brands = DefaultBrandTable()
	}
	return &Extractor{brands: brands}
}

// ExtractBrand finds the first brand whose alias appears in input.
//
// Rules are tried in table order and, within a rule, aliases in order. Each
// alias is tried as a prefix of the folded input and then as a whole word.
// The remainder is the folded input with the matched alias removed.
func (e *Extractor) ExtractBrand(input string) (brand, remainder string, ok bool) {
	folded := foldText(input)
	for _, r := range e.brands.rules {
		for _, a := range r.aliases {
			if strings.HasPrefix(folded, a.text) {
				return r.brand, collapseSpace(folded[len(a.text):]), true
			}
			if loc := a.word.FindStringIndex(folded); loc != nil {
				return r.brand, collapseSpace(folded[:loc[0]] + " " + folded[loc[1]:]), true
			}
		}
	}
	return "", folded, false
}

// Extract runs brand then storage extraction over input.
func (e *Extractor) Extract(input string) Tokens {
	brand, rest, _ := e.ExtractBrand(input)
	storage, model, _ := ExtractStorage(rest)
	return Tokens{Brand: brand, Storage: storage, Model: model}
}
