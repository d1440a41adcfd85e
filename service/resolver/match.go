package resolver

import (
	"sort"
	"strings"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/normalize"
)

func contains(haystack string, needle string) bool {
	n := normalize.CanonicalKey(needle)
	if n == "" {
		return false
	}
	return strings.Contains(normalize.CanonicalKey(haystack), n)
}

func sortedCards(cards []model.Card) []model.Card {
	result := append([]model.Card(nil), cards...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// cardPool restricts cards to the hinted bank when that bank has any card
func cardPool(cards []model.Card, bankCodes map[int64]string, bankHint string) []model.Card {
	if bankHint == "" {
		return cards
	}
	var pool []model.Card
	for _, c := range cards {
		if strings.EqualFold(bankCodes[c.BankID], bankHint) {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return cards
	}
	return pool
}

// MatchCard finds the production card a free-text name refers to. It tries the raw name as a
// substring of a card name, then the normalized name. A card holding a bank prefix followed by
// either name also holds the name itself, so no separate prefixed pass is made.
//
// Within one step the card with the lowest id wins.
func MatchCard(cards []model.Card, bankCodes map[int64]string, name string, bankHint string) (model.Card, bool) {
	pool := sortedCards(cardPool(cards, bankCodes, bankHint))
	normalized := normalize.NormalizeCardName(name)

	for _, needle := range []string{name, normalized} {
		for _, c := range pool {
			if contains(c.Name, needle) {
				return c, true
			}
		}
	}
	return model.Card{}, false
}

// MatchBrand finds the brand a free-text name refers to: an exact name match, else a brand
// whose name contains the candidate, else a brand having a keyword inside the candidate.
func MatchBrand(brands []model.Brand, keywords []model.BrandKeyword, name string) (model.Brand, bool) {
	key := normalize.CanonicalKey(name)
	if key == "" {
		return model.Brand{}, false
	}

	byID := make(map[int64]model.Brand, len(brands))
	for _, b := range brands {
		if normalize.CanonicalKey(b.Name) == key {
			return b, true
		}
		byID[b.ID] = b
	}

	for _, b := range brands {
		if contains(b.Name, name) {
			return b, true
		}
	}

	sorted := append([]model.BrandKeyword(nil), keywords...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Keyword) > len(sorted[j].Keyword)
	})
	for _, k := range sorted {
		b, ok := byID[k.BrandID]
		if ok && contains(name, k.Keyword) {
			return b, true
		}
	}
	return model.Brand{}, false
}
