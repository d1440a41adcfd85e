// Package normalize contains the pure string functions used to match and
// deduplicate card and brand names.
package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// BankAlias lists the names a bank is written with in front of its card names
type BankAlias struct {
	Code  string
	Names []string
}

// KnownBanks lists the banks whose names are stripped from card names
var KnownBanks = []BankAlias{
	{Code: "hdfc", Names: []string{"HDFC Bank", "HDFC"}},
	{Code: "icici", Names: []string{"ICICI Bank", "ICICI"}},
	{Code: "sbi", Names: []string{"State Bank of India", "SBI Card", "SBI"}},
	{Code: "axis", Names: []string{"Axis Bank", "Axis"}},
	{Code: "kotak", Names: []string{"Kotak Mahindra Bank", "Kotak Mahindra", "Kotak"}},
	{Code: "rbl", Names: []string{"RBL Bank", "RBL"}},
}

var cardSuffixes = longestFirst([]string{
	"Credit Card", "Debit Card", "Prepaid Card", "Forex Card", "Card",
	"Visa Signature", "Visa Infinite", "Visa",
	"Mastercard", "Master Card", "RuPay",
	"American Express", "Amex",
})

var bankAliases = func() []string {
	var names []string
	for _, b := range KnownBanks {
		names = append(names, b.Names...)
	}
	return longestFirst(names)
}()

func longestFirst(list []string) []string {
	result := append([]string(nil), list...)
	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i]) > len(result[j])
	})
	return result
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func cleanEdges(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
}

func stripPrefix(s string) string {
	for _, alias := range bankAliases {
		if len(s) < len(alias) || !strings.EqualFold(s[:len(alias)], alias) {
			continue
		}
		rest := s[len(alias):]
		if rest != "" {
			r, _ := utf8.DecodeRuneInString(rest)
			if isWordRune(r) {
				continue
			}
		}
		return rest
	}
	return s
}

func stripSuffix(s string) string {
	for _, suffix := range cardSuffixes {
		cut := len(s) - len(suffix)
		if cut < 0 || !strings.EqualFold(s[cut:], suffix) {
			continue
		}
		rest := s[:cut]
		if rest != "" {
			r, _ := utf8.DecodeLastRuneInString(rest)
			if isWordRune(r) {
				continue
			}
		}
		return rest
	}
	return s
}

// stripPrefixes removes leading bank aliases until none is left
func stripPrefixes(s string) string {
	for {
		next := cleanEdges(stripPrefix(s))
		if next == s {
			return s
		}
		s = next
	}
}

// NormalizeCardName strips leading bank aliases and trailing card type / network
// suffixes until nothing more can be stripped. A name made only of those words keeps
// its type words, e.g. "HDFC Bank Credit Card" -> "Credit Card", and a bare bank name
// is returned cleaned.
// normalize(normalize(x)) == normalize(x) for every x.
func NormalizeCardName(raw string) string {
	cleaned := cleanEdges(strings.Join(strings.Fields(raw), " "))

	name := cleaned
	for {
		next := cleanEdges(stripSuffix(cleanEdges(stripPrefix(name))))
		if next == name {
			break
		}
		name = next
	}

	if name != "" {
		return name
	}
	if rest := stripPrefixes(cleaned); rest != "" {
		return rest
	}
	return cleaned
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '_'
}

// CanonicalKey lowercases raw and collapses runs of spaces, hyphens and underscores
// into single spaces.
func CanonicalKey(raw string) string {
	s := cases.Lower(language.Und).String(norm.NFKC.String(raw))

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if isSeparator(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// DedupKey is the grouping key of a card inside one bank
func DedupKey(bankCode string, raw string) string {
	return bankCode + ":" + CanonicalKey(NormalizeCardName(raw))
}

// BrandCode derives the unique brand code of a free-text brand name, e.g. "HP Petrol" -> "hp_petrol"
func BrandCode(name string) string {
	return strings.ReplaceAll(CanonicalKey(name), " ", "_")
}
