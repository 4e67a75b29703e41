package analysis

import (
	"strings"
)

// Field is one column of the canonical sales schema.
type Field string

const (
	FieldDate     Field = "date"
	FieldAmount   Field = "sales_amount"
	FieldQuantity Field = "quantity"
	FieldCategory Field = "category"
	FieldProduct  Field = "product"
	FieldRegion   Field = "region"
)

// Rule binds a canonical field to the header words that identify it. Synonyms
// also match inside longer headers; Exact words only match a whole word.
type Rule struct {
	Field    Field
	Synonyms []string
	Exact    []string
}

// CanonicalRules is scanned top to bottom. Category is checked before product so
// that headers like "productcategory" land on category.
var CanonicalRules = []Rule{
	{Field: FieldDate, Synonyms: []string{"date", "datetime", "timestamp", "period"}, Exact: []string{"day"}},
	{Field: FieldAmount, Synonyms: []string{"sales_amount", "amount", "revenue", "total_sales", "sales", "turnover", "price", "value", "total", "income"}},
	{Field: FieldQuantity, Synonyms: []string{"quantity", "qty", "units", "unit", "orders", "volume", "pieces", "pcs"}},
	{Field: FieldCategory, Synonyms: []string{"category", "categ", "segment", "type", "class", "group", "department", "dept", "family"}},
	{Field: FieldProduct, Synonyms: []string{"product", "item", "sku", "goods", "article", "model", "title"}},
	{Field: FieldRegion, Synonyms: []string{"region", "location", "market", "area", "territory", "country", "state", "city", "zone", "store", "branch"}},
}

// NormalizeHeader lower-cases and trims h, turns spaces into underscores and drops
// anything outside [a-z0-9_].
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the canonical field for a raw header. Whole words are tried
// first, last word first, since the trailing word names the column ("Sales
// Region" is a region, "Total Units" a quantity). Headers with no matching word
// fall back to a substring scan in rule order.
func Resolve(header string) (Field, bool) {
	n := NormalizeHeader(header)
	if n == "" {
		return "", false
	}
	words := strings.FieldsFunc(n, func(r rune) bool { return r == '_' })
	for i := len(words) - 1; i >= 0; i-- {
		if f, ok := matchWord(words[i]); ok {
			return f, true
		}
	}
	for _, rule := range CanonicalRules {
		for _, syn := range rule.Synonyms {
			if strings.Contains(n, syn) {
				return rule.Field, true
			}
		}
	}
	return "", false
}

func matchWord(w string) (Field, bool) {
	for _, rule := range CanonicalRules {
		for _, syn := range rule.Synonyms {
			if w == syn {
				return rule.Field, true
			}
		}
		for _, syn := range rule.Exact {
			if w == syn {
				return rule.Field, true
			}
		}
	}
	return "", false
}

// Mapping is the result of resolving a header row.
type Mapping struct {
	// Columns maps each non-date field to the raw header that supplies it.
	Columns map[Field]string
	// DateCandidates lists every header resolved to the date field, in file order.
	DateCandidates []string
	// Dropped lists headers that were unmapped or lost to an earlier header.
	Dropped []string
}

// Has reports whether a non-date field is supplied by some header.
func (m Mapping) Has(f Field) bool {
	_, ok := m.Columns[f]
	return ok
}

// ResolveHeaders maps a header row onto the canonical schema. Each header is
// assigned at most one field and each non-date field keeps the first header that
// claims it.
func ResolveHeaders(headers []string) Mapping {
	m := Mapping{Columns: map[Field]string{}}
	for _, h := range headers {
		f, ok := Resolve(h)
		switch {
		case !ok:
			m.Dropped = append(m.Dropped, h)
		case f == FieldDate:
			m.DateCandidates = append(m.DateCandidates, h)
		case m.Has(f):
			m.Dropped = append(m.Dropped, h)
		default:
			m.Columns[f] = h
		}
	}
	return m
}
