package pipeline

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/adverant/nexus/docextract/internal/clients"
	"github.com/adverant/nexus/docextract/internal/logging"
)

// Entity categories
const (
	CategoryPerson       = "person"
	CategoryOrganization = "organization"
	CategoryLocation     = "location"
	CategoryDate         = "date"
	CategoryMoney        = "money"
	CategoryProduct      = "product"
	CategoryQuantity     = "quantity"
	CategoryEmail        = "email"
	CategoryPhone        = "phone"
	CategoryAddress      = "address"
)

// tagger labels and the category they land in
var labelCategories = map[string]string{
	"PERSON":       CategoryPerson,
	"PER":          CategoryPerson,
	"ORG":          CategoryOrganization,
	"ORGANIZATION": CategoryOrganization,
	"GPE":          CategoryLocation,
	"LOC":          CategoryLocation,
	"LOCATION":     CategoryLocation,
	"DATE":         CategoryDate,
	"TIME":         CategoryDate,
	"MONEY":        CategoryMoney,
	"PRODUCT":      CategoryProduct,
	"QUANTITY":     CategoryQuantity,
	"CARDINAL":     CategoryQuantity,
}

// CategoryForLabel maps a tagger label to its entity category
func CategoryForLabel(label string) (string, bool) {
	c, ok := labelCategories[strings.ToUpper(label)]
	return c, ok
}

// EntityMap is category -> values in discovery order. Empty categories are
// never stored.
type EntityMap map[string][]string

// Add appends value to category, ignoring empty values
func (m EntityMap) Add(category, value string) {
	if value == "" {
		return
	}
	m[category] = append(m[category], value)
}

// ContainsFold reports whether category holds value, ignoring case
func (m EntityMap) ContainsFold(category, value string) bool {
	for _, v := range m[category] {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// Tagger finds named-entity spans in text
type Tagger interface {
	Tag(ctx context.Context, text string) (*clients.TagResponse, error)
}

var (
	emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}\s?)?(?:\(\d+\)|\d+)[-\s\d]{8,}`)

	addressPattern = regexp.MustCompile(`(?i)^.*(?:` + strings.Join([]string{
		// streets and roads
		`(?:road|rd|street|st|avenue|ave|boulevard|blvd|drive|dr|lane|ln|way)`,
		// buildings and units
		`(?:building|bldg|floor|fl|suite|ste|unit|apt|apartment|room|rm)`,
		// postal codes
		`(?:postal|zip|pin)\s*code`,
		// unit numbers such as #04-12
		`#\d+[-\d]*`,
	}, "|") + `).*`)

	// applied in order; later patterns only add names not seen yet
	organizationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:ltd|limited|llc|inc|incorporated|corp|corporation)`),
		regexp.MustCompile(`(?i)(?:sales|support|billing|shipping)\s+(?:department|division|unit)`),
		regexp.MustCompile(`(?i)(?:store|shop|mall|market|enterprise|company)`),
		// all-caps brands: SAMSUNG, APPLE INC, IBM
		regexp.MustCompile(`(?:[A-Z][A-Z0-9]+(?:\s+[A-Z0-9]+)*)`),
	}

	organizationStopWords = map[string]bool{
		"the": true, "a": true, "an": true, "and": true,
		"or": true, "of": true, "to": true, "for": true,
	}
)

const minPhoneDigits = 8

// EntityExtractor combines a statistical tagger with regex rules
type EntityExtractor struct {
	tagger Tagger
	logger *logging.Logger
}

// NewEntityExtractor creates an extractor. tagger may be nil, in which case
// only the regex rules run.
func NewEntityExtractor(tagger Tagger) *EntityExtractor {
	return &EntityExtractor{
		tagger: tagger,
		logger: logging.NewLogger("EntityExtractor"),
	}
}

// Extract returns the entities found in text
func (x *EntityExtractor) Extract(ctx context.Context, text string) EntityMap {
	entities := EntityMap{}

	x.addTagged(ctx, text, entities)
	addOrganizations(text, entities)
	addPhones(text, entities)
	addLines(text, entities)

	return entities
}

func (x *EntityExtractor) addTagged(ctx context.Context, text string, entities EntityMap) {
	if x.tagger == nil {
		return
	}
	resp, err := x.tagger.Tag(ctx, text)
	if err != nil {
		x.logger.Warn("Tagger failed, continuing with rules only", "error", err)
		return
	}
	for _, span := range resp.Ents {
		category, ok := CategoryForLabel(span.Label)
		if !ok {
			continue
		}
		switch category {
		case CategoryPerson, CategoryOrganization, CategoryLocation:
			entities.Add(category, span.Text)
		}
	}
}

func addOrganizations(text string, entities EntityMap) {
	for _, pattern := range organizationPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			name := normalizeOrganization(match)
			if name == "" || entities.ContainsFold(CategoryOrganization, name) {
				continue
			}
			entities.Add(CategoryOrganization, name)
		}
	}
}

// normalizeOrganization drops stop words and title-cases names that are not
// written entirely in capitals.
func normalizeOrganization(match string) string {
	var kept []string
	for _, w := range strings.Fields(match) {
		if !organizationStopWords[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	name := strings.Join(kept, " ")
	if !isUpper(name) {
		name = titleCase(name)
	}
	return name
}

func addPhones(text string, entities EntityMap) {
	for _, match := range phonePattern.FindAllString(text, -1) {
		digits := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return -1
		}, match)
		if len([]rune(digits)) >= minPhoneDigits {
			entities.Add(CategoryPhone, digits)
		}
	}
}

func addLines(text string, entities EntityMap) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case emailPattern.MatchString(line):
			entities.Add(CategoryEmail, line)
		case addressPattern.MatchString(line):
			entities.Add(CategoryAddress, line)
		}
	}
}
