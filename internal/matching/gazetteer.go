package matching

import "regexp"

// Category buckets for source/candidate texts. Ordered: the first pattern
// group that matches anywhere in the lower-cased text wins.
type Category string

const (
	CategoryLegal    Category = "legal"
	CategoryElection Category = "election_outcome"
	CategoryPolicy   Category = "policy_action"
	CategoryNumeric  Category = "numeric"
	CategoryEvent    Category = "event"
	CategoryUnknown  Category = "unknown"
)

// Gazetteer is the static lexical configuration of the matcher: category
// patterns, the people list and the stopword list. It is data, not control
// flow, so tests can substitute a smaller one.
type Gazetteer struct {
	Categories []CategoryPattern
	People     map[string]bool
	Stopwords  map[string]bool
}

// CategoryPattern pairs a category with its trigger regex.
type CategoryPattern struct {
	Category Category
	Pattern  *regexp.Regexp
}

// DefaultGazetteer returns the production tables. The weights and word
// lists are empirically tuned; changing them changes match behavior, so
// treat them like constants.
func DefaultGazetteer() *Gazetteer {
	return &Gazetteer{
		Categories: []CategoryPattern{
			{CategoryLegal, regexp.MustCompile(`convict|indict|guilty|sentenc|pardon|acquit|charge|trial|lawsuit|court|jail|prison`)},
			{CategoryElection, regexp.MustCompile(`\bwins?\b|\belection\b|elect|nomine|nomination|president|primary|ballot|senate race|governor`)},
			{CategoryPolicy, regexp.MustCompile(`\bsigns?\b|\bveto\b|\bpass(es)?\b|repeal|\bban\b|executive order|\bbill\b|tariff|regulat|shutdown|confirm`)},
			{CategoryNumeric, regexp.MustCompile(`\$\d|\d+(\.\d+)?%|\brate(s)?\b|\bprice\b|\bhit\b|\breach\b|\babove\b|\bbelow\b|\bexceed\b|\b\d{2,}k\b`)},
			{CategoryEvent, regexp.MustCompile(`\bhappen\b|\boccur\b|announce|launch|release|resign|step down|debate|meet(ing)?\b|\bstrike\b|ceasefire`)},
		},
		People: map[string]bool{
			"trump": true, "biden": true, "harris": true, "vance": true,
			"desantis": true, "newsom": true, "obama": true, "haley": true,
			"putin": true, "zelensky": true, "netanyahu": true, "xi": true,
			"musk": true, "powell": true, "mcconnell": true, "pelosi": true,
			"johnson": true, "schumer": true, "kennedy": true,
		},
		Stopwords: map[string]bool{
			"will": true, "the": true, "and": true, "for": true, "this": true,
			"that": true, "with": true, "are": true, "was": true, "were": true,
			"been": true, "have": true, "has": true, "had": true, "does": true,
			"did": true, "can": true, "could": true, "would": true, "should": true,
			"into": true, "from": true, "than": true, "then": true, "when": true,
			"what": true, "who": true, "how": true, "why": true, "where": true,
			"any": true, "all": true, "not": true, "but": true, "out": true,
			"before": true, "after": true, "during": true, "until": true,
			"get": true, "gets": true, "his": true, "her": true, "their": true,
		},
	}
}
