package matching

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/betbot/copybet/pkg/logger"
)

// Scoring weights. Empirically tuned in the reference system; keep them
// in lockstep with AcceptThreshold.
const (
	personBonus      = 30
	personVeto       = -200
	categoryBonus    = 50
	categoryPenalty  = -100
	yearBonus        = 20
	keywordBonus     = 3
	containmentBonus = 100

	// AcceptThreshold is the minimum top score for a match to be accepted.
	AcceptThreshold = 50
)

// Candidate is one open market on the exchange.
type Candidate struct {
	Ticker   string
	Title    string
	Subtitle string
}

// Result is the outcome of one match call. Ticker is empty when nothing
// scored at or above the threshold.
type Result struct {
	Ticker string
	Score  int
}

// Matcher scores free-text market descriptions against the cached open
// markets of the exchange. It is a lexical heuristic, not semantic search:
// both false negatives and false positives are expected, and downstream
// failure handling owns them.
type Matcher struct {
	cache *CandidateCache
	gaz   *Gazetteer
	log   *logrus.Entry
}

func NewMatcher(cache *CandidateCache, gaz *Gazetteer) *Matcher {
	return &Matcher{
		cache: cache,
		gaz:   gaz,
		log:   logger.WithField("component", "matcher"),
	}
}

// Match returns the best-matching exchange ticker for sourceText, or an
// empty Result when no candidate reaches the threshold. Candidate order
// breaks ties deterministically (stable sort over the fetched list).
func (m *Matcher) Match(ctx context.Context, sourceText string) Result {
	candidates := m.cache.Get(ctx)
	return m.MatchAgainst(sourceText, candidates)
}

// MatchAgainst is Match with an explicit candidate set, usable without a
// cache in tests.
func (m *Matcher) MatchAgainst(sourceText string, candidates []Candidate) Result {
	if len(candidates) == 0 {
		return Result{}
	}

	src := m.analyze(sourceText)
	normSrc := normalize(sourceText)

	type scored struct {
		idx   int
		score int
	}
	scores := make([]scored, len(candidates))
	for i, cand := range candidates {
		text := cand.Title + " " + cand.Subtitle + " " + cand.Ticker
		scores[i] = scored{idx: i, score: m.score(src, normSrc, text)}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	top := scores[0]
	if top.score < AcceptThreshold {
		m.log.WithFields(logrus.Fields{
			"source":   sourceText,
			"topScore": top.score,
		}).Debug("no candidate reached threshold")
		return Result{Score: top.score}
	}
	best := candidates[top.idx]
	m.log.WithFields(logrus.Fields{
		"source": sourceText,
		"ticker": best.Ticker,
		"score":  top.score,
	}).Debug("market matched")
	return Result{Ticker: best.Ticker, Score: top.score}
}

// analysis is the extracted lexical profile of one text.
type analysis struct {
	category Category
	people   map[string]bool
	years    map[string]bool
	keywords []string
}

var (
	yearRe  = regexp.MustCompile(`\b20[23]\d\b`)
	tokenRe = regexp.MustCompile(`[a-z0-9]+`)
	punctRe = regexp.MustCompile(`[^a-z0-9 ]+`)
)

func (m *Matcher) analyze(text string) analysis {
	lower := strings.ToLower(text)

	a := analysis{
		category: CategoryUnknown,
		people:   map[string]bool{},
		years:    map[string]bool{},
	}
	for _, cp := range m.gaz.Categories {
		if cp.Pattern.MatchString(lower) {
			a.category = cp.Category
			break
		}
	}
	for _, y := range yearRe.FindAllString(lower, -1) {
		a.years[y] = true
	}
	for _, tok := range tokenRe.FindAllString(lower, -1) {
		if m.gaz.People[tok] {
			a.people[tok] = true
			continue
		}
		if len(tok) <= 2 || m.gaz.Stopwords[tok] {
			continue
		}
		a.keywords = append(a.keywords, tok)
	}
	return a
}

// score computes the lexical score of one candidate against the analyzed
// source. The person veto is intentionally not floor-clamped: it has to
// push keyword-noise candidates far below the threshold.
func (m *Matcher) score(src analysis, normSrc, candText string) int {
	cand := m.analyze(candText)
	lowerCand := strings.ToLower(candText)

	score := 0

	matchedPerson := false
	for p := range src.people {
		if cand.people[p] {
			score += personBonus
			matchedPerson = true
		}
	}
	if len(src.people) > 0 && !matchedPerson {
		score += personVeto
	}

	switch {
	case src.category == CategoryUnknown || cand.category == CategoryUnknown:
		// no signal either way
	case src.category == cand.category:
		score += categoryBonus
	default:
		score += categoryPenalty
	}

	for y := range src.years {
		if cand.years[y] {
			score += yearBonus
		}
	}

	for _, kw := range src.keywords {
		if strings.Contains(lowerCand, kw) {
			score += keywordBonus
		}
	}

	if normSrc != "" && strings.Contains(normalize(candText), normSrc) {
		score += containmentBonus
	}

	return score
}

// normalize lower-cases and strips punctuation for whole-string
// containment checks.
func normalize(s string) string {
	lower := strings.ToLower(s)
	clean := punctRe.ReplaceAllString(lower, " ")
	return strings.Join(strings.Fields(clean), " ")
}
