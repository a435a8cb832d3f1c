// Package analyzer turns raw memory content into a structured analysis:
// content hash, keywords, topics, entities, sentiment, and language. All
// work is pure string processing with no external I/O.
package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/recallhq/recall/pkg/types"
)

// Sub-step names reported in ContentAnalysis.Degraded.
const (
	StepKeywords  = "keywords"
	StepTopics    = "topics"
	StepEntities  = "entities"
	StepSentiment = "sentiment"
	StepLanguage  = "language"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	urlPattern   = regexp.MustCompile(`https?://[^\s]+`)
	phonePattern = regexp.MustCompile(`\d{3}[-.]?\d{3}[-.]?\d{4}`)
	nounPattern  = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

// AnalysisError reports a failure at the hash or tokenize stage, which
// aborts the whole analysis. Sub-step failures degrade instead.
type AnalysisError struct {
	RecordID string
	Stage    string
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyzer: %s failed for record %s: %v", e.Stage, e.RecordID, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Config controls optional analysis steps.
type Config struct {
	// MaxKeywords is the keyword list cap. Default: 10.
	MaxKeywords int

	// EnableEntities turns on regex entity extraction.
	EnableEntities bool

	// EnableSentiment turns on sentiment scoring.
	EnableSentiment bool
}

// Analyzer performs content analysis using an immutable lexicon.
type Analyzer struct {
	lexicon *Lexicon
	config  Config
}

// New creates an analyzer. A nil lexicon uses the built-in defaults.
func New(lexicon *Lexicon, config Config) *Analyzer {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	if config.MaxKeywords < 1 {
		config.MaxKeywords = 10
	}
	return &Analyzer{lexicon: lexicon, config: config}
}

// HashContent computes the SHA-256 hex digest of content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Analyze runs the full pipeline over content. Sub-step failures are
// recorded in the Degraded list with neutral defaults for the failed step;
// only hash or tokenize failures return an error.
func (a *Analyzer) Analyze(content, recordID, userID string) (*types.ContentAnalysis, error) {
	analysis := &types.ContentAnalysis{
		RecordID:       recordID,
		UserID:         userID,
		ContentHash:    HashContent(content),
		CharacterCount: len(content),
		Keywords:       []string{},
		Topics:         []string{"general"},
		Entities:       []string{},
		Language:       "unknown",
	}

	tokens, err := a.tokenize(content)
	if err != nil {
		return nil, &AnalysisError{RecordID: recordID, Stage: "tokenize", Err: err}
	}
	analysis.WordCount = len(tokens)

	a.step(analysis, StepKeywords, func() {
		analysis.Keywords = a.extractKeywords(tokens)
	})
	a.step(analysis, StepTopics, func() {
		analysis.Topics = a.classifyTopics(content)
	})
	if a.config.EnableEntities {
		a.step(analysis, StepEntities, func() {
			analysis.Entities = a.extractEntities(content)
		})
	}
	if a.config.EnableSentiment {
		a.step(analysis, StepSentiment, func() {
			analysis.Sentiment = a.scoreSentiment(tokens)
		})
	}
	a.step(analysis, StepLanguage, func() {
		analysis.Language = a.detectLanguage(tokens)
	})

	return analysis, nil
}

// step runs a sub-step, converting a panic into a degraded marker so one
// failing step never aborts the rest of the analysis.
func (a *Analyzer) step(analysis *types.ContentAnalysis, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			analysis.Degraded = append(analysis.Degraded, name)
		}
	}()
	fn()
}

// tokenize lowercases content, strips punctuation, and splits on
// whitespace.
func (a *Analyzer) tokenize(content string) ([]string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, content)
	return strings.Fields(cleaned), nil
}

// extractKeywords returns the most frequent non-stop-word tokens longer
// than 2 characters. Frequency ties break by first occurrence in the text.
func (a *Analyzer) extractKeywords(tokens []string) []string {
	counts := map[string]int{}
	firstSeen := map[string]int{}

	for i, tok := range tokens {
		if len(tok) <= 2 || a.lexicon.StopWords[tok] {
			continue
		}
		if _, ok := counts[tok]; !ok {
			firstSeen[tok] = i
		}
		counts[tok]++
	}

	keywords := make([]string, 0, len(counts))
	for tok := range counts {
		keywords = append(keywords, tok)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return firstSeen[keywords[i]] < firstSeen[keywords[j]]
	})

	if len(keywords) > a.config.MaxKeywords {
		keywords = keywords[:a.config.MaxKeywords]
	}
	return keywords
}

// classifyTopics assigns every category with at least 2 distinct keyword
// substring matches in the lower-cased content, or ["general"] when none
// qualify. Categories are emitted in sorted order for stable output.
func (a *Analyzer) classifyTopics(content string) []string {
	lower := strings.ToLower(content)

	topics := []string{}
	for category, words := range a.lexicon.Topics {
		distinct := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				distinct++
				if distinct >= 2 {
					break
				}
			}
		}
		if distinct >= 2 {
			topics = append(topics, category)
		}
	}

	if len(topics) == 0 {
		return []string{"general"}
	}
	sort.Strings(topics)
	return topics
}

// extractEntities collects emails, URLs, US phone numbers, and capitalized
// proper-noun candidates, deduplicated.
func (a *Analyzer) extractEntities(content string) []string {
	seen := map[string]bool{}
	entities := []string{}

	add := func(values []string) {
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				entities = append(entities, v)
			}
		}
	}

	add(emailPattern.FindAllString(content, -1))
	add(urlPattern.FindAllString(content, -1))
	add(phonePattern.FindAllString(content, -1))

	nouns := []string{}
	for _, candidate := range nounPattern.FindAllString(content, -1) {
		if a.lexicon.SentenceStarters[strings.ToLower(candidate)] {
			continue
		}
		nouns = append(nouns, candidate)
		if len(nouns) >= 10 {
			break
		}
	}
	add(nouns)

	return entities
}

// scoreSentiment makes a single pass over tokens with a negation flag and
// an intensity multiplier, then normalizes by wordCount x 1.5 and clamps to
// [-1, 1].
func (a *Analyzer) scoreSentiment(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	var score float64
	negated := false
	intensity := 1.0

	for _, tok := range tokens {
		switch {
		case a.lexicon.Negators[tok]:
			negated = true
		case a.lexicon.Intensifiers[tok]:
			intensity = 1.5
		case a.lexicon.PositiveWords[tok]:
			if negated {
				score -= intensity
			} else {
				score += intensity
			}
			negated = false
			intensity = 1.0
		case a.lexicon.NegativeWords[tok]:
			if negated {
				score += intensity
			} else {
				score -= intensity
			}
			negated = false
			intensity = 1.0
		}
	}

	normalized := score / (float64(len(tokens)) * 1.5)
	if normalized > 1 {
		return 1
	}
	if normalized < -1 {
		return -1
	}
	return normalized
}

// detectLanguage returns "en" when more than 10% of tokens are common
// English words.
func (a *Analyzer) detectLanguage(tokens []string) string {
	if len(tokens) == 0 {
		return "unknown"
	}

	hits := 0
	for _, tok := range tokens {
		if a.lexicon.CommonEnglish[tok] {
			hits++
		}
	}
	if float64(hits)/float64(len(tokens)) > 0.10 {
		return "en"
	}
	return "unknown"
}
