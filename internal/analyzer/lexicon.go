package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the word tables the analyzer consults. The tables are built
// once at startup and never mutated afterward, so the analyzer can share one
// Lexicon across goroutines without locking.
type Lexicon struct {
	// StopWords are excluded from keyword extraction.
	StopWords map[string]bool

	// Topics maps category name to the keyword list matched by substring
	// against lower-cased content.
	Topics map[string][]string

	// PositiveWords and NegativeWords score sentiment.
	PositiveWords map[string]bool
	NegativeWords map[string]bool

	// Negators flip the sign of the next scored word.
	Negators map[string]bool

	// Intensifiers raise the weight of the next scored word to 1.5.
	Intensifiers map[string]bool

	// CommonEnglish drives the language detection ratio.
	CommonEnglish map[string]bool

	// SentenceStarters are capitalized words excluded from proper-noun
	// entity candidates.
	SentenceStarters map[string]bool
}

// lexiconFile is the YAML shape for overriding lexicon tables. Omitted
// sections keep their defaults.
type lexiconFile struct {
	StopWords        []string            `yaml:"stop_words"`
	Topics           map[string][]string `yaml:"topics"`
	PositiveWords    []string            `yaml:"positive_words"`
	NegativeWords    []string            `yaml:"negative_words"`
	Negators         []string            `yaml:"negators"`
	Intensifiers     []string            `yaml:"intensifiers"`
	CommonEnglish    []string            `yaml:"common_english"`
	SentenceStarters []string            `yaml:"sentence_starters"`
}

// DefaultLexicon returns the built-in English tables.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		StopWords: wordSet(
			"the", "and", "for", "are", "but", "not", "you", "all", "can",
			"had", "her", "was", "one", "our", "out", "day", "get", "has",
			"him", "his", "how", "man", "new", "now", "old", "see", "two",
			"way", "who", "boy", "did", "its", "let", "put", "say", "she",
			"too", "use", "that", "with", "have", "this", "will", "your",
			"from", "they", "know", "want", "been", "good", "much", "some",
			"time", "very", "when", "come", "here", "just", "like", "long",
			"make", "many", "over", "such", "take", "than", "them", "well",
			"were", "what", "into", "also", "more", "other", "about", "which",
		),
		Topics: map[string][]string{
			"technology": {
				"software", "code", "programming", "api", "database", "server",
				"cloud", "algorithm", "computer", "app", "deploy", "framework",
				"bug", "debug", "frontend", "backend", "devops", "docker",
			},
			"business": {
				"meeting", "client", "revenue", "sales", "market", "strategy",
				"budget", "customer", "product", "launch", "deal", "contract",
				"invoice", "quarterly", "stakeholder",
			},
			"research": {
				"study", "experiment", "hypothesis", "data", "analysis", "paper",
				"findings", "survey", "method", "results", "evidence", "literature",
			},
			"personal": {
				"family", "friend", "birthday", "vacation", "hobby", "weekend",
				"dinner", "home", "relationship", "feeling", "memory",
			},
			"education": {
				"course", "learn", "study", "lecture", "exam", "homework",
				"teacher", "student", "school", "university", "tutorial", "lesson",
			},
			"health": {
				"exercise", "diet", "sleep", "doctor", "medicine", "workout",
				"symptom", "therapy", "stress", "fitness", "nutrition",
			},
			"finance": {
				"money", "invest", "stock", "savings", "loan", "interest",
				"tax", "debt", "portfolio", "payment", "bank", "expense",
			},
		},
		PositiveWords: wordSet(
			"good", "great", "excellent", "amazing", "wonderful", "fantastic",
			"love", "happy", "best", "awesome", "perfect", "success", "win",
			"improved", "beautiful", "helpful", "positive", "nice", "enjoy",
		),
		NegativeWords: wordSet(
			"bad", "terrible", "awful", "horrible", "hate", "worst", "fail",
			"failure", "broken", "wrong", "poor", "sad", "angry", "problem",
			"negative", "ugly", "painful", "difficult", "annoying",
		),
		Negators: wordSet(
			"not", "no", "never", "neither", "nobody", "none", "cannot",
			"dont", "doesnt", "didnt", "wont", "isnt", "wasnt",
		),
		Intensifiers: wordSet(
			"very", "really", "extremely", "incredibly", "absolutely",
			"totally", "completely", "highly", "so",
		),
		CommonEnglish: wordSet(
			"the", "be", "to", "of", "and", "a", "in", "that", "have",
			"it", "for", "not", "on", "with", "he", "as", "you", "do",
		),
		SentenceStarters: wordSet(
			"the", "a", "an", "this", "that", "these", "those", "it",
			"he", "she", "they", "we", "i", "you", "my", "our", "his",
			"her", "its", "their", "there", "here", "when", "where",
			"what", "who", "how", "why", "if", "but", "and", "or", "so",
		),
	}
}

// LoadLexicon reads YAML overrides from path and merges them over the
// defaults. A missing path returns the defaults unchanged.
func LoadLexicon(path string) (*Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lex, nil
		}
		return nil, fmt.Errorf("analyzer: failed to read lexicon file: %w", err)
	}

	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("analyzer: failed to parse lexicon file: %w", err)
	}

	if len(file.StopWords) > 0 {
		lex.StopWords = wordSet(file.StopWords...)
	}
	if len(file.Topics) > 0 {
		lex.Topics = file.Topics
	}
	if len(file.PositiveWords) > 0 {
		lex.PositiveWords = wordSet(file.PositiveWords...)
	}
	if len(file.NegativeWords) > 0 {
		lex.NegativeWords = wordSet(file.NegativeWords...)
	}
	if len(file.Negators) > 0 {
		lex.Negators = wordSet(file.Negators...)
	}
	if len(file.Intensifiers) > 0 {
		lex.Intensifiers = wordSet(file.Intensifiers...)
	}
	if len(file.CommonEnglish) > 0 {
		lex.CommonEnglish = wordSet(file.CommonEnglish...)
	}
	if len(file.SentenceStarters) > 0 {
		lex.SentenceStarters = wordSet(file.SentenceStarters...)
	}

	return lex, nil
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
