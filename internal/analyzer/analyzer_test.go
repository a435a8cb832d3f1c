package analyzer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	return New(nil, Config{
		MaxKeywords:     5,
		EnableEntities:  true,
		EnableSentiment: true,
	})
}

func TestHashContentStable(t *testing.T) {
	a := HashContent("hello world")
	b := HashContent("hello world")
	if a != b {
		t.Error("identical content should hash identically")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
	if HashContent("hello world") == HashContent("hello world!") {
		t.Error("different content should hash differently")
	}
}

func TestAnalyzeCounts(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis, err := a.Analyze("Hello, wonderful world!", "mem:1", "user-1")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if analysis.WordCount != 3 {
		t.Errorf("WordCount = %d, want 3", analysis.WordCount)
	}
	if analysis.CharacterCount != len("Hello, wonderful world!") {
		t.Errorf("CharacterCount = %d, want %d", analysis.CharacterCount, len("Hello, wonderful world!"))
	}
	if analysis.RecordID != "mem:1" || analysis.UserID != "user-1" {
		t.Error("record and user IDs should pass through")
	}
}

func TestKeywordFrequencyOrdering(t *testing.T) {
	a := newTestAnalyzer(t)

	// alpha x3, bravo x2, charlie x1
	content := "alpha bravo alpha charlie bravo alpha"
	analysis, err := a.Analyze(content, "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(analysis.Keywords) != 3 {
		t.Fatalf("keywords = %v, want 3 entries", analysis.Keywords)
	}
	want := []string{"alpha", "bravo", "charlie"}
	for i, kw := range want {
		if analysis.Keywords[i] != kw {
			t.Errorf("Keywords[%d] = %s, want %s", i, analysis.Keywords[i], kw)
		}
	}
}

func TestKeywordTieBreakByFirstOccurrence(t *testing.T) {
	a := newTestAnalyzer(t)

	// zebra and apple both appear twice; zebra appears first.
	analysis, err := a.Analyze("zebra apple zebra apple", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(analysis.Keywords) != 2 || analysis.Keywords[0] != "zebra" {
		t.Errorf("Keywords = %v, want [zebra apple]", analysis.Keywords)
	}
}

func TestKeywordFiltersStopWordsAndShortTokens(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis, err := a.Analyze("the and for ab cd kubernetes", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(analysis.Keywords) != 1 || analysis.Keywords[0] != "kubernetes" {
		t.Errorf("Keywords = %v, want [kubernetes]", analysis.Keywords)
	}
}

func TestTopicThreshold(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "one technology keyword yields general",
			content: "wrote some software yesterday",
			want:    []string{"general"},
		},
		{
			name:    "two technology keywords yields technology",
			content: "wrote some software against the api yesterday",
			want:    []string{"technology"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := a.Analyze(tt.content, "mem:1", "")
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if len(analysis.Topics) != len(tt.want) {
				t.Fatalf("Topics = %v, want %v", analysis.Topics, tt.want)
			}
			for i := range tt.want {
				if analysis.Topics[i] != tt.want[i] {
					t.Errorf("Topics = %v, want %v", analysis.Topics, tt.want)
				}
			}
		})
	}
}

func TestTopicMultipleCategories(t *testing.T) {
	a := newTestAnalyzer(t)

	content := "deployed the api server code after the client meeting about quarterly revenue"
	analysis, err := a.Analyze(content, "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	found := map[string]bool{}
	for _, topic := range analysis.Topics {
		found[topic] = true
	}
	if !found["technology"] || !found["business"] {
		t.Errorf("Topics = %v, want technology and business", analysis.Topics)
	}
}

func TestEntityExtraction(t *testing.T) {
	a := newTestAnalyzer(t)

	content := "Email Sarah at sarah@example.com or call 555-123-4567, docs at https://docs.example.com/guide"
	analysis, err := a.Analyze(content, "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	wantSubstrings := []string{"sarah@example.com", "555-123-4567", "https://docs.example.com/guide", "Sarah"}
	for _, want := range wantSubstrings {
		found := false
		for _, e := range analysis.Entities {
			if e == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Entities = %v, missing %q", analysis.Entities, want)
		}
	}
}

func TestEntityDeduplication(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis, err := a.Analyze("ping a@b.co and a@b.co again", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	count := 0
	for _, e := range analysis.Entities {
		if e == "a@b.co" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("a@b.co appears %d times, want 1", count)
	}
}

func TestEntitiesDisabled(t *testing.T) {
	a := New(nil, Config{EnableSentiment: true})

	analysis, err := a.Analyze("email me at x@y.com", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.Entities) != 0 {
		t.Errorf("Entities = %v, want empty when disabled", analysis.Entities)
	}
}

func TestSentimentBounds(t *testing.T) {
	a := newTestAnalyzer(t)

	inputs := []string{
		"",
		"great great great great great",
		"terrible awful horrible bad worst",
		"neutral text about nothing in particular",
		strings.Repeat("amazing ", 50),
	}
	for _, content := range inputs {
		analysis, err := a.Analyze(content, "mem:1", "")
		if err != nil {
			t.Fatalf("Analyze(%q) error = %v", content, err)
		}
		if analysis.Sentiment < -1 || analysis.Sentiment > 1 {
			t.Errorf("Sentiment(%q) = %v, out of [-1, 1]", content, analysis.Sentiment)
		}
	}
}

func TestSentimentEmptyIsZero(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis, err := a.Analyze("", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Sentiment != 0 {
		t.Errorf("Sentiment = %v, want 0 for empty input", analysis.Sentiment)
	}
}

func TestSentimentPolarity(t *testing.T) {
	a := newTestAnalyzer(t)

	positive, err := a.Analyze("this release is great and amazing", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	negative, err := a.Analyze("this release is terrible and broken", "mem:2", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if positive.Sentiment <= 0 {
		t.Errorf("positive sentiment = %v, want > 0", positive.Sentiment)
	}
	if negative.Sentiment >= 0 {
		t.Errorf("negative sentiment = %v, want < 0", negative.Sentiment)
	}
}

func TestSentimentNegation(t *testing.T) {
	a := newTestAnalyzer(t)

	plain, err := a.Analyze("release was great", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	negated, err := a.Analyze("release was not great", "mem:2", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if plain.Sentiment <= 0 {
		t.Fatalf("plain sentiment = %v, want > 0", plain.Sentiment)
	}
	if negated.Sentiment >= 0 {
		t.Errorf("negated sentiment = %v, want < 0", negated.Sentiment)
	}
}

func TestSentimentIntensifier(t *testing.T) {
	a := newTestAnalyzer(t)

	plain, err := a.Analyze("one two three great", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	intensified, err := a.Analyze("one two really great", "mem:2", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if intensified.Sentiment <= plain.Sentiment {
		t.Errorf("intensified = %v, plain = %v, want intensified higher",
			intensified.Sentiment, plain.Sentiment)
	}
}

func TestLanguageDetection(t *testing.T) {
	a := newTestAnalyzer(t)

	english, err := a.Analyze("the cat sat on the mat and it was happy to be in the sun", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if english.Language != "en" {
		t.Errorf("Language = %s, want en", english.Language)
	}

	other, err := a.Analyze("lorem ipsum dolor sit amet consectetur adipiscing elit", "mem:2", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if other.Language != "unknown" {
		t.Errorf("Language = %s, want unknown", other.Language)
	}
}

func TestLexiconOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	content := `
topics:
  cooking:
    - recipe
    - oven
positive_words:
  - delightful
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon() error = %v", err)
	}

	a := New(lex, Config{EnableSentiment: true})

	analysis, err := a.Analyze("a delightful recipe from the oven", "mem:1", "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(analysis.Topics) != 1 || analysis.Topics[0] != "cooking" {
		t.Errorf("Topics = %v, want [cooking]", analysis.Topics)
	}
	if analysis.Sentiment <= 0 {
		t.Errorf("Sentiment = %v, want > 0 with overridden positive words", analysis.Sentiment)
	}

	// Defaults survive for sections the file omits.
	if !lex.StopWords["the"] {
		t.Error("default stop words should remain when not overridden")
	}
}

func TestLoadLexiconMissingFile(t *testing.T) {
	lex, err := LoadLexicon("/nonexistent/lexicon.yaml")
	if err != nil {
		t.Fatalf("LoadLexicon() error = %v", err)
	}
	if !lex.StopWords["the"] {
		t.Error("missing file should fall back to defaults")
	}
}
