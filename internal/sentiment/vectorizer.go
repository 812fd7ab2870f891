package sentiment

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

var nonLetters = regexp.MustCompile(`[^a-z\s]`)

// CleanText lowercases, strips everything but letters and whitespace,
// and collapses runs of whitespace.
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = nonLetters.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// tokenize emits unigrams and bigrams of the cleaned text
func tokenize(text string) []string {
	words := strings.Fields(CleanText(text))
	tokens := make([]string, 0, 2*len(words))
	for i, w := range words {
		tokens = append(tokens, w)
		if i+1 < len(words) {
			tokens = append(tokens, w+" "+words[i+1])
		}
	}
	return tokens
}

// Vectorizer maps text to TF-IDF vectors over a vocabulary of unigrams
// and bigrams capped at MaxFeatures terms by document frequency.
type Vectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// NewVectorizer creates an unfitted vectorizer
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Fit builds the vocabulary and inverse document frequencies
func (v *Vectorizer) Fit(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("vectorizer fit: no documents")
	}

	docFreq := make(map[string]int)
	for _, t := range texts {
		seen := make(map[string]bool)
		for _, tok := range tokenize(t) {
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	// Highest document frequency first, term text breaking ties so the
	// vocabulary is stable across runs.
	sort.Slice(terms, func(a, b int) bool {
		if docFreq[terms[a]] != docFreq[terms[b]] {
			return docFreq[terms[a]] > docFreq[terms[b]]
		}
		return terms[a] < terms[b]
	})
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}

	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return nil
}

// Transform converts texts to l2-normalized TF-IDF rows
func (v *Vectorizer) Transform(texts []string) ([][]float64, error) {
	if v.Vocabulary == nil {
		return nil, fmt.Errorf("vectorizer not fitted")
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		row := make([]float64, len(v.IDF))
		for _, tok := range tokenize(t) {
			if j, ok := v.Vocabulary[tok]; ok {
				row[j] += v.IDF[j]
			}
		}
		var norm float64
		for _, x := range row {
			norm += x * x
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range row {
				row[j] /= norm
			}
		}
		out[i] = row
	}
	return out, nil
}

// FitTransform fits the vocabulary and transforms in one pass
func (v *Vectorizer) FitTransform(texts []string) ([][]float64, error) {
	if err := v.Fit(texts); err != nil {
		return nil, err
	}
	return v.Transform(texts)
}
