// internal/matching/tfidf.go
package matching

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	BackendTFIDF = "tfidf"

	DefaultMaxFeatures = 1000
)

// TFIDFEngine is the lexical backend: unigram+bigram TF-IDF vectors fitted jointly over the
// query and its candidates, compared by cosine. It holds no fitted state between calls.
type TFIDFEngine struct {
	maxFeatures int
}

func NewTFIDFEngine(maxFeatures int) *TFIDFEngine {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TFIDFEngine{maxFeatures: maxFeatures}
}

func (e *TFIDFEngine) Name() string { return BackendTFIDF }

func (e *TFIDFEngine) Similarities(_ context.Context, query string, candidates []string) ([]float64, error) {
	scores := zeroScores(len(candidates))
	if len(candidates) == 0 || isBlank(query) {
		return scores, nil
	}

	docs := make([][]string, 0, len(candidates)+1)
	docs = append(docs, analyze(query))
	for _, c := range candidates {
		docs = append(docs, analyze(c))
	}

	vocab := e.fitVocabulary(docs)
	if len(vocab) == 0 {
		return scores, ErrEmptyVocabulary
	}
	idf := inverseDocumentFrequency(docs, vocab)

	queryVec := vectorize(docs[0], vocab, idf)
	for i, c := range candidates {
		if isBlank(c) {
			continue
		}
		scores[i] = clamp01(cosine(queryVec, vectorize(docs[i+1], vocab, idf)))
	}
	return scores, nil
}

// fitVocabulary keeps the maxFeatures terms with the highest corpus frequency,
// ties broken alphabetically so the fit is deterministic.
func (e *TFIDFEngine) fitVocabulary(docs [][]string) map[string]int {
	freq := make(map[string]int)
	for _, doc := range docs {
		for _, term := range doc {
			freq[term]++
		}
	}
	if len(freq) == 0 {
		return nil
	}

	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > e.maxFeatures {
		terms = terms[:e.maxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}

// inverseDocumentFrequency uses the smoothed form ln((1+n)/(1+df)) + 1.
func inverseDocumentFrequency(docs [][]string, vocab map[string]int) []float64 {
	df := make([]float64, len(vocab))
	for _, doc := range docs {
		seen := make(map[int]struct{})
		for _, term := range doc {
			if idx, ok := vocab[term]; ok {
				if _, dup := seen[idx]; !dup {
					seen[idx] = struct{}{}
					df[idx]++
				}
			}
		}
	}
	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i := range idf {
		idf[i] = math.Log((1+n)/(1+df[i])) + 1
	}
	return idf
}

// vectorize returns the raw-count tf * idf vector; cosine takes care of normalisation.
func vectorize(doc []string, vocab map[string]int, idf []float64) []float64 {
	vec := make([]float64, len(vocab))
	for _, term := range doc {
		if idx, ok := vocab[term]; ok {
			vec[idx]++
		}
	}
	for i := range vec {
		vec[i] *= idf[i]
	}
	return vec
}

// analyze lowercases, tokenizes into runs of two or more word characters, removes stop
// words and emits unigrams followed by bigrams of the remaining tokens.
func analyze(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}

	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
