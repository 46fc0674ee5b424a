// Package dataset turns raw heterogeneous records into a canonical labeled
// dataset: a list of cleaned examples plus a binary label matrix over a
// fixed, ordered emotion vocabulary. It also owns the stratified splitter
// and the class-weight computation that downstream training depends on.
package dataset

import (
	"fmt"
	"strings"
)

// Vocabulary is the ordered set of emotion labels. Order defines the index
// mapping shared by the label matrix, the classifier logits and the
// threshold vector, and must never change once a model is trained.
type Vocabulary struct {
	names   []string
	index   map[string]int
	aliases map[string]string
}

// NewVocabulary builds a vocabulary from ordered label names and an alias
// table mapping spelling variants to canonical entries. Alias keys are
// matched after lower-casing and trimming.
func NewVocabulary(names []string, aliases map[string]string) (*Vocabulary, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("vocabulary requires at least one emotion")
	}

	v := &Vocabulary{
		names:   make([]string, len(names)),
		index:   make(map[string]int, len(names)),
		aliases: make(map[string]string, len(aliases)),
	}
	for i, name := range names {
		canon := canonicalize(name)
		if canon == "" {
			return nil, fmt.Errorf("empty emotion name at position %d", i)
		}
		if _, dup := v.index[canon]; dup {
			return nil, fmt.Errorf("duplicate emotion %q", canon)
		}
		v.names[i] = canon
		v.index[canon] = i
	}
	for alias, canon := range aliases {
		v.aliases[canonicalize(alias)] = canonicalize(canon)
	}
	return v, nil
}

func canonicalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Normalize maps a raw emotion name to its canonical spelling: lower-cased,
// trimmed, and resolved through the alias table. Idempotent: normalizing an
// already-canonical name returns it unchanged.
func (v *Vocabulary) Normalize(name string) string {
	canon := canonicalize(name)
	if mapped, ok := v.aliases[canon]; ok {
		return mapped
	}
	return canon
}

// Index returns the column position of a (raw or canonical) emotion name,
// or false if the name is outside the vocabulary.
func (v *Vocabulary) Index(name string) (int, bool) {
	i, ok := v.index[v.Normalize(name)]
	return i, ok
}

// Names returns the ordered label names. The caller must not mutate the
// returned slice.
func (v *Vocabulary) Names() []string {
	return v.names
}

// Len returns the number of labels.
func (v *Vocabulary) Len() int {
	return len(v.names)
}
