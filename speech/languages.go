package speech

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// LanguageSet is an immutable set of supported language codes. The zero
// value is an empty set. It is safe for concurrent use.
type LanguageSet struct {
	names map[string]string
	codes []string
}

// NewLanguageSet copies languages into a new set. Blank codes are skipped;
// a blank name falls back to the code.
func NewLanguageSet(languages map[string]string) LanguageSet {
	names := make(map[string]string, len(languages))
	codes := make([]string, 0, len(languages))
	for code, name := range languages {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, dup := names[code]; dup {
			continue
		}
		if strings.TrimSpace(name) == "" {
			name = code
		}
		names[code] = name
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return LanguageSet{names: names, codes: codes}
}

// LoadLanguageSet queries the provider capability list once.
func LoadLanguageSet(ctx context.Context, p Provider) (LanguageSet, error) {
	languages, err := p.Languages(ctx)
	if err != nil {
		return LanguageSet{}, fmt.Errorf("list %s languages: %w", p.Name(), err)
	}
	set := NewLanguageSet(languages)
	if set.Len() == 0 {
		return LanguageSet{}, fmt.Errorf("provider %s reported no languages", p.Name())
	}
	return set, nil
}

// Contains reports whether code is supported. Matching is exact, as in
// the provider's own table ("zh-CN" is not "zh-cn").
func (s LanguageSet) Contains(code string) bool {
	_, ok := s.names[code]
	return ok
}

// Name returns the human-readable name of code.
func (s LanguageSet) Name(code string) (string, bool) {
	name, ok := s.names[code]
	return name, ok
}

// Len returns the number of supported languages.
func (s LanguageSet) Len() int {
	return len(s.codes)
}

// Codes returns the sorted language codes.
func (s LanguageSet) Codes() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// Languages returns the set sorted by code.
func (s LanguageSet) Languages() []Language {
	out := make([]Language, len(s.codes))
	for i, code := range s.codes {
		out[i] = Language{Code: code, Name: s.names[code]}
	}
	return out
}
