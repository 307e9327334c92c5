package sources

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// minDetectableLength is the shortest text the gate tries to classify.
const minDetectableLength = 40

// baseLanguages are always loaded so the detector has something to compare
// the allowed languages against.
var baseLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
}

// LanguageGate drops listings whose description is confidently written in a
// language outside the allowed set. A nil gate allows everything.
type LanguageGate struct {
	detector lingua.LanguageDetector
	allowed  map[lingua.Language]struct{}
}

// NewLanguageGate builds a gate from ISO 639-1 codes such as "en". It returns
// nil when no codes are given.
func NewLanguageGate(codes []string) (*LanguageGate, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	allowed := make(map[lingua.Language]struct{}, len(codes))
	languages := append([]lingua.Language{}, baseLanguages...)
	for _, code := range codes {
		lang, ok := languageForCode(code)
		if !ok {
			return nil, fmt.Errorf("unknown language code %q", code)
		}
		allowed[lang] = struct{}{}
		languages = append(languages, lang)
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(uniqueLanguages(languages)...).
		Build()

	return &LanguageGate{detector: detector, allowed: allowed}, nil
}

// Allows reports whether text is in an allowed language. Short or
// unclassifiable text is allowed.
func (g *LanguageGate) Allows(text string) bool {
	if g == nil {
		return true
	}
	if len(strings.TrimSpace(text)) < minDetectableLength {
		return true
	}
	lang, ok := g.detector.DetectLanguageOf(text)
	if !ok {
		return true
	}
	_, allowed := g.allowed[lang]
	return allowed
}

func uniqueLanguages(languages []lingua.Language) []lingua.Language {
	seen := make(map[lingua.Language]struct{}, len(languages))
	out := make([]lingua.Language, 0, len(languages))
	for _, l := range languages {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func languageForCode(code string) (lingua.Language, bool) {
	code = strings.TrimSpace(code)
	for _, lang := range lingua.AllLanguages() {
		if strings.EqualFold(lang.IsoCode639_1().String(), code) {
			return lang, true
		}
	}
	return lingua.Unknown, false
}
