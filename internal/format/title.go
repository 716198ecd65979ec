package format

import (
	"regexp"
	"strings"
	"unicode"
)

// Title format types.
const (
	TitleCase    = "titlecase"
	SentenceCase = "sentencecase"
	Preserve     = "preserve"
)

var (
	wordPattern   = regexp.MustCompile(`[\w'-]+|[^\w\s]`)
	bracedPattern = regexp.MustCompile(`\{[^}]+\}`)
)

// Title formats a title according to the format type: Title Case,
// sentence case, or preserve (original case, protected words braced).
func (s *Styler) Title(title, formatType string) string {
	if strings.TrimSpace(title) == "" {
		return title
	}
	switch strings.ToLower(formatType) {
	case SentenceCase:
		return s.sentenceCase(title)
	case Preserve:
		return s.preserveCase(title)
	default:
		return s.titleCase(title)
	}
}

// titleCase capitalizes major words, lowercases small words, and wraps
// protected words and apparent acronyms in braces so LaTeX keeps their
// case. The first and last words are always capitalized.
func (s *Styler) titleCase(title string) string {
	clean := strings.NewReplacer("{", "", "}", "").Replace(title)
	words := wordPattern.FindAllString(clean, -1)

	formatted := make([]string, 0, len(words))
	for i, w := range words {
		if !isWordLike(w) {
			formatted = append(formatted, w)
			continue
		}

		switch {
		case s.isProtected(w):
			formatted = append(formatted, "{"+s.protectedForm(w)+"}")
		case isLikelyAcronym(w):
			formatted = append(formatted, "{"+w+"}")
		case i == 0 || i == len(words)-1:
			formatted = append(formatted, capitalize(w))
		case s.smallWords[strings.ToLower(w)]:
			formatted = append(formatted, strings.ToLower(w))
		default:
			formatted = append(formatted, capitalize(w))
		}
	}

	return joinWords(formatted)
}

// sentenceCase lowercases everything but the first word, sentence
// starts, and protected words.
func (s *Styler) sentenceCase(title string) string {
	clean := strings.NewReplacer("{", "", "}", "").Replace(title)
	words := wordPattern.FindAllString(clean, -1)

	formatted := make([]string, 0, len(words))
	startOfSentence := true
	for _, w := range words {
		if !isWordLike(w) {
			formatted = append(formatted, w)
			if w == "." || w == "!" || w == "?" {
				startOfSentence = true
			}
			continue
		}

		switch {
		case s.isProtected(w):
			formatted = append(formatted, "{"+s.protectedForm(w)+"}")
		case isLikelyAcronym(w):
			formatted = append(formatted, "{"+w+"}")
		case startOfSentence:
			formatted = append(formatted, capitalize(w))
		default:
			formatted = append(formatted, strings.ToLower(w))
		}
		startOfSentence = false
	}

	return joinWords(formatted)
}

// preserveCase keeps the original casing, only adding braces around
// protected words. Titles that already use braces pass through.
func (s *Styler) preserveCase(title string) string {
	if strings.Contains(title, "{") {
		return title
	}
	result := title
	for _, w := range s.protectedByLength() {
		re, err := wholeWord(w)
		if err != nil {
			continue
		}
		result = re.ReplaceAllString(result, "{$1}")
	}
	return result
}

func (s *Styler) isProtected(word string) bool {
	_, ok := s.protected[strings.ToLower(word)]
	return ok
}

// protectedForm returns the canonical casing of a protected word.
func (s *Styler) protectedForm(word string) string {
	if canonical, ok := s.protected[strings.ToLower(word)]; ok {
		return canonical
	}
	return word
}

func wholeWord(w string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)\b(` + regexp.QuoteMeta(w) + `)\b`)
}

// isLikelyAcronym flags short all-caps tokens and mixed-case tokens with
// at least two capitals, like IoT or LoRa.
func isLikelyAcronym(word string) bool {
	if len(word) >= 2 && len(word) <= 6 && word == strings.ToUpper(word) && strings.ContainsFunc(word, unicode.IsLetter) {
		return true
	}
	if len(word) >= 2 && unicode.IsUpper(rune(word[0])) {
		caps := 0
		for _, r := range word {
			if unicode.IsUpper(r) {
				caps++
			}
		}
		return caps >= 2
	}
	return false
}

func isWordLike(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func capitalize(w string) string {
	runes := []rune(strings.ToLower(w))
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(runes)
}

// joinWords reassembles tokens, omitting the space before closing
// punctuation and after opening brackets.
func joinWords(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		if isClosingPunct(w) || isOpeningBracket(words[i-1]) {
			b.WriteString(w)
			continue
		}
		b.WriteString(" ")
		b.WriteString(w)
	}
	return b.String()
}

func isClosingPunct(w string) bool {
	return len(w) == 1 && strings.ContainsAny(w, ",:;.!?)]'\"")
}

func isOpeningBracket(w string) bool {
	return len(w) == 1 && strings.ContainsAny(w, "([\"'")
}
