package normalize

import (
	"strings"
	"unicode"
)

// noiseTokens are removed from bracketed groups and dash suffixes.
var noiseTokens = map[string]struct{}{
	"4k":         {},
	"audio":      {},
	"hd":         {},
	"hq":         {},
	"karaoke":    {},
	"lyric":      {},
	"lyrics":     {},
	"music":      {},
	"mv":         {},
	"official":   {},
	"remastered": {},
	"video":      {},
	"visualizer": {},
}

// Each pass only removes text, so the loop settles quickly.
const maxCleanPasses = 16

// CleanTitle strips bracketed noise such as "[Official Audio]" and collapses
// the leftovers. It never returns an empty string for non-empty input and
// CleanTitle(CleanTitle(x)) == CleanTitle(x).
func CleanTitle(title string) string {
	original := collapseSpaces(title)
	current := original
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanOnce(current)
		if next == current {
			break
		}
		current = next
	}
	if current == "" {
		return original
	}
	return current
}

func cleanOnce(input string) string {
	out := stripNoiseGroups(input)
	out = trimNoiseDashSuffix(out)
	out = collapseSpaces(out)
	return strings.TrimRight(out, " -|:~/")
}

// stripNoiseGroups rewrites each top-level (...) or [...] group without its
// noise tokens and drops groups left empty. Unbalanced brackets are kept as is.
func stripNoiseGroups(input string) string {
	var out strings.Builder
	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		open := runes[i]
		if open != '(' && open != '[' {
			out.WriteRune(open)
			continue
		}
		end := matchingBracket(runes, i)
		if end == -1 {
			out.WriteRune(open)
			continue
		}
		inner := string(runes[i+1 : end])
		kept := dropNoiseWords(inner)
		if kept != "" {
			out.WriteRune(open)
			out.WriteString(kept)
			out.WriteRune(runes[end])
		}
		i = end
	}
	return out.String()
}

func matchingBracket(runes []rune, start int) int {
	depth := 0
	for j := start; j < len(runes); j++ {
		switch runes[j] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func dropNoiseWords(input string) string {
	words := strings.Fields(input)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if isNoiseWord(word) {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// isNoiseWord reports whether every alphanumeric part of word is a noise
// token. Pure punctuation counts as noise so "Official - Audio" empties out.
func isNoiseWord(word string) bool {
	for _, part := range strings.Fields(cleanSeparators(strings.ToLower(word))) {
		if _, ok := noiseTokens[part]; !ok {
			return false
		}
	}
	return true
}

func trimNoiseDashSuffix(input string) string {
	for {
		idx := strings.LastIndex(input, " - ")
		if idx == -1 {
			return input
		}
		suffix := strings.TrimSpace(input[idx+3:])
		if suffix == "" || dropNoiseWords(suffix) != "" {
			return input
		}
		input = input[:idx]
	}
}

func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}
	return out.String()
}

func collapseSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// CleanArtist trims auto-generated channel suffixes.
func CleanArtist(artist string) string {
	trimmed := collapseSpaces(artist)
	trimmed = strings.TrimSuffix(trimmed, " - Topic")
	return strings.TrimSpace(trimmed)
}

// SearchKey lower-cases input and keeps only letters and digits, for
// comparisons and cache keys.
func SearchKey(input string) string {
	return collapseSpaces(cleanSeparators(strings.ToLower(input)))
}
