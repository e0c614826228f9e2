package normalize

import "strings"

// Thresholds for accepting a candidate as the same recording.
const (
	minTitleSimilarity   = 0.65
	minArtistSimilarity  = 0.55
	minOverallSimilarity = 0.70
)

// ScoreMatch compares a wanted artist/title pair with a candidate. The
// second return value is false when any threshold is missed.
func ScoreMatch(wantArtist, wantTitle, gotArtist, gotTitle string) (float64, bool) {
	title := SearchKey(CleanTitle(wantTitle))
	artist := SearchKey(wantArtist)
	candidateTitle := SearchKey(CleanTitle(gotTitle))
	candidateArtist := SearchKey(CleanArtist(gotArtist))

	if title == "" || candidateTitle == "" {
		return 0, false
	}

	// Uploads often carry "Artist - Title" in the title with a label as
	// channel; score against the combined text in that case.
	titleSim := max(similarity(title, candidateTitle), containsScore(candidateTitle, title))
	artistSim := similarity(artist, candidateArtist)
	if artist != "" && strings.Contains(candidateTitle, artist) {
		artistSim = 1
	}
	score := 0.7*titleSim + 0.3*artistSim

	if titleSim < minTitleSimilarity || artistSim < minArtistSimilarity || score < minOverallSimilarity {
		return score, false
	}
	return score, true
}

// containsScore rewards a candidate that contains the wanted text verbatim.
func containsScore(haystack, needle string) float64 {
	if needle != "" && strings.Contains(haystack, needle) {
		return 0.9
	}
	return 0
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

func levenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		copy(prev, curr)
	}

	return prev[len(rb)]
}
