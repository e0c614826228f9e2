package domain

import (
	"math"
	"regexp"
	"strings"
)

// VectorDims is the fixed size of a taste vector.
const VectorDims = 12

// Dimension indices of a Vector.
const (
	DimDanceability = iota
	DimEnergy
	DimKey
	DimLoudness
	DimMode
	DimSpeechiness
	DimAcousticness
	DimInstrumentalness
	DimLiveness
	DimValence
	DimTempo
	DimDuration
)

// neutral is the value a dimension holds when nothing signals otherwise.
const neutral = 0.5

// Vector is a 12-dimensional feature summary in [0,1].
type Vector [VectorDims]float64

// NeutralVector returns a vector with every dimension at the neutral baseline.
func NeutralVector() Vector {
	var v Vector
	for i := range v {
		v[i] = neutral
	}
	return v
}

// Blend moves v toward next by alpha and returns the result.
func (v Vector) Blend(next Vector, alpha float64) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] + alpha*(next[i]-v[i])
	}
	return out.Clamp()
}

// Clamp bounds each dimension into [0,1].
func (v Vector) Clamp() Vector {
	for i := range v {
		switch {
		case math.IsNaN(v[i]):
			v[i] = neutral
		case v[i] < 0:
			v[i] = 0
		case v[i] > 1:
			v[i] = 1
		}
	}
	return v
}

// Cosine returns the cosine similarity of v and other. Zero vectors score 0.
func (v Vector) Cosine(other Vector) float64 {
	var dot, na, nb float64
	for i := range v {
		dot += v[i] * other[i]
		na += v[i] * v[i]
		nb += other[i] * other[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MaxDelta returns the largest absolute per-dimension difference.
func (v Vector) MaxDelta(other Vector) float64 {
	var d float64
	for i := range v {
		d = math.Max(d, math.Abs(v[i]-other[i]))
	}
	return d
}

// Slice copies v into a slice for encoding.
func (v Vector) Slice() []float64 {
	out := make([]float64, VectorDims)
	copy(out, v[:])
	return out
}

// VectorFromSlice copies values into a Vector. Short input leaves the tail neutral.
func VectorFromSlice(values []float64) Vector {
	v := NeutralVector()
	copy(v[:], values)
	return v.Clamp()
}

type vectorRule struct {
	pattern *regexp.Regexp
	set     map[int]float64
}

// Rules are applied in order; later matches override earlier ones on the
// same dimension.
var vectorRules = []vectorRule{
	{
		pattern: regexp.MustCompile(`\b(remix|club|dance|disco|techno|house|party|bounce|edm)\b`),
		set:     map[int]float64{DimDanceability: 0.85, DimEnergy: 0.8, DimTempo: 0.75},
	},
	{
		pattern: regexp.MustCompile(`\b(rock|metal|trap|drill|fast|hype|power|phonk)\b`),
		set:     map[int]float64{DimEnergy: 0.9, DimLoudness: 0.8},
	},
	{
		pattern: regexp.MustCompile(`\b(acoustic|piano|unplugged|organic|nature|folk)\b`),
		set:     map[int]float64{DimAcousticness: 0.9, DimEnergy: 0.3, DimLoudness: 0.3},
	},
	{
		pattern: regexp.MustCompile(`\b(inst|instrumental|beat|beats|type beat|bgm)\b`),
		set:     map[int]float64{DimInstrumentalness: 0.9, DimSpeechiness: 0.05},
	},
	{
		pattern: regexp.MustCompile(`\b(lofi|lo-fi|chill|ambient|smooth|relax|sleep)\b`),
		set:     map[int]float64{DimEnergy: 0.25, DimValence: 0.45, DimTempo: 0.3},
	},
	{
		pattern: regexp.MustCompile(`\b(sad|cry|heartbreak|lonely|broken|tears)\b`),
		set:     map[int]float64{DimValence: 0.15, DimMode: 0.2},
	},
	{
		pattern: regexp.MustCompile(`\b(happy|sunshine|love|summer|joy|good vibes)\b`),
		set:     map[int]float64{DimValence: 0.85, DimMode: 0.8},
	},
	{
		pattern: regexp.MustCompile(`\b(live|concert|session|tour)\b`),
		set:     map[int]float64{DimLiveness: 0.85},
	},
	{
		pattern: regexp.MustCompile(`\b(rap|hip hop|hip-hop|freestyle|cypher)\b`),
		set:     map[int]float64{DimSpeechiness: 0.8},
	},
	{
		pattern: regexp.MustCompile(`\b(extended|mix|medley)\b`),
		set:     map[int]float64{DimDuration: 0.8},
	},
}

// EstimateVector derives a feature vector from track metadata. It is a pure
// keyword heuristic: identical inputs always produce identical output.
func EstimateVector(title string, artist string) Vector {
	text := strings.ToLower(strings.TrimSpace(title + " " + artist))
	v := NeutralVector()
	if text == "" {
		return v
	}
	for _, rule := range vectorRules {
		if !rule.pattern.MatchString(text) {
			continue
		}
		for dim, value := range rule.set {
			v[dim] = value
		}
	}
	return v
}
