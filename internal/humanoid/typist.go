// Package humanoid generates human-plausible keystroke timing. Constant
// inter-key delays are a trivial automation tell; real typists drift, speed
// up on familiar letter pairs, and stall on symbols.
package humanoid

import (
	"math/rand"
	"time"
	"unicode"

	"github.com/aquilax/go-perlin"
)

const (
	// Perlin parameters tuned for slow drift across a typing burst.
	noiseAlpha = 2.0
	noiseBeta  = 2.0
	noiseN     = 3

	baseDelay  = 95 * time.Millisecond
	noiseSwing = 45 * time.Millisecond
	jitterMax  = 25 * time.Millisecond

	// Rhythm multipliers per character class.
	ngramFactor  = 0.65
	symbolFactor = 1.6
	upperFactor  = 1.4

	// One keystroke in roughly this many gets a thinking pause.
	hesitationOdds = 12
)

// Digraphs a practiced typist rolls through faster than isolated keys.
var commonDigraphs = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true, "en": true, "at": true,
}

// Typist produces a delay for each keystroke of a text. Delays combine a
// slow Perlin drift (session-level speed wandering) with per-key jitter and
// character-class rhythm.
type Typist struct {
	noise *perlin.Perlin
	rng   *rand.Rand
	t     float64
}

func NewTypist(seed int64) *Typist {
	return &Typist{
		noise: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseN, seed),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Delays returns one delay per rune of text, to be applied before that rune
// is sent.
func (ty *Typist) Delays(text string) []time.Duration {
	runes := []rune(text)
	delays := make([]time.Duration, len(runes))
	for i := range runes {
		var prev rune
		if i > 0 {
			prev = runes[i-1]
		}
		delays[i] = ty.next(prev, runes[i])
	}
	return delays
}

func (ty *Typist) next(prev, curr rune) time.Duration {
	ty.t += 0.1
	drift := time.Duration(ty.noise.Noise1D(ty.t) * float64(noiseSwing))
	jitter := time.Duration(ty.rng.Int63n(int64(jitterMax)))

	d := baseDelay + drift + jitter
	switch {
	case prev != 0 && commonDigraphs[string([]rune{unicode.ToLower(prev), unicode.ToLower(curr)})]:
		d = time.Duration(float64(d) * ngramFactor)
	case unicode.IsUpper(curr):
		d = time.Duration(float64(d) * upperFactor)
	case !unicode.IsLetter(curr) && !unicode.IsDigit(curr) && curr != ' ':
		d = time.Duration(float64(d) * symbolFactor)
	}

	if ty.rng.Intn(hesitationOdds) == 0 {
		d += time.Duration(ty.rng.Int63n(int64(400 * time.Millisecond)))
	}

	if d < 20*time.Millisecond {
		d = 20 * time.Millisecond
	}
	return d
}
