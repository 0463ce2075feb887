package mcmc

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/corey/decipher/internal/domain/alphabet"
	"github.com/corey/decipher/internal/domain/bigram"
	"github.com/corey/decipher/internal/domain/cipher"
	"github.com/corey/decipher/internal/domain/likelihood"
	"github.com/corey/decipher/internal/domain/permutation"
	"github.com/corey/decipher/internal/domain/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvaluator(alpha, corpus string) *likelihood.Evaluator {
	return likelihood.New(bigram.Train([]rune(corpus), alphabet.MustNew(alpha)))
}

func newDecoder(t *testing.T, ev *likelihood.Evaluator, cfg Config, opts ...Option) *Decoder {
	t.Helper()
	d, err := New(ev, cfg, opts...)
	require.NoError(t, err)
	return d
}

type recordingObserver struct {
	stats []RestartStats
}

func (r *recordingObserver) RestartFinished(s RestartStats) {
	r.stats = append(r.stats, s)
}

// =============================================================================
// End-to-end recovery
// =============================================================================

func TestDecode_BinaryAlphabetBeatsRandomGuess(t *testing.T) {
	a := alphabet.MustNew("ab")
	ev := likelihood.New(bigram.Train([]rune(strings.Repeat("ab", 2000)), a))
	msg := []rune("abababaabababbababab")

	for seed := uint64(1); seed <= 10; seed++ {
		ct, _ := cipher.Encrypt(msg, a, rand.New(rand.NewPCG(seed, 99)))
		d := newDecoder(t, ev, Config{Attempts: 5, Steps: 500, Workers: 1, Seed: seed})

		res, err := d.Decode(ct)
		require.NoError(t, err)

		// Up to a global relabeling of a <-> b.
		flip, err := permutation.FromImages([]int{1, 0})
		require.NoError(t, err)
		flipped := cipher.Apply(res.Plaintext, a, flip)
		acc := max(score.Accuracy(msg, res.Plaintext), score.Accuracy(msg, flipped))
		assert.Greater(t, acc, 0.5, "seed %d: got %q", seed, string(res.Plaintext))
	}
}

func TestDecode_RecoversAsymmetricLanguage(t *testing.T) {
	// Training text "aab aab ..." makes aa, ab, ba likely and everything
	// else rare, so only one key reads the ciphertext as "aab" blocks.
	a := alphabet.MustNew("abc")
	ev := likelihood.New(bigram.Train([]rune(strings.Repeat("aab", 1000)), a))
	msg := []rune(strings.Repeat("aab", 10))

	for seed := uint64(1); seed <= 10; seed++ {
		ct, _ := cipher.Encrypt(msg, a, rand.New(rand.NewPCG(seed, 7)))
		d := newDecoder(t, ev, Config{Attempts: 5, Steps: 500, Workers: 1, Seed: seed})

		res, err := d.Decode(ct)
		require.NoError(t, err)
		assert.Equal(t, string(msg), string(res.Plaintext), "seed %d", seed)
		assert.Equal(t, 1.0, score.Accuracy(msg, res.Plaintext))
		assert.Greater(t, res.LogLikelihood, -1e9)
	}
}

// =============================================================================
// Determinism
// =============================================================================

func englishFixture() (*likelihood.Evaluator, []rune) {
	corpus := strings.Repeat("the cat sat on the mat and the dog ate the hat. ", 40)
	ev := newEvaluator(alphabet.English, corpus)
	a := ev.Model().Alphabet()
	ct, _ := cipher.Encrypt([]rune("that cat and that dog sat on a hat"), a, rand.New(rand.NewPCG(3, 3)))
	return ev, ct
}

func TestDecode_SameSeedSameOutput(t *testing.T) {
	ev, ct := englishFixture()
	cfg := Config{Attempts: 4, Steps: 300, Workers: 1, Seed: 1234}

	r1, err := newDecoder(t, ev, cfg).Decode(ct)
	require.NoError(t, err)
	r2, err := newDecoder(t, ev, cfg).Decode(ct)
	require.NoError(t, err)

	assert.Equal(t, string(r1.Plaintext), string(r2.Plaintext))
	assert.Equal(t, r1.Key.Images(), r2.Key.Images())
	assert.Equal(t, r1.Accepted, r2.Accepted)
	assert.Equal(t, r1.BestAttempt, r2.BestAttempt)
}

func TestDecode_WorkersDoNotChangeOutput(t *testing.T) {
	ev, ct := englishFixture()
	base := Config{Attempts: 6, Steps: 300, Workers: 1, Seed: 77}

	want, err := newDecoder(t, ev, base).Decode(ct)
	require.NoError(t, err)

	for _, w := range []int{2, 3, 8} {
		cfg := base
		cfg.Workers = w
		got, err := newDecoder(t, ev, cfg).Decode(ct)
		require.NoError(t, err)
		assert.Equal(t, string(want.Plaintext), string(got.Plaintext), "workers=%d", w)
		assert.Equal(t, want.Accepted, got.Accepted, "workers=%d", w)
	}
}

func TestDecode_FullRescoreMatchesIncremental(t *testing.T) {
	ev, ct := englishFixture()
	cfg := Config{Attempts: 3, Steps: 400, Workers: 1, Seed: 5}

	fast, err := newDecoder(t, ev, cfg).Decode(ct)
	require.NoError(t, err)
	cfg.FullRescore = true
	slow, err := newDecoder(t, ev, cfg).Decode(ct)
	require.NoError(t, err)

	assert.Equal(t, string(fast.Plaintext), string(slow.Plaintext))
	assert.Equal(t, fast.Accepted, slow.Accepted)
	assert.InDelta(t, fast.LogLikelihood, slow.LogLikelihood, 1e-9)
}

func TestRescore_MatchesFullRatio(t *testing.T) {
	ev, ct := englishFixture()
	a := ev.Model().Alphabet()
	cipherRanks, bad := a.Encode(ct)
	require.Equal(t, -1, bad)

	d := newDecoder(t, ev, Config{Attempts: 1, Steps: 0, Workers: 1})
	lay := newLayout(cipherRanks, a.Len())
	rng := rand.New(rand.NewPCG(8, 8))
	key := permutation.New(a.Len(), rng)
	c := &chain{d: d, lay: lay, rng: rng, key: key, plain: key.Decode(cipherRanks), stamp: make([]int, len(cipherRanks)-1)}

	for i := 0; i < 500; i++ {
		before := append([]int(nil), c.plain...)
		swap := c.key.Propose(rng)
		lr := c.rescore(swap)

		assert.Equal(t, c.key.Decode(cipherRanks), c.plain)
		full, err := ev.RankLogRatio(c.plain, before)
		require.NoError(t, err)
		assert.InDelta(t, full, lr, 1e-9)

		if i%2 == 0 {
			c.key.Revert(swap)
			c.rewrite(swap)
			assert.Equal(t, before, c.plain)
		}
	}
}

// =============================================================================
// Result bookkeeping and observer
// =============================================================================

func TestDecode_ObserverSeesEveryRestartInOrder(t *testing.T) {
	ev, ct := englishFixture()
	obs := &recordingObserver{}
	d := newDecoder(t, ev, Config{Attempts: 5, Steps: 100, Workers: 3, Seed: 9}, WithObserver(obs))

	res, err := d.Decode(ct)
	require.NoError(t, err)
	require.Len(t, obs.stats, 5)

	proposals, accepted, improved := 0, 0, 0
	for i, s := range obs.stats {
		assert.Equal(t, i, s.Attempt)
		assert.Equal(t, 100, s.Proposals)
		assert.LessOrEqual(t, s.Accepted, s.Proposals)
		proposals += s.Proposals
		accepted += s.Accepted
		if s.Improved {
			improved++
			assert.LessOrEqual(t, i, res.BestAttempt)
		}
	}
	assert.Equal(t, 500, res.Proposals)
	assert.Equal(t, proposals, res.Proposals)
	assert.Equal(t, accepted, res.Accepted)
	if res.BestAttempt >= 0 {
		assert.True(t, obs.stats[res.BestAttempt].Improved)
		assert.GreaterOrEqual(t, improved, 1)
	}
	assert.InDelta(t, float64(res.Accepted)/500, res.AcceptRate(), 1e-12)
}

func TestDecode_ResultIsConsistent(t *testing.T) {
	ev, ct := englishFixture()
	a := ev.Model().Alphabet()
	res, err := newDecoder(t, ev, Config{Attempts: 3, Steps: 200, Workers: 1, Seed: 2}).Decode(ct)
	require.NoError(t, err)

	require.Len(t, res.Plaintext, len(ct))
	assert.True(t, res.Key.Valid())

	// The key applied to the ciphertext reproduces the plaintext.
	ranks, _ := a.Encode(ct)
	assert.Equal(t, string(res.Plaintext), string(a.Decode(res.Key.Decode(ranks))))

	ll, err := ev.LogLikelihood(res.Plaintext)
	require.NoError(t, err)
	assert.InDelta(t, ll, res.LogLikelihood, 1e-9)

	base, err := ev.LogRatio(res.Plaintext, ct)
	require.NoError(t, err)
	assert.InDelta(t, base, res.BaselineLogRatio, 1e-9)
	assert.GreaterOrEqual(t, res.BaselineLogRatio, 0.0)
	assert.Equal(t, uint64(2), res.Seed)
}

func TestDecode_ZeroStepsKeepsBestOfRandomKeys(t *testing.T) {
	ev, ct := englishFixture()
	res, err := newDecoder(t, ev, Config{Attempts: 3, Steps: 0, Workers: 1}).Decode(ct)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Proposals)
	assert.Len(t, res.Plaintext, len(ct))
}

func TestDecode_SingleSymbol(t *testing.T) {
	ev := newEvaluator("ab", "abab")
	res, err := newDecoder(t, ev, Config{Attempts: 2, Steps: 10, Workers: 1}).Decode([]rune("a"))
	require.NoError(t, err)
	assert.Len(t, res.Plaintext, 1)
}

// =============================================================================
// Preconditions
// =============================================================================

func TestDecode_Errors(t *testing.T) {
	ev := newEvaluator("ab", "abab")
	d := newDecoder(t, ev, Config{Attempts: 1, Steps: 1, Workers: 1})

	_, err := d.Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyCiphertext)

	_, err = d.Decode([]rune("abz"))
	assert.ErrorIs(t, err, ErrUnknownSymbol)
	assert.Contains(t, err.Error(), "position 2")
}

func TestNew_InvalidConfig(t *testing.T) {
	ev := newEvaluator("ab", "abab")
	for _, cfg := range []Config{
		{Attempts: 0, Steps: 1, Workers: 1},
		{Attempts: 1, Steps: -1, Workers: 1},
		{Attempts: 1, Steps: 1, Workers: 0},
	} {
		_, err := New(ev, cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, "config %+v", cfg)
	}

	_, err := New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.Attempts)
	assert.Equal(t, 10000, cfg.Steps)
	assert.Equal(t, 1, cfg.Workers)
}
