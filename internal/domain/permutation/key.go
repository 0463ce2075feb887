// Package permutation implements decoding keys: bijections over alphabet
// ranks stored as a fixed-size image array. A proposal exchanges two
// images, so a key cannot stop being a bijection.
package permutation

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrNotBijection is returned by FromImages for arrays that repeat or skip a rank.
var ErrNotBijection = errors.New("images do not form a bijection")

// Key maps a cipher rank i to the plain rank img[i].
type Key struct {
	img []int
}

// Swap records the two ranks a proposal exchanged. I == J is a no-op move.
type Swap struct {
	I, J int
}

// NoOp reports whether the swap left the key unchanged.
func (s Swap) NoOp() bool { return s.I == s.J }

// New returns a uniformly random bijection over n ranks.
func New(n int, rng *rand.Rand) Key {
	return Key{img: rng.Perm(n)}
}

// Identity returns the key that maps every rank to itself.
func Identity(n int) Key {
	img := make([]int, n)
	for i := range img {
		img[i] = i
	}
	return Key{img: img}
}

// FromImages builds a key from an explicit image array, copying it.
func FromImages(images []int) (Key, error) {
	k := Key{img: append([]int(nil), images...)}
	if !k.Valid() {
		return Key{}, fmt.Errorf("%w: %v", ErrNotBijection, images)
	}
	return k, nil
}

// Len returns the number of ranks.
func (k Key) Len() int { return len(k.img) }

// Image returns the plain rank for cipher rank i.
func (k Key) Image(i int) int { return k.img[i] }

// Images returns a copy of the image array.
func (k Key) Images() []int { return append([]int(nil), k.img...) }

// Clone returns an independent copy.
func (k Key) Clone() Key { return Key{img: k.Images()} }

// Propose draws two ranks independently and uniformly, with replacement,
// and exchanges their images in place. The draws coincide with
// probability 1/N, producing a no-op.
func (k *Key) Propose(rng *rand.Rand) Swap {
	s := Swap{I: rng.IntN(len(k.img)), J: rng.IntN(len(k.img))}
	k.img[s.I], k.img[s.J] = k.img[s.J], k.img[s.I]
	return s
}

// Revert undoes a Swap returned by Propose.
func (k *Key) Revert(s Swap) {
	k.img[s.I], k.img[s.J] = k.img[s.J], k.img[s.I]
}

// Apply writes img[src[i]] into dst[i]. dst must be at least len(src).
func (k Key) Apply(src, dst []int) {
	for i, r := range src {
		dst[i] = k.img[r]
	}
}

// Decode returns a freshly allocated application of the key to src.
func (k Key) Decode(src []int) []int {
	dst := make([]int, len(src))
	k.Apply(src, dst)
	return dst
}

// Inverse returns the key that undoes k.
func (k Key) Inverse() Key {
	inv := make([]int, len(k.img))
	for i, v := range k.img {
		inv[v] = i
	}
	return Key{img: inv}
}

// Valid reports whether every rank appears exactly once as an image.
func (k Key) Valid() bool {
	seen := make([]bool, len(k.img))
	for _, v := range k.img {
		if v < 0 || v >= len(k.img) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
