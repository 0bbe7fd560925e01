package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
)

// ByteGenerator generates cryptographically secure bytes using HMAC-SHA256
// for streaming approach to float generation
type ByteGenerator struct {
	serverSeed   string
	clientSeed   string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a new byte generator with the given parameters
func NewByteGenerator(serverSeed, clientSeed string, nonce uint64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		serverSeed:   serverSeed,
		clientSeed:   clientSeed,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	bg.generateRound()
	return bg
}

// TableCursor is where the sector shuffle starts reading in a round's
// stream. Bytes before it belong to the spin velocity.
const TableCursor = 32

// SpinSource returns the stream that draws the spin velocity for nonce.
func SpinSource(seeds Seeds, nonce uint64) *ByteGenerator {
	return NewByteGenerator(seeds.Server, seeds.Client, nonce, 0)
}

// TableSource returns the stream that shuffles the sector table for nonce.
func TableSource(seeds Seeds, nonce uint64) *ByteGenerator {
	return NewByteGenerator(seeds.Server, seeds.Client, nonce, TableCursor)
}

// Next returns the next byte from the generator
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat generates the next float using exactly 4 bytes
func (bg *ByteGenerator) NextFloat() float64 {
	return bytesToFloat([4]byte{bg.Next(), bg.Next(), bg.Next(), bg.Next()})
}

// Float64 implements Source.
func (bg *ByteGenerator) Float64() float64 {
	return bg.NextFloat()
}

// IntN implements Source. The value is floor(float * n), the same mapping
// the provably-fair games use to pick an index.
func (bg *ByteGenerator) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(bg.NextFloat() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.serverSeed))
	message := fmt.Sprintf("%s:%d:%d", bg.clientSeed, bg.nonce, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

// bytesToFloat converts exactly 4 bytes to a float64 in [0, 1)
func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		result += float64(b) / math.Pow(256, float64(i+1))
	}
	return result
}

// Floats generates the specified number of floats starting from the given cursor
func Floats(serverSeed, clientSeed string, nonce uint64, cursor uint64, count int) []float64 {
	bg := NewByteGenerator(serverSeed, clientSeed, nonce, cursor)
	floats := make([]float64, count)
	for i := range floats {
		floats[i] = bg.NextFloat()
	}
	return floats
}
