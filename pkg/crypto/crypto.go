package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong dikembalikan jika password melebihi batas 72 byte bcrypt.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// MaxPasswordBytes adalah panjang maksimal input bcrypt.
const MaxPasswordBytes = 72

// Hasher membuat dan memverifikasi hash password dengan bcrypt.
// Salt acak dibuat pada setiap pemanggilan Hash dan disimpan di dalam hasilnya.
type Hasher struct {
	cost int
}

// NewHasher membuat Hasher dengan cost tertentu. Cost di luar rentang bcrypt
// diganti dengan bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash mengembalikan hash bcrypt dari plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify membandingkan plaintext dengan hash. Hash yang rusak selalu menghasilkan false.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
