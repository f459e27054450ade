package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// GeneratedPasswordLength is the length of passwords issued to new auditors.
const GeneratedPasswordLength = 10

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	punctChars  = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	allPassword = lowerChars + upperChars + digitChars + punctChars
)

// BcryptHasher hashes passwords with bcrypt.
type BcryptHasher struct {
	cost int
}

var (
	_ ports.PasswordHasher    = (*BcryptHasher)(nil)
	_ ports.PasswordGenerator = (*Generator)(nil)
)

// NewBcryptHasher creates a hasher. A cost of 0 uses bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(b), nil
}

// Verify reports whether password matches hash.
func (h *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Generator produces random passwords containing every character class.
type Generator struct {
	length int
}

// NewGenerator creates a generator for passwords of the given length (min 4).
func NewGenerator(length int) *Generator {
	if length < 4 {
		length = GeneratedPasswordLength
	}

	return &Generator{length: length}
}

// Generate returns a password with at least one lowercase letter, one
// uppercase letter, one digit and one punctuation character.
func (g *Generator) Generate() (string, error) {
	out := make([]byte, 0, g.length)

	for _, set := range []string{lowerChars, upperChars, digitChars, punctChars} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}

		out = append(out, c)
	}

	for len(out) < g.length {
		c, err := pick(allPassword)
		if err != nil {
			return "", err
		}

		out = append(out, c)
	}

	// Fisher-Yates with crypto/rand.
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("shuffling password: %w", err)
		}

		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}

	return string(out), nil
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("generating password: %w", err)
	}

	return set[n.Int64()], nil
}
