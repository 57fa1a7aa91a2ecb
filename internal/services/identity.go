package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const identityAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	ticketNumberSuffixLen = 9
	validationCodeLen     = 6
	paymentSuffixLen      = 9
)

// RandomIdentityGenerator draws ids and codes from crypto/rand
type RandomIdentityGenerator struct{}

// NewID returns a random UUID
func (RandomIdentityGenerator) NewID() string {
	return uuid.NewString()
}

// TicketNumber returns TKT-<unix ms>-<9 base36 chars>
func (RandomIdentityGenerator) TicketNumber(now time.Time) string {
	return fmt.Sprintf("TKT-%d-%s", now.UnixMilli(), randomString(ticketNumberSuffixLen))
}

// ValidationCode returns 6 upper-case alphanumerics
func (RandomIdentityGenerator) ValidationCode() string {
	return randomString(validationCodeLen)
}

// PaymentReference returns PAY_<unix ms>_<9 base36 chars>
func (RandomIdentityGenerator) PaymentReference(now time.Time) string {
	return fmt.Sprintf("PAY_%d_%s", now.UnixMilli(), randomString(paymentSuffixLen))
}

func randomString(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(identityAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Sprintf("failed to read random bytes: %v", err))
		}
		b.WriteByte(identityAlphabet[idx.Int64()])
	}
	return b.String()
}
