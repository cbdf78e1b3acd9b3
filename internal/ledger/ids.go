package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	trackingPrefix = "EC"
	trackingSuffix = "BR"
	trackingDigits = 9

	transactionIDLength = 12
)

// IDGenerator draws one candidate identifier. Uniqueness is checked by the
// caller.
type IDGenerator func() (string, error)

var trackingSpace = big.NewInt(1_000_000_000)

// RandomTrackingNumber returns "EC" + 9 uniformly random digits + "BR".
func RandomTrackingNumber() (string, error) {
	n, err := rand.Int(rand.Reader, trackingSpace)
	if err != nil {
		return "", fmt.Errorf("draw tracking number: %w", err)
	}
	return fmt.Sprintf("%s%0*d%s", trackingPrefix, trackingDigits, n.Int64(), trackingSuffix), nil
}

// RandomTransactionID returns the first 12 hex characters of a random UUID,
// upper-cased.
func RandomTransactionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("draw transaction id: %w", err)
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return strings.ToUpper(hex[:transactionIDLength]), nil
}
