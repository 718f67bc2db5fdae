package policy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/endogen/rocketbot/internal/rberr"
	"github.com/endogen/rocketbot/internal/wallet"
)

// Contract names are lowercase identifiers; user-deployed ones carry the
// con_ prefix, system contracts like "currency" do not.
var contractPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{2,}$`)

// CheckAddress validates a recipient address before any network call.
func CheckAddress(v string) error {
	if !wallet.IsAddressValid(v) {
		return rberr.New(rberr.CodeValidation, "address must be 64 lowercase hex characters")
	}
	return nil
}

// CheckContract validates a contract name before any network call.
func CheckContract(v string) error {
	if !contractPattern.MatchString(strings.TrimSpace(v)) {
		return rberr.New(rberr.CodeValidation, "invalid contract name")
	}
	return nil
}

// ParseAmount parses a user-entered token amount. Amounts must be finite
// and strictly positive.
func ParseAmount(v string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, rberr.New(rberr.CodeValidation, "amount must be a decimal number")
	}
	if amount <= 0 {
		return 0, rberr.New(rberr.CodeValidation, "amount must be positive")
	}
	return amount, nil
}
