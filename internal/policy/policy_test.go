package policy

import (
	"strings"
	"testing"

	"github.com/endogen/rocketbot/internal/rberr"
)

func TestCheckAddress(t *testing.T) {
	valid := strings.Repeat("ab", 32)
	if err := CheckAddress(valid); err != nil {
		t.Fatalf("valid address rejected: %v", err)
	}
	for _, bad := range []string{"", "xyz", strings.Repeat("A", 64), strings.Repeat("a", 63)} {
		err := CheckAddress(bad)
		if rberr.CodeOf(err) != rberr.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}

func TestCheckContract(t *testing.T) {
	for _, good := range []string{"currency", "con_nebula", "con_rocketswap_official_v1_1"} {
		if err := CheckContract(good); err != nil {
			t.Fatalf("valid contract %q rejected: %v", good, err)
		}
	}
	for _, bad := range []string{"", "Con_Nebula", "1con", "c"} {
		if err := CheckContract(bad); err == nil {
			t.Fatalf("expected rejection for %q", bad)
		}
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("10.5")
	if err != nil || amount != 10.5 {
		t.Fatalf("unexpected parse result: %v %v", amount, err)
	}
	for _, bad := range []string{"", "abc", "0", "-1"} {
		if _, err := ParseAmount(bad); rberr.CodeOf(err) != rberr.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}
