package lamden

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/endogen/rocketbot/internal/wallet"
)

func TestBuildTxSignsSortedPayload(t *testing.T) {
	w, err := wallet.NewFromSeedHex("cf67a180f9578afa5fd704cea39b450c1dce872c2ed17d016dcb7bf152403ea6")
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}

	tx, err := BuildTx(w, TxRequest{
		Contract:   "currency",
		Function:   "transfer",
		Kwargs:     map[string]any{"amount": FixedFromFloat(10.5), "to": "deadbeef"},
		StampLimit: 100,
	}, 7, "processor_vk")
	if err != nil {
		t.Fatalf("BuildTx failed: %v", err)
	}

	if !w.Verify(tx.Payload, tx.Metadata.Signature) {
		t.Fatal("signature does not verify over payload bytes")
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(tx.Payload, &payload); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	for _, field := range []string{"contract", "function", "kwargs", "nonce", "processor", "sender", "stamps_supplied"} {
		if _, ok := payload[field]; !ok {
			t.Fatalf("payload missing field %q", field)
		}
	}
	if string(payload["sender"]) != `"`+w.VerifyingKey()+`"` {
		t.Fatalf("unexpected sender: %s", payload["sender"])
	}

	// Key order in the serialized payload must be sorted: signatures are
	// checked against the exact bytes.
	text := string(tx.Payload)
	order := []string{`"contract"`, `"function"`, `"kwargs"`, `"nonce"`, `"processor"`, `"sender"`, `"stamps_supplied"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx < 0 || idx < last {
			t.Fatalf("payload keys out of order: %s", text)
		}
		last = idx
	}
	if !strings.Contains(text, `{"__fixed__":"10.5"}`) {
		t.Fatalf("amount not fixed-encoded: %s", text)
	}
}

func TestFixedRoundTrip(t *testing.T) {
	buf, err := json.Marshal(FixedFromFloat(0.5))
	if err != nil {
		t.Fatalf("marshal fixed: %v", err)
	}
	if string(buf) != `{"__fixed__":"0.5"}` {
		t.Fatalf("unexpected encoding: %s", buf)
	}
	var f Fixed
	if err := json.Unmarshal(buf, &f); err != nil {
		t.Fatalf("unmarshal fixed: %v", err)
	}
	if f.Float64() != 0.5 {
		t.Fatalf("unexpected value: %f", f.Float64())
	}
}

func TestParseVariableValueForms(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`{"__fixed__":"1.25"}`, 1.25},
		{`42`, 42},
		{`"3.5"`, 3.5},
		{`null`, 0},
		{`"not a number"`, 0},
		{`{"unexpected":"shape"}`, 0},
	}
	for _, tc := range cases {
		if got := ParseVariableValue(json.RawMessage(tc.raw)); got != tc.want {
			t.Fatalf("ParseVariableValue(%s) = %f, want %f", tc.raw, got, tc.want)
		}
	}
}
