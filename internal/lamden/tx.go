package lamden

import (
	"encoding/json"
	"time"

	"github.com/endogen/rocketbot/internal/rberr"
	"github.com/endogen/rocketbot/internal/wallet"
)

// TxRequest describes one contract call. Immutable once constructed; the
// pipeline never mutates a request after validation.
type TxRequest struct {
	Contract   string
	Function   string
	Kwargs     map[string]any
	StampLimit uint64
}

type txPayload struct {
	Contract   string         `json:"contract"`
	Function   string         `json:"function"`
	Kwargs     map[string]any `json:"kwargs"`
	Nonce      uint64         `json:"nonce"`
	Processor  string         `json:"processor"`
	Sender     string         `json:"sender"`
	StampLimit uint64         `json:"stamps_supplied"`
}

type txMetadata struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

// SignedTx is the wire form submitted to a masternode: the serialized
// payload plus an ed25519 signature over exactly those payload bytes.
type SignedTx struct {
	Metadata txMetadata      `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

// BuildTx serializes and signs a transaction. Payload keys are emitted in
// sorted order (encoding/json sorts struct-to-map output for kwargs and the
// payload fields are declared alphabetically), which is what masternodes
// verify the signature against.
func BuildTx(w *wallet.Wallet, req TxRequest, nonce uint64, processor string) (*SignedTx, error) {
	if w == nil {
		return nil, rberr.New(rberr.CodeInternal, "missing wallet")
	}
	kwargs := req.Kwargs
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	payload, err := json.Marshal(txPayload{
		Contract:   req.Contract,
		Function:   req.Function,
		Kwargs:     kwargs,
		Nonce:      nonce,
		Processor:  processor,
		Sender:     w.VerifyingKey(),
		StampLimit: req.StampLimit,
	})
	if err != nil {
		return nil, rberr.Wrap(rberr.CodeInternal, "serialize transaction payload", err)
	}
	return &SignedTx{
		Metadata: txMetadata{
			Signature: w.Sign(payload),
			Timestamp: time.Now().UTC().Unix(),
		},
		Payload: payload,
	}, nil
}
