package model

import "time"

const EnvelopeVersion = "v1"

// Envelope is the uniform output frame for every command. Success mirrors
// the outcome of the operation; Error is populated for failures so callers
// can branch on a stable code without parsing messages.
type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Partial   bool      `json:"partial"`
}

// PriceReport is the quote of one token: AMM price in base units plus the
// fiat value of that quote when rates are available.
type PriceReport struct {
	Contract  string  `json:"contract"`
	QuoteBase float64 `json:"quote_base"`
	USD       float64 `json:"usd,omitempty"`
	EUR       float64 `json:"eur,omitempty"`
	BTC       float64 `json:"btc,omitempty"`
	ETH       float64 `json:"eth,omitempty"`
	FiatOK    bool    `json:"fiat_ok"`
}

// DepositReport is the wallet's balance inside the subscription contract.
type DepositReport struct {
	Address    string  `json:"address"`
	Contract   string  `json:"contract"`
	Deposit    float64 `json:"deposit"`
	Subscribed bool    `json:"subscribed"`
}

// ApprovalReport is the result of an explicit approve command.
type ApprovalReport struct {
	Token             string `json:"token"`
	Spender           string `json:"spender"`
	AlreadySufficient bool   `json:"already_sufficient"`
	TxHash            string `json:"tx_hash,omitempty"`
}
