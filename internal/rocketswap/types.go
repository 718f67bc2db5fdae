package rocketswap

import (
	"encoding/json"
	"strconv"
	"strings"
)

// amount tolerates the mixed numeric encodings the Rocketswap API emits:
// plain numbers, numeric strings, and contracting {"__fixed__": ...} values.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*a = 0
		return nil
	}
	var fixed struct {
		Value string `json:"__fixed__"`
	}
	if err := json.Unmarshal(data, &fixed); err == nil && fixed.Value != "" {
		v, err := strconv.ParseFloat(fixed.Value, 64)
		if err != nil {
			*a = 0
			return nil
		}
		*a = amount(v)
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*a = amount(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			*a = 0
			return nil
		}
		*a = amount(v)
		return nil
	}
	*a = 0
	return nil
}

// StakingMetaEntry maps a staking contract to the token it stakes.
type StakingMetaEntry struct {
	ContractName string `json:"contract_name"`
	StakingToken string `json:"STAKING_TOKEN"`
}

// StakingInfo is a user's position in one staking contract.
type StakingInfo struct {
	TotalStaked float64
}

// PairData is one AMM pair's pooled state.
type PairData struct {
	LP       float64
	Reserves [2]float64
}

// TokenInfo is the AMM's token metadata record.
type TokenInfo struct {
	ContractName string
	TokenName    string
	TokenSymbol  string
	BaseSupply   string
}

// MarketSummary is one listed market with its token metadata.
type MarketSummary struct {
	ContractName string
	Reserves     [2]float64
	TokenName    string
	TokenSymbol  string
}
