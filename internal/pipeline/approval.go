package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/endogen/rocketbot/internal/lamden"
	"github.com/endogen/rocketbot/internal/metrics"
	"github.com/endogen/rocketbot/internal/rberr"
	"github.com/endogen/rocketbot/internal/wallet"
)

// Chain is the masternode surface the pipeline needs. *lamden.Client
// satisfies it.
type Chain interface {
	GetVariableFloat(ctx context.Context, contract, variable string, keys ...string) (float64, error)
	Nonce(ctx context.Context, vk string) (uint64, string, error)
	Submit(ctx context.Context, tx *lamden.SignedTx) (string, error)
	PollReceipt(ctx context.Context, hash string, timeout, interval time.Duration) (*lamden.Receipt, error)
	ExplorerTxURL(hash string) string
}

// ApprovalManager grants token spend allowances ahead of value-moving calls.
// Allowances live in the token contract's balances hash under the composite
// key "owner:spender".
type ApprovalManager struct {
	chain      Chain
	ceiling    float64
	stampLimit uint64
	log        *zap.Logger
}

func NewApprovalManager(chain Chain, ceiling float64, stampLimit uint64, log *zap.Logger) *ApprovalManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ApprovalManager{chain: chain, ceiling: ceiling, stampLimit: stampLimit, log: log}
}

// EnsureApproved checks the spender's allowance on the token contract and,
// when it is below required, submits an approve transaction for the
// configured ceiling. The approval is not awaited: the chain orders it
// before the next submission from the same sender through the nonce. The
// returned hash is empty when the existing allowance was sufficient. Any
// failure surfaces as CodeApproval and must abort the run.
func (m *ApprovalManager) EnsureApproved(ctx context.Context, w *wallet.Wallet, token, spender string, required float64) (string, error) {
	if required <= 0 {
		return "", nil
	}
	owner := w.VerifyingKey()
	allowance, err := m.chain.GetVariableFloat(ctx, token, "balances", owner, spender)
	if err != nil {
		return "", rberr.Wrap(rberr.CodeApproval, "read allowance", err)
	}
	if allowance >= required {
		m.log.Debug("allowance sufficient",
			zap.String("token", token),
			zap.Float64("allowance", allowance),
			zap.Float64("required", required))
		return "", nil
	}

	amount := m.ceiling
	if amount < required {
		amount = required
	}
	hash, err := submitTx(ctx, m.chain, w, lamden.TxRequest{
		Contract:   token,
		Function:   "approve",
		Kwargs:     map[string]any{"amount": lamden.FixedFromFloat(amount), "to": spender},
		StampLimit: m.stampLimit,
	})
	if err != nil {
		return "", rberr.Wrap(rberr.CodeApproval, "submit approval", err)
	}
	metrics.Approvals.Inc()
	m.log.Info("approval submitted",
		zap.String("token", token),
		zap.String("spender", spender),
		zap.Float64("amount", amount),
		zap.String("tx_hash", hash))
	return hash, nil
}

// submitTx fetches the sender's nonce, signs and broadcasts one transaction.
func submitTx(ctx context.Context, chain Chain, w *wallet.Wallet, req lamden.TxRequest) (string, error) {
	nonce, processor, err := chain.Nonce(ctx, w.VerifyingKey())
	if err != nil {
		return "", err
	}
	tx, err := lamden.BuildTx(w, req, nonce, processor)
	if err != nil {
		return "", err
	}
	return chain.Submit(ctx, tx)
}
