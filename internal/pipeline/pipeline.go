package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/endogen/rocketbot/internal/lamden"
	"github.com/endogen/rocketbot/internal/metrics"
	"github.com/endogen/rocketbot/internal/rberr"
	"github.com/endogen/rocketbot/internal/wallet"
)

// Approval states the allowance a request needs before it can move value.
type Approval struct {
	Token    string
	Spender  string
	Required float64
}

// Request is one value-moving contract call plus its optional approval
// requirement. Wait controls whether the pipeline polls for a receipt.
type Request struct {
	Tx       lamden.TxRequest
	Approval *Approval
	Wait     bool
}

// Interpreter extracts a caller-facing result string from a confirmed
// receipt. A nil interpreter keeps the raw chain result.
type Interpreter func(*lamden.Receipt) string

// Pipeline runs the transaction state machine: ensure approval, submit,
// poll for confirmation, interpret. Each run performs at most one
// value-moving submission and ends in exactly one Outcome.
type Pipeline struct {
	chain        Chain
	approvals    *ApprovalManager
	pollTimeout  time.Duration
	pollInterval time.Duration
	log          *zap.Logger
}

func New(chain Chain, approvals *ApprovalManager, pollTimeout, pollInterval time.Duration, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		chain:        chain,
		approvals:    approvals,
		pollTimeout:  pollTimeout,
		pollInterval: pollInterval,
		log:          log,
	}
}

// Execute runs one transaction through the pipeline. A non-nil error means
// the run aborted before anything value-moving was broadcast (validation or
// approval failure); once the main transaction is handed to the masternode
// the result is always expressed as an Outcome.
func (p *Pipeline) Execute(ctx context.Context, w *wallet.Wallet, req Request, interpret Interpreter) (Outcome, error) {
	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID),
		zap.String("contract", req.Tx.Contract),
		zap.String("function", req.Tx.Function))

	if err := validate(req.Tx); err != nil {
		return Outcome{}, err
	}

	var approvalHash string
	if req.Approval != nil {
		if p.approvals == nil {
			return Outcome{}, rberr.New(rberr.CodeInternal, "request needs approval but no approval manager configured")
		}
		hash, err := p.approvals.EnsureApproved(ctx, w, req.Approval.Token, req.Approval.Spender, req.Approval.Required)
		if err != nil {
			log.Warn("approval failed", zap.Error(err))
			return Outcome{}, err
		}
		approvalHash = hash
	}

	start := time.Now()
	hash, err := submitTx(ctx, p.chain, w, req.Tx)
	if err != nil {
		log.Warn("submission rejected", zap.Error(err))
		metrics.Failures.WithLabelValues("submit").Inc()
		return Outcome{
			RunID:        runID,
			Kind:         OutcomeRejectedAtSubmit,
			Reason:       rberr.Message(err),
			ApprovalHash: approvalHash,
		}, nil
	}
	metrics.Submissions.Inc()
	log = log.With(zap.String("tx_hash", hash))
	log.Info("transaction submitted")

	if !req.Wait {
		return Outcome{
			RunID:        runID,
			Kind:         OutcomeSubmitted,
			TxHash:       hash,
			ExplorerURL:  p.chain.ExplorerTxURL(hash),
			ApprovalHash: approvalHash,
		}, nil
	}

	receipt, err := p.chain.PollReceipt(ctx, hash, p.pollTimeout, p.pollInterval)
	if err != nil {
		log.Warn("confirmation timed out", zap.Error(err))
		metrics.Failures.WithLabelValues("timeout").Inc()
		return Outcome{
			RunID:        runID,
			Kind:         OutcomeFailed,
			TxHash:       hash,
			ExplorerURL:  p.chain.ExplorerTxURL(hash),
			Reason:       "timeout",
			ApprovalHash: approvalHash,
		}, nil
	}
	if !receipt.Succeeded() {
		log.Warn("transaction failed on chain", zap.String("reason", receipt.Reason()))
		metrics.Failures.WithLabelValues("onchain").Inc()
		return Outcome{
			RunID:        runID,
			Kind:         OutcomeFailed,
			TxHash:       hash,
			ExplorerURL:  p.chain.ExplorerTxURL(hash),
			Reason:       receipt.Reason(),
			ApprovalHash: approvalHash,
		}, nil
	}

	metrics.Confirmations.Inc()
	metrics.ConfirmLatency.Observe(time.Since(start).Seconds())
	result := cleanResult(receipt.Result)
	if interpret != nil {
		result = interpret(receipt)
	}
	log.Info("transaction confirmed", zap.Duration("latency", time.Since(start)))
	return Outcome{
		RunID:        runID,
		Kind:         OutcomeConfirmed,
		TxHash:       hash,
		ExplorerURL:  p.chain.ExplorerTxURL(hash),
		Result:       result,
		ApprovalHash: approvalHash,
	}, nil
}

func validate(tx lamden.TxRequest) error {
	if strings.TrimSpace(tx.Contract) == "" {
		return rberr.New(rberr.CodeValidation, "transaction contract is required")
	}
	if strings.TrimSpace(tx.Function) == "" {
		return rberr.New(rberr.CodeValidation, "transaction function is required")
	}
	if tx.StampLimit == 0 {
		return rberr.New(rberr.CodeValidation, "stamp limit must be positive")
	}
	return nil
}

// cleanResult strips the quoting the contracting runtime wraps string
// results in ('...' or "...").
func cleanResult(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	if s == "None" {
		return ""
	}
	return s
}
