package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/endogen/rocketbot/internal/lamden"
	"github.com/endogen/rocketbot/internal/model"
	"github.com/endogen/rocketbot/internal/pipeline"
	"github.com/endogen/rocketbot/internal/policy"
	"github.com/endogen/rocketbot/internal/rberr"
)

func (s *runtimeState) newSendCommand() *cobra.Command {
	var to, amountArg, token string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Transfer tokens to an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := policy.CheckAddress(to); err != nil {
				return err
			}
			amount, err := policy.ParseAmount(amountArg)
			if err != nil {
				return err
			}
			if err := policy.CheckContract(token); err != nil {
				return err
			}
			w, err := s.loadWallet()
			if err != nil {
				return err
			}

			outcome, err := s.pipe.Execute(cmd.Context(), w, pipeline.Request{
				Tx: lamden.TxRequest{
					Contract:   token,
					Function:   "transfer",
					Kwargs:     map[string]any{"amount": lamden.FixedFromFloat(amount), "to": to},
					StampLimit: s.settings.Stamps.Transfer,
				},
				Wait: true,
			}, nil)
			if err != nil {
				return err
			}
			return s.emitOutcome(trimRootPath(cmd.CommandPath()), outcome)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&amountArg, "amount", "", "Amount of tokens to send")
	cmd.Flags().StringVar(&token, "token", "currency", "Token contract")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (s *runtimeState) newSwapCommand() *cobra.Command {
	var token, amountArg string
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap base currency for a token on the AMM",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := policy.CheckContract(token); err != nil {
				return err
			}
			amount, err := policy.ParseAmount(amountArg)
			if err != nil {
				return err
			}
			w, err := s.loadWallet()
			if err != nil {
				return err
			}

			outcome, err := s.pipe.Execute(cmd.Context(), w, pipeline.Request{
				Tx: lamden.TxRequest{
					Contract:   s.settings.SwapContract,
					Function:   s.settings.SwapFunction,
					Kwargs:     map[string]any{"contract": token, "currency_amount": lamden.FixedFromFloat(amount)},
					StampLimit: s.settings.Stamps.Swap,
				},
				Approval: &pipeline.Approval{
					Token:    "currency",
					Spender:  s.settings.SwapContract,
					Required: amount,
				},
				Wait: true,
			}, nil)
			if err != nil {
				return err
			}
			return s.emitOutcome(trimRootPath(cmd.CommandPath()), outcome)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token contract to buy")
	cmd.Flags().StringVar(&amountArg, "amount", "", "Base currency amount to spend")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (s *runtimeState) newSubscribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe by depositing tokens into the subscription contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := s.loadWallet()
			if err != nil {
				return err
			}
			amount, err := s.subscriptionPrice(cmd)
			if err != nil {
				return err
			}

			outcome, err := s.pipe.Execute(cmd.Context(), w, pipeline.Request{
				Tx: lamden.TxRequest{
					Contract:   s.settings.SubscriptionContract,
					Function:   "subscribe",
					Kwargs:     map[string]any{"amount": lamden.FixedFromFloat(amount)},
					StampLimit: s.settings.Stamps.Subscribe,
				},
				Approval: &pipeline.Approval{
					Token:    s.settings.SubscriptionToken,
					Spender:  s.settings.SubscriptionContract,
					Required: amount,
				},
				Wait: true,
			}, nil)
			if err != nil {
				return err
			}
			return s.emitOutcome(trimRootPath(cmd.CommandPath()), outcome)
		},
	}
	return cmd
}

func (s *runtimeState) newUnsubscribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unsubscribe",
		Short: "Unsubscribe and withdraw the deposited tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := s.loadWallet()
			if err != nil {
				return err
			}
			outcome, err := s.pipe.Execute(cmd.Context(), w, pipeline.Request{
				Tx: lamden.TxRequest{
					Contract:   s.settings.SubscriptionContract,
					Function:   "unsubscribe",
					Kwargs:     map[string]any{},
					StampLimit: s.settings.Stamps.Unsubscribe,
				},
				Wait: true,
			}, returnedAmount)
			if err != nil {
				return err
			}
			return s.emitOutcome(trimRootPath(cmd.CommandPath()), outcome)
		},
	}
	return cmd
}

func (s *runtimeState) newApproveCommand() *cobra.Command {
	var token, spender, amountArg string
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Grant a spender contract a token allowance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := policy.CheckContract(token); err != nil {
				return err
			}
			if err := policy.CheckContract(spender); err != nil {
				return err
			}
			required := s.settings.ApprovalCeiling
			if amountArg != "" {
				amount, err := policy.ParseAmount(amountArg)
				if err != nil {
					return err
				}
				required = amount
			}
			w, err := s.loadWallet()
			if err != nil {
				return err
			}

			hash, err := s.approvals.EnsureApproved(cmd.Context(), w, token, spender, required)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), model.ApprovalReport{
				Token:             token,
				Spender:           spender,
				AlreadySufficient: hash == "",
				TxHash:            hash,
			}, nil, false)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token contract")
	cmd.Flags().StringVar(&spender, "spender", "", "Spender contract")
	cmd.Flags().StringVar(&amountArg, "amount", "", "Required allowance (defaults to the configured ceiling)")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("spender")
	return cmd
}

// subscriptionPrice converts the contract's base-currency subscription price
// into token units through the AMM quote.
func (s *runtimeState) subscriptionPrice(cmd *cobra.Command) (float64, error) {
	tauAmount, err := s.chain.GetVariableFloat(cmd.Context(), s.settings.SubscriptionContract, "tau_amount")
	if err != nil {
		return 0, err
	}
	if tauAmount <= 0 {
		return 0, rberr.New(rberr.CodeUnavailable, "subscription price not set on contract")
	}
	price := s.oracle.QuoteInBase(cmd.Context(), s.settings.SubscriptionToken)
	if price <= 0 {
		return 0, rberr.New(rberr.CodeUnavailable, fmt.Sprintf("no quote for %s", s.settings.SubscriptionToken))
	}
	return tauAmount / price, nil
}

// returnedAmount extracts the withdrawn amount from an unsubscribe receipt
// result like "'24.5 NEB returned'".
func returnedAmount(receipt *lamden.Receipt) string {
	cleaned := strings.Trim(strings.TrimSpace(receipt.Result), `'"`)
	for _, field := range strings.Fields(cleaned) {
		if _, err := strconv.ParseFloat(field, 64); err == nil {
			return field
		}
	}
	return cleaned
}
