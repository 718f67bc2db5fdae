package app

import (
	"github.com/spf13/cobra"

	"github.com/endogen/rocketbot/internal/model"
	"github.com/endogen/rocketbot/internal/policy"
)

func (s *runtimeState) newAccountCommand() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Portfolio value of an address across staking and LP positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" {
				w, err := s.loadWallet()
				if err != nil {
					return err
				}
				address = w.VerifyingKey()
			}
			if err := policy.CheckAddress(address); err != nil {
				return err
			}

			summary, err := s.aggregator.Summarize(cmd.Context(), address)
			if err != nil {
				return err
			}
			var warnings []string
			if !summary.FiatOK {
				warnings = append(warnings, "fiat rates unavailable; totals reported in base currency only")
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), summary, warnings, !summary.FiatOK)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Address to value (defaults to the wallet address)")
	return cmd
}

func (s *runtimeState) newPriceCommand() *cobra.Command {
	var contract string
	cmd := &cobra.Command{
		Use:   "price",
		Short: "AMM quote for a token with fiat conversion",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := policy.CheckContract(contract); err != nil {
				return err
			}

			quote := s.oracle.QuoteInBase(cmd.Context(), contract)
			report := model.PriceReport{Contract: contract, QuoteBase: quote}
			if rates, ok := s.oracle.BaseFiat(cmd.Context()); ok {
				report.FiatOK = true
				report.USD = quote * rates.USD
				report.EUR = quote * rates.EUR
				report.BTC = quote * rates.BTC
				report.ETH = quote * rates.ETH
			}
			var warnings []string
			if !report.FiatOK {
				warnings = append(warnings, "fiat rates unavailable")
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), report, warnings, !report.FiatOK)
		},
	}
	cmd.Flags().StringVar(&contract, "contract", "", "Token contract to quote")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}

func (s *runtimeState) newDepositCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Wallet balance held by the subscription contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := s.loadWallet()
			if err != nil {
				return err
			}
			deposit, err := s.chain.GetVariableFloat(cmd.Context(), s.settings.SubscriptionContract, "data", w.VerifyingKey())
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), model.DepositReport{
				Address:    w.VerifyingKey(),
				Contract:   s.settings.SubscriptionContract,
				Deposit:    deposit,
				Subscribed: deposit > 0,
			}, nil, false)
		},
	}
	return cmd
}
