package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/endogen/rocketbot/internal/coingecko"
	"github.com/endogen/rocketbot/internal/config"
	"github.com/endogen/rocketbot/internal/httpx"
	"github.com/endogen/rocketbot/internal/lamden"
	"github.com/endogen/rocketbot/internal/model"
	"github.com/endogen/rocketbot/internal/out"
	"github.com/endogen/rocketbot/internal/pipeline"
	"github.com/endogen/rocketbot/internal/portfolio"
	"github.com/endogen/rocketbot/internal/rberr"
	"github.com/endogen/rocketbot/internal/rocketswap"
	"github.com/endogen/rocketbot/internal/version"
	"github.com/endogen/rocketbot/internal/wallet"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner   *Runner
	flags    config.GlobalFlags
	settings config.Settings
	log      *zap.Logger

	chain      *lamden.Client
	rocket     *rocketswap.Client
	gecko      *coingecko.Client
	oracle     *portfolio.PriceOracle
	aggregator *portfolio.Aggregator
	approvals  *pipeline.ApprovalManager
	pipe       *pipeline.Pipeline

	lastCommand string
}

// outcomeExit signals that a pipeline outcome was already rendered and only
// the process exit code remains to be set.
type outcomeExit struct{ code int }

func (e *outcomeExit) Error() string { return "transaction did not succeed" }

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r, log: zap.NewNop()}
	root := state.newRootCommand()
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	if err == nil {
		return 0
	}
	var exit *outcomeExit
	if errors.As(err, &exit) {
		return exit.code
	}
	state.renderError("", err)
	return rberr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.Name,
		Short: "Lamden chain bot: transactions, portfolio reports and listing watch",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return rberr.Wrap(rberr.CodeUsage, "load configuration", err)
			}
			s.settings = settings
			s.lastCommand = trimRootPath(cmd.CommandPath())

			httpClient := httpx.New(settings.Timeout, settings.Retries)
			s.chain = lamden.New(httpClient, settings.MasternodeURL, settings.ExplorerURL)
			s.rocket = rocketswap.New(httpClient, settings.RocketswapURL)
			s.gecko = coingecko.New(httpClient, settings.CoinGeckoURL, settings.CoinGeckoAPIKey)
			s.oracle = portfolio.NewPriceOracle(s.chain, s.gecko, settings.AMMContract, settings.BaseAssetID, s.log)
			s.aggregator = portfolio.NewAggregator(s.rocket, s.oracle, s.log)
			s.approvals = pipeline.NewApprovalManager(s.chain, settings.ApprovalCeiling, settings.Stamps.Approve, s.log)
			s.pipe = pipeline.New(s.chain, s.approvals, settings.PollTimeout, settings.PollInterval, s.log)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return rberr.Wrap(rberr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Upstream request timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Retries per upstream request")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&s.flags.EnvFile, "env-file", "", "Path to .env file")
	cmd.PersistentFlags().StringVar(&s.flags.WalletSeed, "wallet-seed", "", "Hex signing seed (overrides env/seed file)")

	cmd.AddCommand(s.newSendCommand())
	cmd.AddCommand(s.newSwapCommand())
	cmd.AddCommand(s.newSubscribeCommand())
	cmd.AddCommand(s.newUnsubscribeCommand())
	cmd.AddCommand(s.newApproveCommand())
	cmd.AddCommand(s.newAccountCommand())
	cmd.AddCommand(s.newPriceCommand())
	cmd.AddCommand(s.newDepositCommand())
	cmd.AddCommand(s.newWatchCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) loadWallet() (*wallet.Wallet, error) {
	w, err := wallet.LoadFromEnv(s.settings.WalletSeed)
	if err != nil {
		return nil, rberr.Wrap(rberr.CodeUsage, "load wallet", err)
	}
	return w, nil
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string, partial bool) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: uuid.NewString(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Partial:   partial,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

// emitOutcome renders a pipeline outcome. Failure outcomes keep the outcome
// as envelope data (hash included, so the transaction stays traceable) and
// return an exit-code sentinel.
func (s *runtimeState) emitOutcome(commandPath string, outcome pipeline.Outcome) error {
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: outcome.Ok(),
		Data:    outcome,
		Meta: model.EnvelopeMeta{
			RequestID: outcome.RunID,
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
		},
	}
	code := rberr.CodeSuccess
	if !outcome.Ok() {
		var typ string
		switch {
		case outcome.Kind == pipeline.OutcomeRejectedAtSubmit:
			code, typ = rberr.CodeSubmit, "submit_rejected"
		case outcome.Reason == "timeout":
			code, typ = rberr.CodeTimeout, "confirmation_timeout"
		default:
			code, typ = rberr.CodeOnChain, "onchain_failure"
		}
		env.Error = &model.ErrorBody{Code: int(code), Type: typ, Message: outcome.Reason}
	}
	if err := out.Render(s.runner.stdout, env, s.settings); err != nil {
		return err
	}
	if !outcome.Ok() {
		return &outcomeExit{code: int(code)}
	}
	return nil
}

func (s *runtimeState) renderError(commandPath string, err error) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.Name
		}
	}
	code := rberr.ExitCode(err)
	typ := "internal_error"
	switch rberr.CodeOf(err) {
	case rberr.CodeUsage:
		typ = "usage_error"
	case rberr.CodeValidation:
		typ = "validation_error"
	case rberr.CodeApproval:
		typ = "approval_failed"
	case rberr.CodeSubmit:
		typ = "submit_rejected"
	case rberr.CodeOnChain:
		typ = "onchain_failure"
	case rberr.CodeTimeout:
		typ = "confirmation_timeout"
	case rberr.CodeUnavailable:
		typ = "upstream_unavailable"
	case rberr.CodeRateLimited:
		typ = "rate_limited"
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Data:    []any{},
		Error: &model.ErrorBody{
			Code:    code,
			Type:    typ,
			Message: rberr.Message(err),
		},
		Meta: model.EnvelopeMeta{
			RequestID: uuid.NewString(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func trimRootPath(path string) string {
	trimmed := strings.TrimPrefix(path, version.Name)
	return strings.TrimSpace(trimmed)
}
