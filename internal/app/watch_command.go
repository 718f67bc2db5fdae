package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/endogen/rocketbot/internal/metrics"
	"github.com/endogen/rocketbot/internal/rberr"
	"github.com/endogen/rocketbot/internal/store"
	"github.com/endogen/rocketbot/internal/watcher"
)

// chatNotifier emits listing announcements as JSON lines addressed to the
// configured chats. Delivery to the actual chat transport is owned by the
// process consuming this stream.
type chatNotifier struct {
	w            io.Writer
	listingChat  string
	operatorChat string
}

type listingMessage struct {
	Chat         string          `json:"chat,omitempty"`
	OperatorChat string          `json:"operator_chat,omitempty"`
	Event        string          `json:"event"`
	Listing      watcher.Listing `json:"listing"`
}

func (n *chatNotifier) NotifyListing(_ context.Context, listing watcher.Listing) error {
	msg := listingMessage{
		Chat:         n.listingChat,
		OperatorChat: n.operatorChat,
		Event:        "new_listing",
		Listing:      listing,
	}
	return json.NewEncoder(n.w).Encode(msg)
}

type seenStore interface {
	watcher.SeenStore
	Close() error
}

func (s *runtimeState) openSeenStore() (seenStore, error) {
	switch s.settings.StoreBackend {
	case "redis":
		st, err := store.OpenRedis(s.settings.RedisAddr, s.settings.RedisPassword, s.settings.RedisDB)
		if err != nil {
			return nil, rberr.Wrap(rberr.CodeUnavailable, "open redis store", err)
		}
		return st, nil
	default:
		st, err := store.OpenSQLite(s.settings.StorePath, s.settings.StoreLockPath)
		if err != nil {
			return nil, rberr.Wrap(rberr.CodeInternal, "open sqlite store", err)
		}
		return st, nil
	}
}

func (s *runtimeState) newWatchCommand() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the AMM for new token listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := zap.NewProduction()
			if err != nil {
				return rberr.Wrap(rberr.CodeInternal, "init logger", err)
			}
			defer func() { _ = log.Sync() }()
			s.log = log

			seen, err := s.openSeenStore()
			if err != nil {
				return err
			}
			defer func() { _ = seen.Close() }()

			notifier := &chatNotifier{
				w:            s.runner.stdout,
				listingChat:  s.settings.ListingChat,
				operatorChat: s.settings.OperatorChat,
			}
			w := watcher.New(s.rocket, seen, notifier, s.settings.WatchInterval, log)

			if once {
				announced, err := w.Tick(cmd.Context())
				if err != nil {
					return err
				}
				if announced == nil {
					announced = []watcher.Listing{}
				}
				return s.emitSuccess(trimRootPath(cmd.CommandPath()), announced, nil, false)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics.Serve(ctx, s.settings.MetricsAddr, nil, log)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single discovery tick and exit")
	return cmd
}
