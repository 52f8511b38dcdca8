// Package app composes the client from its parts: config, logging, the
// profile lock, the REST gateway, the session controller, the realtime
// channel, the conversation coordinator, and the TUI shell.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/securechat/msgr/internal/api"
	"github.com/securechat/msgr/internal/bus"
	"github.com/securechat/msgr/internal/config"
	"github.com/securechat/msgr/internal/conversation"
	"github.com/securechat/msgr/internal/lock"
	"github.com/securechat/msgr/internal/logging"
	"github.com/securechat/msgr/internal/profile"
	"github.com/securechat/msgr/internal/realtime"
	"github.com/securechat/msgr/internal/rest"
	"github.com/securechat/msgr/internal/session"
	"github.com/securechat/msgr/internal/tui"
)

// Params holds the resolved invocation parameters passed to the fx module.
type Params struct {
	Profile        string
	ServerOverride string // --server flag; empty = use config
}

// Module returns the fx module for the client, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("msgr",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideGateway,
			provideAuthClient,
			provideChatClient,
			provideController,
			provideChannel,
			provideCoordinator,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		return nil, err
	}
	if p.ServerOverride != "" {
		cfg.ServerURL = p.ServerOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogDir(p.Profile), p.Profile)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("profile", p.Profile))
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) *session.Store {
	return session.NewStore(profile.SessionPath(p.Profile), logger)
}

func provideGateway(cfg *config.Config, logger *zap.Logger) *rest.Gateway {
	return rest.New(cfg.ServerURL, logger)
}

func provideAuthClient(gw *rest.Gateway) *api.AuthClient {
	return api.NewAuthClient(gw)
}

func provideChatClient(gw *rest.Gateway) *api.ChatClient {
	return api.NewChatClient(gw)
}

func provideController(store *session.Store, auth *api.AuthClient, b *bus.Bus, logger *zap.Logger) *session.Controller {
	return session.NewController(store, auth, b, logger)
}

func provideChannel(cfg *config.Config, controller *session.Controller, b *bus.Bus, logger *zap.Logger) *realtime.Channel {
	return realtime.NewChannel(cfg.ResolvedHubURL(), controller.Token, b, logger)
}

func provideCoordinator(chats *api.ChatClient, channel *realtime.Channel, controller *session.Controller, b *bus.Bus, logger *zap.Logger) *conversation.Coordinator {
	return conversation.New(chats, channel, controller, b, logger)
}

func provideApp(controller *session.Controller, coordinator *conversation.Coordinator, channel *realtime.Channel, b *bus.Bus, p Params, logger *zap.Logger) *tui.App {
	return tui.NewApp(controller, coordinator, channel, b, p.Profile, logger)
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, app *tui.App, coordinator *conversation.Coordinator, channel *realtime.Channel, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			coordinator.Start(context.Background())

			// The TUI owns the foreground; when it exits, bring the
			// whole app down.
			go func() {
				if err := app.Run(); err != nil {
					logger.Error("tui error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()

			return nil
		},
		OnStop: func(_ context.Context) error {
			app.Stop()
			channel.Stop()
			coordinator.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
