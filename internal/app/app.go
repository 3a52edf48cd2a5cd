package app

import (
	"context"
	"time"

	"github.com/carousell/ct-go/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/chat-server/internal/chat"
	"github.com/nguyentranbao-ct/chat-server/internal/config"
	"github.com/nguyentranbao-ct/chat-server/internal/relay"
	"github.com/nguyentranbao-ct/chat-server/internal/repo/blob"
	"github.com/nguyentranbao-ct/chat-server/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-server/internal/server"
	"github.com/nguyentranbao-ct/chat-server/internal/usecase"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newMongoDB,
			newBlobStore,
			newHub,
			chat.NewTypingTrackerFor,
			chat.NewGateway,
			relay.NewEventRelay,

			server.NewController,
			server.NewAuthController,
			server.NewRoomController,
			server.NewMessageController,
			server.NewFileController,

			usecase.NewAuthUsecase,
			usecase.NewRoomUsecase,
			usecase.NewMessageUsecase,
			usecase.NewFileUsecase,

			mongodb.NewUserRepository,
			mongodb.NewRoomRepository,
			mongodb.NewMessageRepository,
			mongodb.NewFavoriteRepository,
			mongodb.NewFileRepository,
		),
		fx.Supply(conf),
		fx.Invoke(funcs...),
	)
}

func newMongoDB(lc fx.Lifecycle, conf *config.Config) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := mongodb.NewConnection(ctx, conf.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return mongodb.EnsureIndexes(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	})
	return db, nil
}

func newBlobStore(conf *config.Config) (blob.Store, error) {
	return blob.NewDiskStore(conf.Blob.Dir)
}

// newHub provides the hub both as itself (for the gateway) and as the
// usecases' Broadcaster, and ties its run loop to the app lifecycle.
func newHub(lc fx.Lifecycle, conf *config.Config, eventRelay chat.EventRelay) (*chat.Hub, usecase.Broadcaster) {
	hub := chat.NewHub(conf, eventRelay)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return hub, hub
}
