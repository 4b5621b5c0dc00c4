package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/memory"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/postgres"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

type repositories struct {
	rooms    repository.RoomRepository
	presence repository.PresenceRepository
	close    func() error
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repos, err := openRepositories(ctx, log, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = repos.close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	hub := websocket.NewHub(logger)

	roomManager := usecase.NewRoomManager(logger, repos.rooms,
		usecase.WithCodeAttempts(conf.Room.CodeAttempts),
		usecase.WithRoomNotifier(hub),
	)
	presenceTracker := usecase.NewPresenceTracker(logger, repos.presence,
		usecase.WithPresenceNotifier(hub),
	)

	restServer := rest.New(logger, rest.Options{
		Port:              conf.HTTPPort,
		AllowOrigins:      conf.CORS.AllowOrigins,
		RequestsPerMinute: conf.RateLimit.RequestsPerMinute,
		Burst:             conf.RateLimit.Burst,
		LivenessWindow:    conf.Presence.LivenessWindow,
		ShutdownTimeout:   conf.ShutdownTimeout,
	}, roomManager, presenceTracker)

	wsServer := websocket.New(logger, hub, roomManager, presenceTracker)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := restServer.Start(groupCtx); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := wsServer.Start(groupCtx, conf.SocketPort, conf.ShutdownTimeout); err != nil {
			return fmt.Errorf("WebSocket server error: %w", err)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application stopped")

	return nil
}

// openRepositories - picks the room and presence storage by the configured driver.
func openRepositories(ctx context.Context, log *slog.Logger, conf *config.Config) (*repositories, error) {
	switch conf.Storage.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage, rooms are lost on restart")

		return &repositories{
			rooms:    memory.NewRoomRepository(),
			presence: memory.NewPresenceRepository(),
			close:    func() error { return nil },
		}, nil

	case config.StoragePostgres:
		db, err := storage.NewPostgres(ctx, conf.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("could not connect to postgres storage: %w", err)
		}

		if err = db.Init(ctx, postgres.Models()...); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("could not migrate postgres storage: %w", err)
		}

		log.Info("Connected to postgres storage")

		return &repositories{
			rooms:    postgres.NewRoomRepository(db.Connection),
			presence: postgres.NewPresenceRepository(db.Connection),
			close:    db.Close,
		}, nil

	default:
		client, err := storage.NewRedis(ctx, storage.RedisOptions{
			Addr:     conf.Redis.GetRedisAddr(),
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		log.Info("Connected to redis storage", "addr", conf.Redis.GetRedisAddr())

		return &repositories{
			rooms:    repository.NewRoomRepository(client),
			presence: repository.NewPresenceRepository(client),
			close:    client.Close,
		}, nil
	}
}
