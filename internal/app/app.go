// Package app собирает сервис из частей, выбранных конфигурацией.
// Все зависимости создаются здесь и передаются явно, глобального
// состояния нет нигде, кроме логгера.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"taskShare/internal/cache"
	"taskShare/internal/config"
	"taskShare/internal/handlers"
	"taskShare/internal/identity"
	"taskShare/internal/logger"
	"taskShare/internal/mailer"
	"taskShare/internal/middleware"
	"taskShare/internal/notifier"
	pg "taskShare/internal/repository/postgres"
	sharemem "taskShare/internal/repository/share/inmemory"
	sharepg "taskShare/internal/repository/share/postgres"
	taskmem "taskShare/internal/repository/task/inmemory"
	taskpg "taskShare/internal/repository/task/postgres"
	usermem "taskShare/internal/repository/user/inmemory"
	userpg "taskShare/internal/repository/user/postgres"
	"taskShare/internal/scheduler"
	"taskShare/internal/service"
	"taskShare/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const (
	requestTimeout = 30 * time.Second
	requestsPerMin = 100
	drainTimeout   = 10 * time.Second
)

type App struct {
	config *config.Config
	server *http.Server
	worker *worker.DeadlineWorker

	// доменное ядро, доступное встраивающему коду;
	// служебный HTTP-контур им не пользуется
	Tasks  *service.TaskService
	Shares *service.ShareService

	stopWorker context.CancelFunc
	workerWG   sync.WaitGroup
	shutdowns  []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {

	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Завершение работы логгирования...")
		logger.Sync()
	})

	// хранилище
	var (
		taskRepo    service.TaskRepository
		userRepo    service.UserRepository
		shareRepo   service.ShareRepository
		storeHealth handlers.StoreHealth
	)

	switch a.config.Repository.Type {
	case "postgres":
		pool, err := pg.NewPool(ctx, pg.PoolConfig{
			URL:            a.config.Database.URL,
			MaxConnections: a.config.Database.MaxConnections,
			MinConnections: a.config.Database.MinConnections,
			IdleTimeout:    a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("App: Закрытие пула подключений...")
			pool.Close()
		})

		if a.config.Database.Migrate {
			if err := pg.Migrate(a.config.Database.URL); err != nil {
				return fmt.Errorf("миграция схемы: %w", err)
			}
		}

		taskStorage := taskpg.New(pool)
		taskRepo = taskStorage
		storeHealth = taskStorage
		userRepo = userpg.New(pool)
		shareRepo = sharepg.New(pool)

	case "inmemory":
		taskStorage := taskmem.NewTaskStorage()
		shareStorage := sharemem.NewShareStorage()
		taskStorage.AttachShares(shareStorage)

		taskRepo = taskStorage
		storeHealth = taskStorage
		userRepo = usermem.NewUserStorage()
		shareRepo = shareStorage

	default:
		return fmt.Errorf("неизвестный тип хранилища: %q", a.config.Repository.Type)
	}

	// кэш
	cacheClient, err := cache.New(ctx, cache.Config{
		Backend:  a.config.Cache.Backend,
		Addr:     a.config.Cache.Addr,
		Password: a.config.Cache.Password,
		DB:       a.config.Cache.DB,
	})
	if err != nil {
		return fmt.Errorf("подключение кэша: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Закрытие клиента кэша...")
		if err := cacheClient.Close(); err != nil {
			logger.Warn("App: Ошибка закрытия кэша", zap.Error(err))
		}
	})

	// почта
	mailerClient, err := mailer.New(mailer.Config{
		Backend:  a.config.Mailer.Backend,
		Host:     a.config.Mailer.Host,
		Port:     a.config.Mailer.Port,
		From:     a.config.Mailer.From,
		Username: a.config.Mailer.Username,
		Password: a.config.Mailer.Password,
		Timeout:  a.config.Mailer.Timeout,
	})
	if err != nil {
		return fmt.Errorf("создание почтового бэкенда: %w", err)
	}

	// аутентификация служебных маршрутов
	provider, err := identity.NewStaticProvider(a.config.Auth.Tokens)
	if err != nil {
		return fmt.Errorf("разбор таблицы токенов: %w", err)
	}
	if len(a.config.Auth.Tokens) == 0 {
		logger.Warn("App: Таблица токенов пуста, защищённые маршруты недоступны")
	}

	// доменное ядро
	authz := service.NewAuthorizer(shareRepo)
	taskService := service.NewTaskService(taskRepo, shareRepo, authz, cacheClient, a.config.Cache.VisibleTTL)
	shareService := service.NewShareService(taskRepo, userRepo, shareRepo, authz, cacheClient)
	a.Tasks = &taskService
	a.Shares = &shareService

	// рассылка
	dispatcher := notifier.NewDispatcher(taskRepo, userRepo, mailerClient)
	scanner := scheduler.New(taskRepo, userRepo, shareRepo, dispatcher, cacheClient, scheduler.Config{
		Lookahead:     a.config.Scheduler.Lookahead,
		MaxAttempts:   a.config.Scheduler.MaxAttempts,
		RetryDelay:    a.config.Scheduler.RetryDelay,
		MarkerEnabled: a.config.Scheduler.MarkerEnabled,
		MarkerTTL:     a.config.Scheduler.MarkerTTL,
	})

	if a.config.Scheduler.Enabled {
		lock := worker.NewRunLock(cacheClient, a.config.Scheduler.LockTTL)
		interval := a.config.Scheduler.Interval
		a.worker = worker.NewDeadlineWorker(scanner, lock, &interval)

		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("App: Остановка фоновой рассылки...")
			if a.stopWorker != nil {
				a.stopWorker()
			}
			a.workerWG.Wait()
		})
	}

	// HTTP-контур
	opsHandler := handlers.NewOpsHandler(storeHealth, cacheClient, scanner, dispatcher)
	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.buildRouter(&opsHandler, provider),
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Остановка HTTP-сервера...")
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := a.server.Shutdown(drainCtx); err != nil {
			logger.Warn("App: Сервер остановлен с ошибкой", zap.Error(err))
		}
	})

	return nil
}

func (a *App) buildRouter(ops *handlers.OpsHandler, provider identity.Provider) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.CorsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimit(requestsPerMin))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", ops.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(provider))

		r.Post("/scheduler/run", ops.RunScheduler) // ручной запуск прохода
		r.Post("/notify", ops.Notify)              // точечное уведомление
	})

	return r
}

// Run держит процесс до отмены контекста либо падения сервера
func (a *App) Run(ctx context.Context) error {
	if a.worker != nil {
		workerCtx, cancel := context.WithCancel(ctx)
		a.stopWorker = cancel

		a.workerWG.Add(1)
		go func() {
			defer a.workerWG.Done()
			a.worker.Start(workerCtx)
		}()
	}

	logger.Info("App: Сервер запускается", zap.String("addr", a.server.Addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown выполняет зарегистрированные остановки в обратном порядке
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
