package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskShare/internal/logger"
	"taskShare/internal/middleware"
	"taskShare/internal/notifier"
	"taskShare/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OpsHandler держит служебную поверхность сервиса: живость,
// ручной запуск планировщика и точечное уведомление. Доменного
// CRUD-API здесь нет.
type OpsHandler struct {
	store      StoreHealth
	cache      CacheHealth
	scanner    ScanRunner
	dispatcher NotificationDispatcher
}

func NewOpsHandler(store StoreHealth, cache CacheHealth, scanner ScanRunner, dispatcher NotificationDispatcher) OpsHandler {
	return OpsHandler{
		store:      store,
		cache:      cache,
		scanner:    scanner,
		dispatcher: dispatcher,
	}
}

func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	status := http.StatusOK
	storeStatus := "ok"
	cacheStatus := "ok"

	if err := h.store.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Хранилище недоступно", zap.Error(err))
		storeStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if err := h.cache.Ping(r.Context()); err != nil {
		logger.Warn("HTTP: Кэш недоступен", zap.Error(err))
		cacheStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	responseWithJSON(w, status,
		toPayload("status", overall),
		toPayload("store", storeStatus),
		toPayload("cache", cacheStatus),
	)
}

// RunScheduler выполняет один проход рассылки здесь и сейчас.
// Повторов у ручного запуска нет: об итоге узнаёт вызывающий
// и решает сам.
func (h *OpsHandler) RunScheduler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	principal := middleware.GetPrincipal(r.Context())
	if principal == uuid.Nil {
		handleBusinessError(w, service.NewUnauthenticated())
		return
	}

	logger.Info("HTTP: Ручной запуск планировщика",
		zap.String("principal", principal.String()))

	summary, err := h.scanner.ScanOnce(r.Context())
	if err != nil {

		logger.Error("HTTP: Ошибка планировщика", err,
			zap.String("operation", "scheduler_run"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))

		handleBusinessError(w, service.NewTransientFailure("проход планировщика не удался", err))
		return
	}

	logger.Info("HTTP_OUT: Проход планировщика завершён",
		zap.Int("tasks_processed", summary.TasksProcessed),
		zap.Int("emails_sent", summary.EmailsSent),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithObject(w, http.StatusOK, summary)
}

type NotifyRequest struct {
	TaskID    string `json:"task_id"`
	Reason    string `json:"reason"`
	Recipient string `json:"recipient"`
}

// Notify отправляет одно точечное уведомление. Исход доставки всегда
// в теле ответа: ошибка доставки это не ошибка запроса.
func (h *OpsHandler) Notify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {

		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {

		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	taskID, err := uuid.Parse(request.TaskID)
	if err != nil {

		logger.Warn("HTTP: Не удалось получить task_id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить task_id:"+err.Error())
		return
	}

	if taskID == uuid.Nil {

		logger.Warn("HTTP: Неверное значение task_id",
			zap.String("error", "nil id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "task_id не может быть пустым")
		return
	}

	result := h.dispatcher.Notify(r.Context(), taskID, notifier.Reason(request.Reason), request.Recipient)

	logger.Info("HTTP_OUT: Уведомление обработано",
		zap.String("status", result.Status),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithObject(w, http.StatusOK, result)
}
