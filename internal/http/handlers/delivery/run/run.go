// Package run реализует HTTP-обработчик ручного запуска цикла доставки.
//
// Handler запускает один цикл планировщика и возвращает его итог:
// сколько записей обработано, отправлено и сколько отправок не удалось.
package run

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/microlearn/internal/http/response"
	"github.com/magabrotheeeer/microlearn/internal/lib/sl"
	"github.com/magabrotheeeer/microlearn/internal/models"
)

// Handler управляет HTTP-запросами на запуск цикла доставки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс планировщика доставки.
type Service interface {
	RunDeliveryCycle(ctx context.Context) (*models.CycleResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить цикл доставки
// @Description Выполняет один цикл доставки контента и возвращает его итог.
// @Tags Deliveries
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Итог цикла"
// @Failure 500 {object} response.ErrorResponse "Цикл не выполнен"
// @Router /deliveries/run [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.delivery.run"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.service.RunDeliveryCycle(r.Context())
	if err != nil {
		log.Error("failed to run delivery cycle", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not run delivery cycle"))
		return
	}

	log.Info("delivery cycle executed",
		slog.Int("total", result.Total),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed))
	render.JSON(w, r, response.OKWithData(result))
}
