// Package stats реализует HTTP-обработчик сводки по доставкам.
//
// Handler возвращает количество ожидающих записей, отправленных за сутки
// и последние доставки. Параметр user_id ограничивает сводку одним
// пользователем. Чтение без побочных эффектов.
package stats

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/microlearn/internal/http/response"
	"github.com/magabrotheeeer/microlearn/internal/lib/sl"
	"github.com/magabrotheeeer/microlearn/internal/models"
)

// Handler управляет HTTP-запросами на чтение сводки доставок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения сводки планировщика.
type Service interface {
	Stats(ctx context.Context, userID *int64) (*models.SchedulerStats, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка по доставкам
// @Description Возвращает количество ожидающих и отправленных доставок и последние отправки.
// @Tags Deliveries
// @Produce  json
// @Security BearerAuth
// @Param user_id query int false "Ограничить сводку одним пользователем"
// @Success 200 {object} response.Response "Сводка"
// @Failure 400 {object} response.ErrorResponse "Некорректный user_id"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /deliveries/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.delivery.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var userID *int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			log.Error("invalid user_id query parameter", slog.String("user_id", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid user_id"))
			return
		}
		userID = &id
	}

	result, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		log.Error("failed to read delivery stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read delivery stats"))
		return
	}

	render.JSON(w, r, response.OKWithData(result))
}
