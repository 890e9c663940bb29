// Package verify реализует HTTP-обработчик проверки платежа.
//
// Handler принимает данные клиентского чекаута, валидирует их и вызывает
// сервис проверки подписи. Несовпадение подписи возвращает 400 и ничего
// не пишет в хранилище.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/microlearn/internal/http/middlewarectx"
	"github.com/magabrotheeeer/microlearn/internal/http/response"
	"github.com/magabrotheeeer/microlearn/internal/lib/sl"
	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/services/payment"
)

// Handler управляет HTTP-запросами на проверку платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики проверки платежа.
type Service interface {
	Verify(ctx context.Context, userID int64, req models.DummyPaymentVerify) (*models.PaymentResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Проверить платёж
// @Description Сверяет подпись платёжного провайдера и при совпадении записывает платёж и активирует подписку.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyPaymentVerify true "Данные чекаута"
// @Success 200 {object} response.Response "Платёж принят"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, подпись не совпала или неизвестный план"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPaymentVerify
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Verify(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			log.Info("payment signature rejected",
				slog.Int64("user_id", userID),
				slog.String("order_id", req.OrderID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("payment verification failed"))
		case errors.Is(err, payment.ErrUnknownPlan):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown plan"))
		default:
			log.Error("failed to verify payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not verify payment"))
		}
		return
	}

	log.Info("payment verified",
		slog.Int64("user_id", userID),
		slog.Int64("payment_id", result.PaymentID))
	render.JSON(w, r, response.OKWithData(result))
}
