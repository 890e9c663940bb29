// Package order реализует HTTP-обработчик создания заказа у платёжного шлюза.
//
// Handler принимает сумму и валюту, создаёт заказ через клиента шлюза и
// возвращает его данные клиентскому приложению для оплаты на своей стороне.
package order

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/microlearn/internal/http/middlewarectx"
	"github.com/magabrotheeeer/microlearn/internal/http/response"
	"github.com/magabrotheeeer/microlearn/internal/lib/sl"
	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/paymentprovider"
)

// Handler управляет HTTP-запросами на создание заказа.
type Handler struct {
	log      *slog.Logger
	provider Provider
	validate *validator.Validate
}

// Provider описывает интерфейс клиента платёжного шлюза.
type Provider interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*paymentprovider.Order, error)
}

// New создает новый Handler с переданными логгером и клиентом шлюза.
func New(log *slog.Logger, provider Provider) *Handler {
	return &Handler{
		log:      log,
		provider: provider,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать заказ у платёжного шлюза
// @Description Создает заказ на указанную сумму. Оплату заказа выполняет клиентское приложение.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyOrderCreate true "Сумма и валюта"
// @Success 200 {object} response.Response "Заказ создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Шлюз недоступен"
// @Router /payments/order [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.order"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyOrderCreate
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

	result, err := h.provider.CreateOrder(r.Context(), req.Amount, req.Currency)
	if err != nil {
		log.Error("failed to create gateway order", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment gateway unavailable"))
		return
	}

	log.Info("gateway order created",
		slog.Int64("user_id", userID),
		slog.String("order_id", result.ID))
	render.JSON(w, r, response.OKWithData(result))
}
