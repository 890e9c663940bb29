// Package purchase реализует HTTP-обработчик покупки отдельной темы.
//
// Handler принимает идентификатор темы и сумму, создаёт заказ у платёжного
// шлюза и оформляет покупку: право на тему, платёж и доставку первого дня.
package purchase

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
	"github.com/magabrotheeeer/microlearn/internal/paymentprovider"
	"github.com/magabrotheeeer/microlearn/internal/services/subscription"
)

// Валюта покупок отдельных тем.
const purchaseCurrency = "INR"

// Handler управляет HTTP-запросами на покупку темы.
type Handler struct {
	log      *slog.Logger
	service  Service
	provider Provider
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики покупки темы.
type Service interface {
	PurchaseTopic(ctx context.Context, userID int64, req models.DummyTopicPurchase, providerPaymentID, currency string) (*models.PurchaseResult, error)
}

// Provider описывает интерфейс клиента платёжного шлюза.
type Provider interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*paymentprovider.Order, error)
}

// New создает новый Handler с переданными логгером, сервисом и клиентом шлюза.
func New(log *slog.Logger, service Service, provider Provider) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		provider: provider,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Купить отдельную тему
// @Description Создает заказ у платёжного шлюза и оформляет право на тему с доставкой первого дня.
// @Tags Topics
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyTopicPurchase true "Тема и сумма"
// @Success 200 {object} response.Response "Покупка оформлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неизвестная тема"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Тема уже куплена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Шлюз недоступен"
// @Router /topics/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.topic.purchase"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyTopicPurchase
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

	gwOrder, err := h.provider.CreateOrder(r.Context(), req.Amount, purchaseCurrency)
	if err != nil {
		log.Error("failed to create gateway order", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment gateway unavailable"))
		return
	}

	result, err := h.service.PurchaseTopic(r.Context(), userID, req, gwOrder.ID, purchaseCurrency)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrTopicNotFound):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("topic not found"))
		case errors.Is(err, subscription.ErrTopicAlreadyOwned):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("topic already owned"))
		default:
			log.Error("failed to purchase topic", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not purchase topic"))
		}
		return
	}

	log.Info("topic purchased",
		slog.Int64("user_id", userID),
		slog.Int64("topic_id", req.TopicID))
	render.JSON(w, r, response.OKWithData(result))
}
