// Package activate реализует HTTP-обработчик активации пробного периода.
//
// Handler принимает JSON-запрос с именем плана и настройками доставки,
// валидирует их, извлекает пользователя из контекста и вызывает сервис
// активации. Нарушение любого предусловия возвращает ошибку без записи.
package activate

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
	"github.com/magabrotheeeer/microlearn/internal/services/trial"
)

// Handler управляет HTTP-запросами на активацию пробного периода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики активации пробного периода.
type Service interface {
	Activate(ctx context.Context, userID int64, req models.DummyTrialActivation) (*models.TrialResult, error)
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
// @Summary Активировать пробный период
// @Description Создает пробную подписку, настройки доставки и расписание первого дня для выбранных тем.
// @Tags Trial
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyTrialActivation true "План и настройки доставки"
// @Success 200 {object} response.Response "Пробный период активирован"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неизвестные темы"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Есть действующая подписка или пробный период уже был"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /trial/activate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.activate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyTrialActivation
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

	result, err := h.service.Activate(r.Context(), userID, req)
	if err != nil {
		var unknownErr *trial.UnknownTopicsError
		switch {
		case errors.Is(err, trial.ErrNotTrialPlan):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("plan is not a trial plan"))
		case errors.Is(err, trial.ErrActiveSubscription):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("active subscription already exists"))
		case errors.Is(err, trial.ErrTrialAlreadyUsed):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("trial already used"))
		case errors.Is(err, trial.ErrNoValidTopics):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("no valid topics in preferences"))
		case errors.As(err, &unknownErr):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(unknownErr.Error()))
		default:
			log.Error("failed to activate trial", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not activate trial"))
			return
		}
		log.Info("trial activation rejected", slog.Int64("user_id", userID), sl.Err(err))
		return
	}

	log.Info("trial activated",
		slog.Int64("user_id", userID),
		slog.Int64("subscription_id", result.SubscriptionID))
	render.JSON(w, r, response.OKWithData(result))
}
