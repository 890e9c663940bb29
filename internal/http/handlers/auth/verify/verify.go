// Package verify реализует HTTP-обработчик проверки одноразового кода входа.
//
// Handler принимает JSON-запрос с email и кодом, вызывает сервис проверки
// и при успехе возвращает профиль пользователя с токеном сессии.
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

	"github.com/magabrotheeeer/microlearn/internal/http/response"
	"github.com/magabrotheeeer/microlearn/internal/lib/sl"
	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/services/otp"
)

// Handler управляет HTTP-запросами на проверку одноразового кода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики проверки кода.
type Service interface {
	VerifyCode(ctx context.Context, email, submitted string) (*models.User, string, error)
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
// @Summary Проверить одноразовый код входа
// @Description Проверяет код для email. Успешная проверка потребляет код и возвращает токен сессии.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyOtpVerify true "Email и код"
// @Success 200 {object} response.Response "Вход выполнен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Код не подошёл"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/otp/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyOtpVerify
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

	user, token, err := h.service.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeNotFound),
			errors.Is(err, otp.ErrCodeUsed),
			errors.Is(err, otp.ErrCodeExpired),
			errors.Is(err, otp.ErrCodeMismatch):
			// Причина отказа не раскрывается, чтобы не упрощать перебор.
			log.Info("otp verification rejected", slog.String("email", req.Email), sl.Err(err))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid or expired code"))
			return
		default:
			log.Error("failed to verify otp code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not verify code"))
			return
		}
	}

	log.Info("user logged in", slog.Int64("user_id", user.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user": map[string]any{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	}))
}
