// Package otp реализует вход по одноразовым кодам: выдачу кода на email
// и его проверку с однократным потреблением.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	jwtlib "github.com/magabrotheeeer/microlearn/internal/lib/jwt"
	"github.com/magabrotheeeer/microlearn/internal/lib/sl"
	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/storage/repository"
)

// Время жизни одноразового кода.
const codeTTL = 10 * time.Minute

// Ошибки проверки кода. Обработчики переводят их в HTTP-статусы.
var (
	// ErrUserNotFound — на email не зарегистрирован пользователь.
	ErrUserNotFound = errors.New("user not found")
	// ErrCodeNotFound — для email нет записи кода.
	ErrCodeNotFound = errors.New("otp code not found")
	// ErrCodeUsed — код уже был потреблён.
	ErrCodeUsed = errors.New("otp code already used")
	// ErrCodeExpired — срок действия кода истёк.
	ErrCodeExpired = errors.New("otp code expired")
	// ErrCodeMismatch — переданный код не совпадает с выданным.
	ErrCodeMismatch = errors.New("otp code mismatch")
)

// Repository описывает методы хранилища, нужные для входа по коду.
type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	UpsertOtpCode(ctx context.Context, code models.OtpCode) error
	GetOtpCodeByEmail(ctx context.Context, email string) (*models.OtpCode, error)
	MarkOtpCodeUsed(ctx context.Context, id int64) error
}

// Notifier отправляет код пользователю по внешнему каналу.
type Notifier interface {
	SendOtp(ctx context.Context, msg models.OtpMessage) error
}

// Service реализует выдачу и проверку одноразовых кодов.
type Service struct {
	repo     Repository
	notifier Notifier
	jwtMaker jwtlib.Maker
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, notifier Notifier, jwtMaker jwtlib.Maker, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		jwtMaker: jwtMaker,
		log:      log,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RequestCode генерирует 6-значный код для email, сохраняет его (перекрывая
// предыдущий) и отправляет через внешний канал. Код вызывающему не возвращается.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	const op = "otp.RequestCode"

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	record := models.OtpCode{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: now.Add(codeTTL),
		CreatedAt: now,
	}
	if err := s.repo.UpsertOtpCode(ctx, record); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.SendOtp(ctx, models.OtpMessage{
		Email:    user.Email,
		UserName: user.Name,
		Code:     code,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("otp code issued", slog.String("email", email))
	return nil
}

// VerifyCode проверяет код для email. Успешная проверка потребляет код,
// проставляет время входа и возвращает профиль пользователя с токеном сессии.
// Истёкший код помечается потреблённым, чтобы поздний повтор того же кода
// не рассматривался заново.
func (s *Service) VerifyCode(ctx context.Context, email, submitted string) (*models.User, string, error) {
	const op = "otp.VerifyCode"

	record, err := s.repo.GetOtpCodeByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrCodeNotFound
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	if record.Used {
		return nil, "", ErrCodeUsed
	}

	now := s.now()
	if now.After(record.ExpiresAt) {
		if err := s.repo.MarkOtpCodeUsed(ctx, record.ID); err != nil {
			s.log.Error("failed to mark expired code used", sl.Err(err))
		}
		return nil, "", ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(submitted)) != 1 {
		return nil, "", ErrCodeMismatch
	}

	if err := s.repo.MarkOtpCodeUsed(ctx, record.ID); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateLastLogin(ctx, record.UserID, now); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("otp code verified", slog.String("email", email))
	return user, token, nil
}

// Profile возвращает профиль пользователя по идентификатору из токена.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	const op = "otp.Profile"

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// generateCode возвращает равномерно случайный код из [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
