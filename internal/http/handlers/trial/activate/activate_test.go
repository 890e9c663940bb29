package activate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/microlearn/internal/http/middlewarectx"
	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/services/trial"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Activate(ctx context.Context, userID int64, req models.DummyTrialActivation) (*models.TrialResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrialResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func validBody() models.DummyTrialActivation {
	return models.DummyTrialActivation{
		PlanName: "trial",
		Preferences: &models.DummyPreferences{
			Topics: []string{"5", "7"},
		},
	}
}

func TestActivateHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(ServiceMock)
	handler := New(newNoopLogger(), serviceMock)

	trialEnd := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		requestBody    any
		withUser       bool
		mockResult     *models.TrialResult
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantError      string
	}{
		{
			name:           "valid activation",
			requestBody:    validBody(),
			withUser:       true,
			mockResult:     &models.TrialResult{PaymentID: 1, SubscriptionID: 2, TrialEnd: trialEnd},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			withUser:       true,
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "missing auth context",
			requestBody:    validBody(),
			withUser:       false,
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
			wantError:      "unauthorized",
		},
		{
			name:           "active subscription conflict",
			requestBody:    validBody(),
			withUser:       true,
			mockErr:        trial.ErrActiveSubscription,
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
			wantError:      "active subscription already exists",
		},
		{
			name:           "trial already used",
			requestBody:    validBody(),
			withUser:       true,
			mockErr:        trial.ErrTrialAlreadyUsed,
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
			wantError:      "trial already used",
		},
		{
			name:           "unknown topics",
			requestBody:    validBody(),
			withUser:       true,
			mockErr:        &trial.UnknownTopicsError{TopicIDs: []int64{999}},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "unknown topics: 999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockResult != nil || tt.mockErr != nil {
				serviceMock.On("Activate", mock.Anything, int64(7), mock.Anything).
					Return(tt.mockResult, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/trial/activate", bytes.NewReader(bodyBytes))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.withUser {
				ctx = context.WithValue(ctx, middlewarectx.UserID, int64(7))
			}
			req = req.WithContext(ctx)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
