package handler

//go:generate mockgen -source=handler.go -destination=mocks/customer-mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tienda/internal/customer/handler/mocks"
	"tienda/internal/customer/models"
	dErrors "tienda/pkg/domain-errors"
)

type CustomerHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *CustomerHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestCustomerHandlerSuite(t *testing.T) {
	suite.Run(t, new(CustomerHandlerSuite))
}

func newTestHandler(t *testing.T) (*chi.Mux, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

func (s *CustomerHandlerSuite) TestCreate() {
	r, mockService := newTestHandler(s.T())
	birth := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&models.Customer{ID: 1, FirstName: "Ana", LastName: "Silva", BirthDate: birth}, nil)

	body := `{"first_name":"Ana","last_name":"Silva","second_last_name":"Mora",` +
		`"national_id":"X1234567","email":"ana@example.com","phone":"+34 600 000 000",` +
		`"tax_id":"B-7654321","birth_date":"1990-04-12T00:00:00Z","birth_country":"Spain"}`
	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), float64(1), resp["id"])
	assert.Equal(s.T(), "Ana", resp["first_name"])
}

func (s *CustomerHandlerSuite) TestCreate_MalformedBody() {
	r, _ := newTestHandler(s.T())

	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *CustomerHandlerSuite) TestCreate_ValidationEnvelope() {
	r, mockService := newTestHandler(s.T())
	mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "email is not a valid address"))

	body := `{"first_name":"Ana"}`
	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "validation_error", resp["error"])
	assert.Equal(s.T(), "email is not a valid address", resp["error_description"])
}

func (s *CustomerHandlerSuite) TestList() {
	r, mockService := newTestHandler(s.T())
	mockService.EXPECT().List(gomock.Any()).
		Return([]*models.Customer{{ID: 1}, {ID: 2}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp []map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(s.T(), resp, 2)
}

func (s *CustomerHandlerSuite) TestUpdate_BadID() {
	r, _ := newTestHandler(s.T())

	req := httptest.NewRequest(http.MethodPut, "/customers/abc", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *CustomerHandlerSuite) TestDelete() {
	r, mockService := newTestHandler(s.T())
	mockService.EXPECT().Delete(gomock.Any(), int64(3)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/customers/3", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusNoContent, w.Code)
}

func (s *CustomerHandlerSuite) TestDelete_Conflict() {
	r, mockService := newTestHandler(s.T())
	mockService.EXPECT().Delete(gomock.Any(), int64(3)).
		Return(dErrors.New(dErrors.CodeConflict, "customer has registered sales"))

	req := httptest.NewRequest(http.MethodDelete, "/customers/3", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusConflict, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "conflict", resp["error"])
}
