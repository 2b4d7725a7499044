package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
	"github.com/finbooks/finbooks_backend/internal/utils"
)

// --- Mock InvoiceService ---
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, tenantID string, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) GetInvoiceByID(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) ListInvoices(ctx context.Context, tenantID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListInvoicesResponse), args.Error(1)
}
func (m *MockInvoiceService) UpdateDraftInvoice(ctx context.Context, tenantID string, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) SubmitInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) ApproveInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) PostInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) CancelInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

var _ portssvc.InvoiceSvcFacade = (*MockInvoiceService)(nil)

// --- Test Suite ---
type InvoiceHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockInvoiceService *MockInvoiceService
	jwtSecret          string

	tenantID string
	userID   string
}

func (suite *InvoiceHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	registerValidations()
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()

	suite.mockInvoiceService = new(MockInvoiceService)

	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(suite.jwtSecret))
	registerInvoiceRoutes(v1, suite.mockInvoiceService)
}

func (suite *InvoiceHandlerTestSuite) authHeader() string {
	token, err := utils.GenerateJWT(suite.userID, suite.tenantID, suite.jwtSecret, time.Hour, "finbooks-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return "Bearer " + token
}

func (suite *InvoiceHandlerTestSuite) doJSON(method, url string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Authorization", suite.authHeader())
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *InvoiceHandlerTestSuite) createRequest() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		InvoiceType:  domain.SalesInvoice,
		PartyType:    domain.PartyCustomer,
		PartyID:      uuid.NewString(),
		CurrencyCode: "USD",
		InvoiceDate:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Lines: []dto.CreateInvoiceLineRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(500), TaxRate: decimal.NewFromInt(15)},
		},
	}
}

func (suite *InvoiceHandlerTestSuite) TestCreateInvoice_Success() {
	req := suite.createRequest()
	expected := &domain.Invoice{
		InvoiceID:    uuid.NewString(),
		TenantID:     suite.tenantID,
		InvoiceType:  domain.SalesInvoice,
		CurrencyCode: "USD",
		Status:       domain.StatusDraft,
		TotalAmount:  decimal.NewFromInt(5750),
	}

	suite.mockInvoiceService.On("CreateInvoice",
		mock.Anything,
		suite.tenantID,
		mock.MatchedBy(func(r dto.CreateInvoiceRequest) bool {
			return r.InvoiceType == domain.SalesInvoice && len(r.Lines) == 1
		}),
		suite.userID,
	).Return(expected, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/invoices", req)

	suite.Equal(http.StatusCreated, w.Code)
	var got domain.Invoice
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(expected.InvoiceID, got.InvoiceID)
	suite.Equal(domain.StatusDraft, got.Status)
	suite.mockInvoiceService.AssertExpectations(suite.T())
}

func (suite *InvoiceHandlerTestSuite) TestCreateInvoice_InvalidBody() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/invoices", bytes.NewReader([]byte(`{"invoiceType":`)))
	req.Header.Set("Authorization", suite.authHeader())
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockInvoiceService.AssertNotCalled(suite.T(), "CreateInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceHandlerTestSuite) TestCreateInvoice_ZeroQuantityRejectedByBinding() {
	req := suite.createRequest()
	req.Lines[0].Quantity = decimal.Zero

	w := suite.doJSON(http.MethodPost, "/api/v1/invoices", req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockInvoiceService.AssertNotCalled(suite.T(), "CreateInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceHandlerTestSuite) TestCreateInvoice_MissingToken() {
	payload, _ := json.Marshal(suite.createRequest())
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/invoices", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *InvoiceHandlerTestSuite) TestPostInvoice_IllegalTransition() {
	invoiceID := uuid.NewString()
	suite.mockInvoiceService.On("PostInvoice", mock.Anything, suite.tenantID, invoiceID, suite.userID).
		Return(nil, fmt.Errorf("%w: POST not allowed from DRAFT", apperrors.ErrStateTransition)).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/invoices/"+invoiceID+"/post", nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *InvoiceHandlerTestSuite) TestPostInvoice_AlreadyPosted() {
	invoiceID := uuid.NewString()
	suite.mockInvoiceService.On("PostInvoice", mock.Anything, suite.tenantID, invoiceID, suite.userID).
		Return(nil, fmt.Errorf("%w: invoice %s is already posted", apperrors.ErrConflict, invoiceID)).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/invoices/"+invoiceID+"/post", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *InvoiceHandlerTestSuite) TestApproveInvoice_SelfApprovalForbidden() {
	invoiceID := uuid.NewString()
	suite.mockInvoiceService.On("ApproveInvoice", mock.Anything, suite.tenantID, invoiceID, suite.userID).
		Return(nil, fmt.Errorf("%w: creator cannot approve their own invoice", apperrors.ErrForbidden)).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/invoices/"+invoiceID+"/approve", nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *InvoiceHandlerTestSuite) TestGetInvoice_NotFound() {
	invoiceID := uuid.NewString()
	suite.mockInvoiceService.On("GetInvoiceByID", mock.Anything, suite.tenantID, invoiceID).
		Return(nil, fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, invoiceID)).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/invoices/"+invoiceID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *InvoiceHandlerTestSuite) TestListInvoices_Success() {
	resp := &dto.ListInvoicesResponse{
		Invoices: []domain.Invoice{{InvoiceID: uuid.NewString(), TenantID: suite.tenantID, Status: domain.StatusPosted}},
	}
	suite.mockInvoiceService.On("ListInvoices", mock.Anything, suite.tenantID,
		mock.MatchedBy(func(p dto.ListInvoicesParams) bool { return p.Limit == 10 }),
	).Return(resp, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/invoices?limit=10", nil)

	suite.Equal(http.StatusOK, w.Code)
	var got dto.ListInvoicesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Len(got.Invoices, 1)
}

func TestInvoiceHandler(t *testing.T) {
	suite.Run(t, new(InvoiceHandlerTestSuite))
}
