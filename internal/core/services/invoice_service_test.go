package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
)

type InvoiceServiceTestSuite struct {
	suite.Suite
	mockInvoiceRepo *MockInvoiceRepository
	mockAccountRepo *MockAccountRepository
	mockJournalRepo *MockJournalRepository
	mockPeriodRepo  *MockFiscalPeriodRepository
	mockTenantSvc   *MockTenantService
	mockCurrencySvc *MockCurrencyService
	mockRateSvc     *MockExchangeRateService
	auditRecorder   *recordingAuditRecorder
	service         portssvc.InvoiceSvcFacade

	tenantID   string
	userID     string
	approverID string
	tenant     domain.Tenant
	usd        domain.Currency
	period     domain.FiscalPeriod

	arAccount      domain.Account
	revenueAccount domain.Account
	taxAccount     domain.Account
}

func (suite *InvoiceServiceTestSuite) SetupTest() {
	suite.mockInvoiceRepo = new(MockInvoiceRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockPeriodRepo = new(MockFiscalPeriodRepository)
	suite.mockTenantSvc = new(MockTenantService)
	suite.mockCurrencySvc = new(MockCurrencyService)
	suite.mockRateSvc = new(MockExchangeRateService)
	suite.auditRecorder = new(recordingAuditRecorder)

	engine := newPostingEngine(suite.mockAccountRepo, suite.mockJournalRepo)
	suite.service = NewInvoiceService(
		suite.mockInvoiceRepo,
		suite.mockPeriodRepo,
		suite.mockTenantSvc,
		suite.mockCurrencySvc,
		suite.mockRateSvc,
		suite.auditRecorder,
		[]string{"exchangeRate"},
		engine,
	)

	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.approverID = uuid.NewString()
	suite.tenant = domain.Tenant{
		TenantID:         suite.tenantID,
		Name:             "Acme Trading",
		BaseCurrencyCode: "USD",
		IsActive:         true,
	}
	suite.usd = domain.Currency{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2}
	suite.period = domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		TenantID:  suite.tenantID,
		Name:      "2026-Q1",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
	}

	arCode := domain.SystemAccountsReceivable
	revCode := domain.SystemSalesRevenue
	taxCode := domain.SystemTaxPayable
	suite.arAccount = domain.Account{
		AccountID: uuid.NewString(), TenantID: suite.tenantID, Code: "1200",
		AccountType: domain.Asset, BalanceType: domain.DebitBalance,
		SystemCode: &arCode, IsActive: true, IsPostingAllowed: true,
	}
	suite.revenueAccount = domain.Account{
		AccountID: uuid.NewString(), TenantID: suite.tenantID, Code: "4000",
		AccountType: domain.Revenue, BalanceType: domain.CreditBalance,
		SystemCode: &revCode, IsActive: true, IsPostingAllowed: true,
	}
	suite.taxAccount = domain.Account{
		AccountID: uuid.NewString(), TenantID: suite.tenantID, Code: "2300",
		AccountType: domain.Liability, BalanceType: domain.CreditBalance,
		SystemCode: &taxCode, IsActive: true, IsPostingAllowed: true,
	}
}

func (suite *InvoiceServiceTestSuite) systemAccounts() map[domain.SystemAccountCode]domain.Account {
	return map[domain.SystemAccountCode]domain.Account{
		domain.SystemAccountsReceivable: suite.arAccount,
		domain.SystemSalesRevenue:       suite.revenueAccount,
		domain.SystemTaxPayable:         suite.taxAccount,
	}
}

func (suite *InvoiceServiceTestSuite) lockedAccounts() map[string]domain.Account {
	return map[string]domain.Account{
		suite.arAccount.AccountID:      suite.arAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
		suite.taxAccount.AccountID:     suite.taxAccount,
	}
}

func (suite *InvoiceServiceTestSuite) createRequest() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		InvoiceType:  domain.SalesInvoice,
		PartyType:    domain.PartyCustomer,
		PartyID:      uuid.NewString(),
		CurrencyCode: "USD",
		InvoiceDate:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Lines: []dto.CreateInvoiceLineRequest{
			{
				Description: "Consulting services",
				Quantity:    decimal.NewFromInt(10),
				UnitPrice:   decimal.NewFromInt(500),
				TaxRate:     decimal.NewFromInt(15),
			},
		},
	}
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_Success() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.InvoiceDate).Return(&suite.period, nil).Once()
	suite.mockInvoiceRepo.On("SaveInvoice", ctx, mock.AnythingOfType("domain.Invoice"), mock.AnythingOfType("[]domain.InvoiceLine")).Return(nil).Once()

	invoice, err := suite.service.CreateInvoice(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(invoice)
	suite.Equal(domain.StatusDraft, invoice.Status)
	suite.True(invoice.TotalAmount.Equal(decimal.NewFromInt(5750)), "total %s", invoice.TotalAmount)
	suite.True(invoice.BaseAmount.Equal(decimal.NewFromInt(5750)), "base %s", invoice.BaseAmount)
	suite.True(invoice.BalanceAmount.Equal(decimal.NewFromInt(5750)))
	suite.True(invoice.PaidAmount.IsZero())
	suite.True(invoice.ExchangeRate.Equal(decimal.NewFromInt(1)))
	suite.Equal(suite.period.PeriodID, invoice.FiscalPeriodID)
	suite.Require().Len(invoice.Lines, 1)
	suite.Equal(1, invoice.Lines[0].LineNumber)
	suite.True(invoice.Lines[0].LineTotal.Equal(decimal.NewFromInt(5750)))

	entry := suite.auditRecorder.last()
	suite.Require().NotNil(entry)
	suite.Equal(domain.AuditCreate, entry.Action)
	suite.True(entry.Success)

	suite.mockRateSvc.AssertNotCalled(suite.T(), "GetRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_ForeignCurrency() {
	ctx := context.Background()
	tenant := suite.tenant
	tenant.BaseCurrencyCode = "SAR"
	sar := domain.Currency{CurrencyCode: "SAR", Name: "Saudi Riyal", Precision: 2}

	req := suite.createRequest()
	req.Lines = []dto.CreateInvoiceLineRequest{
		{Description: "License", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000)},
	}

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "SAR").Return(&sar, nil)
	suite.mockRateSvc.On("GetRate", ctx, suite.tenantID, "USD", "SAR", req.InvoiceDate).Return(decimal.NewFromFloat(3.75), nil).Once()
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.InvoiceDate).Return(&suite.period, nil).Once()
	suite.mockInvoiceRepo.On("SaveInvoice", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	invoice, err := suite.service.CreateInvoice(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(invoice.TotalAmount.Equal(decimal.NewFromInt(1000)), "total %s", invoice.TotalAmount)
	suite.True(invoice.BaseAmount.Equal(decimal.NewFromInt(3750)), "base %s", invoice.BaseAmount)
	suite.True(invoice.ExchangeRate.Equal(decimal.NewFromFloat(3.75)))
	suite.mockRateSvc.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_BaseAmountSumsPerLineConversions() {
	// Each line converts and rounds at base precision on its own; the header
	// base amount is their sum. 2 x (10.05 * 3.33) rounds per line to 33.47,
	// so the header carries 66.94 where rounding the converted total once
	// would give 66.93. The posting engine builds journal lines from the same
	// per-line amounts, so the header always matches the posted journal.
	ctx := context.Background()
	tenant := suite.tenant
	tenant.BaseCurrencyCode = "SAR"
	sar := domain.Currency{CurrencyCode: "SAR", Name: "Saudi Riyal", Precision: 2}

	req := suite.createRequest()
	req.Lines = []dto.CreateInvoiceLineRequest{
		{Description: "Line one", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(10.05)},
		{Description: "Line two", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(10.05)},
	}

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "SAR").Return(&sar, nil)
	suite.mockRateSvc.On("GetRate", ctx, suite.tenantID, "USD", "SAR", req.InvoiceDate).Return(decimal.NewFromFloat(3.33), nil).Once()
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.InvoiceDate).Return(&suite.period, nil).Once()
	suite.mockInvoiceRepo.On("SaveInvoice", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	invoice, err := suite.service.CreateInvoice(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(invoice.TotalAmount.Equal(decimal.NewFromFloat(20.10)), "total %s", invoice.TotalAmount)
	suite.True(invoice.BaseAmount.Equal(decimal.NewFromFloat(66.94)), "base %s", invoice.BaseAmount)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_MissingRate() {
	ctx := context.Background()
	tenant := suite.tenant
	tenant.BaseCurrencyCode = "SAR"
	sar := domain.Currency{CurrencyCode: "SAR", Precision: 2}
	req := suite.createRequest()

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "SAR").Return(&sar, nil)
	suite.mockRateSvc.On("GetRate", ctx, suite.tenantID, "USD", "SAR", req.InvoiceDate).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateInvoice(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "SaveInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_NoFiscalPeriod() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.InvoiceDate).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateInvoice(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "SaveInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_NegativeUnitPrice() {
	ctx := context.Background()
	req := suite.createRequest()
	req.Lines[0].UnitPrice = decimal.NewFromInt(-5)

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.InvoiceDate).Return(&suite.period, nil).Once()

	_, err := suite.service.CreateInvoice(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "SaveInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) draftInvoice() *domain.Invoice {
	return &domain.Invoice{
		InvoiceID:      uuid.NewString(),
		TenantID:       suite.tenantID,
		InvoiceType:    domain.SalesInvoice,
		PartyType:      domain.PartyCustomer,
		PartyID:        uuid.NewString(),
		CurrencyCode:   "USD",
		ExchangeRate:   decimal.NewFromInt(1),
		InvoiceDate:    time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Status:         domain.StatusDraft,
		TotalAmount:    decimal.NewFromInt(5750),
		BaseAmount:     decimal.NewFromInt(5750),
		BalanceAmount:  decimal.NewFromInt(5750),
		FiscalPeriodID: suite.period.PeriodID,
		AuditFields:    domain.AuditFields{CreatedBy: suite.userID},
	}
}

func (suite *InvoiceServiceTestSuite) invoiceLines(invoiceID string) []domain.InvoiceLine {
	return []domain.InvoiceLine{
		{
			LineID:     uuid.NewString(),
			InvoiceID:  invoiceID,
			LineNumber: 1,
			Quantity:   decimal.NewFromInt(10),
			UnitPrice:  decimal.NewFromInt(500),
			TaxRate:    decimal.NewFromInt(15),
			LineTotal:  decimal.NewFromInt(5750),
		},
	}
}

func (suite *InvoiceServiceTestSuite) TestSubmitInvoice_Success() {
	ctx := context.Background()
	invoice := suite.draftInvoice()

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceLines", ctx, invoice.InvoiceID).Return(suite.invoiceLines(invoice.InvoiceID), nil).Once()
	suite.mockInvoiceRepo.On("UpdateInvoiceStatus", ctx, suite.tenantID, invoice.InvoiceID, domain.StatusDraft, domain.StatusSubmitted, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := suite.service.SubmitInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusSubmitted, result.Status)
	entry := suite.auditRecorder.last()
	suite.Require().NotNil(entry)
	suite.Equal(domain.AuditSubmit, entry.Action)
	suite.True(entry.Success)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestSubmitInvoice_NoLines() {
	ctx := context.Background()
	invoice := suite.draftInvoice()

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceLines", ctx, invoice.InvoiceID).Return([]domain.InvoiceLine{}, nil).Once()

	_, err := suite.service.SubmitInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	entry := suite.auditRecorder.last()
	suite.Require().NotNil(entry)
	suite.False(entry.Success)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "UpdateInvoiceStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestSubmitInvoice_AlreadyPosted() {
	ctx := context.Background()
	invoice := suite.draftInvoice()
	invoice.Status = domain.StatusPosted

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceLines", ctx, invoice.InvoiceID).Return(suite.invoiceLines(invoice.InvoiceID), nil).Once()

	_, err := suite.service.SubmitInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrStateTransition)
}

func (suite *InvoiceServiceTestSuite) TestApproveInvoice_Success() {
	ctx := context.Background()
	invoice := suite.draftInvoice()
	invoice.Status = domain.StatusSubmitted

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockInvoiceRepo.On("UpdateInvoiceStatus", ctx, suite.tenantID, invoice.InvoiceID, domain.StatusSubmitted, domain.StatusApproved, suite.approverID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := suite.service.ApproveInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.approverID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, result.Status)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestApproveInvoice_SelfApprovalForbidden() {
	ctx := context.Background()
	invoice := suite.draftInvoice()
	invoice.Status = domain.StatusSubmitted

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)

	_, err := suite.service.ApproveInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "UpdateInvoiceStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestApproveInvoice_SelfApprovalAllowedByPolicy() {
	ctx := context.Background()
	tenant := suite.tenant
	tenant.AllowSelfApproval = true
	invoice := suite.draftInvoice()
	invoice.Status = domain.StatusSubmitted

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&tenant, nil)
	suite.mockInvoiceRepo.On("UpdateInvoiceStatus", ctx, suite.tenantID, invoice.InvoiceID, domain.StatusSubmitted, domain.StatusApproved, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := suite.service.ApproveInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, result.Status)
}

func (suite *InvoiceServiceTestSuite) TestPostInvoice_Success() {
	ctx := context.Background()
	invoice := suite.draftInvoice()
	invoice.Status = domain.StatusApproved

	var savedJournal domain.Journal
	var savedLines []domain.JournalLine
	var appliedChanges map[string]decimal.Decimal

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByIDForUpdate", ctx, mock.Anything, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockPeriodRepo.On("FindFiscalPeriodByID", ctx, suite.tenantID, suite.period.PeriodID).Return(&suite.period, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceLines", ctx, invoice.InvoiceID).Return(suite.invoiceLines(invoice.InvoiceID), nil).Once()
	suite.mockAccountRepo.On("FindAccountsBySystemCodes", ctx, suite.tenantID, mock.Anything).Return(suite.systemAccounts(), nil).Once()
	suite.mockJournalRepo.On("SaveJournalInTx", ctx, mock.Anything, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.JournalLine")).
		Run(func(args mock.Arguments) {
			savedJournal = args.Get(2).(domain.Journal)
			savedLines = args.Get(3).([]domain.JournalLine)
		}).Return(nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", ctx, mock.Anything, suite.tenantID, mock.Anything).Return(suite.lockedAccounts(), nil).Once()
	suite.mockAccountRepo.On("UpdateAccountBalancesInTx", ctx, mock.Anything, mock.Anything, suite.userID, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			appliedChanges = args.Get(2).(map[string]decimal.Decimal)
		}).Return(nil).Once()
	suite.mockInvoiceRepo.On("MarkInvoicePostedInTx", ctx, mock.Anything, invoice.InvoiceID, mock.AnythingOfType("string"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockInvoiceRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.PostInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, result.Status)
	suite.Require().NotNil(result.JournalID)
	suite.Equal(savedJournal.JournalID, *result.JournalID)

	suite.Equal(domain.SourceInvoice, savedJournal.SourceType)
	suite.Equal(domain.StatusPosted, savedJournal.Status)
	suite.True(savedJournal.Amount.Equal(decimal.NewFromInt(5750)), "journal amount %s", savedJournal.Amount)

	suite.Require().Len(savedLines, 3)
	byAccount := make(map[string]domain.JournalLine, len(savedLines))
	for _, line := range savedLines {
		byAccount[line.AccountID] = line
	}
	suite.True(byAccount[suite.arAccount.AccountID].Debit.Equal(decimal.NewFromInt(5750)))
	suite.True(byAccount[suite.revenueAccount.AccountID].Credit.Equal(decimal.NewFromInt(5000)))
	suite.True(byAccount[suite.taxAccount.AccountID].Credit.Equal(decimal.NewFromInt(750)))

	// All three accounts grow on their normal side, so every change is positive.
	suite.Require().Len(appliedChanges, 3)
	suite.True(appliedChanges[suite.arAccount.AccountID].Equal(decimal.NewFromInt(5750)))
	suite.True(appliedChanges[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(5000)))
	suite.True(appliedChanges[suite.taxAccount.AccountID].Equal(decimal.NewFromInt(750)))

	entry := suite.auditRecorder.last()
	suite.Require().NotNil(entry)
	suite.Equal(domain.AuditPost, entry.Action)
	suite.True(entry.Success)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestPostInvoice_ClosedPeriod() {
	ctx := context.Background()
	invoice := suite.draftInvoice()
	invoice.Status = domain.StatusApproved
	closed := suite.period
	closed.IsClosed = true

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByIDForUpdate", ctx, mock.Anything, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockPeriodRepo.On("FindFiscalPeriodByID", ctx, suite.tenantID, suite.period.PeriodID).Return(&closed, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()

	_, err := suite.service.PostInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrPeriodClosed)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournalInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestPostInvoice_AlreadyPosted() {
	ctx := context.Background()
	invoice := suite.draftInvoice()
	invoice.Status = domain.StatusPosted

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByIDForUpdate", ctx, mock.Anything, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()

	_, err := suite.service.PostInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *InvoiceServiceTestSuite) TestUpdateDraftInvoice_NotEditable() {
	ctx := context.Background()
	invoice := suite.draftInvoice()
	invoice.Status = domain.StatusSubmitted
	newParty := uuid.NewString()

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceLines", ctx, invoice.InvoiceID).Return(suite.invoiceLines(invoice.InvoiceID), nil).Once()

	_, err := suite.service.UpdateDraftInvoice(ctx, suite.tenantID, invoice.InvoiceID, dto.UpdateInvoiceRequest{PartyID: &newParty}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrStateTransition)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "UpdateDraftInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestUpdateDraftInvoice_ExcludedFieldsLeftOutOfAudit() {
	// The suite wires the service with exchangeRate in the exclusion list, so
	// a currency change shows up in the audit diff without the rate itself.
	ctx := context.Background()
	invoice := suite.draftInvoice()
	eur := domain.Currency{CurrencyCode: "EUR", Name: "Euro", Precision: 2}
	newCurrency := "EUR"

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceLines", ctx, invoice.InvoiceID).Return(suite.invoiceLines(invoice.InvoiceID), nil).Once()
	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "EUR").Return(&eur, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockRateSvc.On("GetRate", ctx, suite.tenantID, "EUR", "USD", invoice.InvoiceDate).Return(decimal.NewFromFloat(1.08), nil).Once()
	suite.mockInvoiceRepo.On("UpdateDraftInvoice", ctx, mock.AnythingOfType("domain.Invoice"), mock.AnythingOfType("[]domain.InvoiceLine")).Return(nil).Once()

	_, err := suite.service.UpdateDraftInvoice(ctx, suite.tenantID, invoice.InvoiceID, dto.UpdateInvoiceRequest{CurrencyCode: &newCurrency}, suite.userID)

	suite.Require().NoError(err)
	entry := suite.auditRecorder.last()
	suite.Require().NotNil(entry)
	suite.Equal(domain.AuditUpdate, entry.Action)
	suite.Contains(entry.Changes, "currencyCode")
	suite.NotContains(entry.Changes, "exchangeRate")
}

func (suite *InvoiceServiceTestSuite) TestCancelInvoice_Success() {
	ctx := context.Background()
	invoice := suite.draftInvoice()

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.tenantID, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("UpdateInvoiceStatus", ctx, suite.tenantID, invoice.InvoiceID, domain.StatusDraft, domain.StatusCancelled, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, err := suite.service.CancelInvoice(ctx, suite.tenantID, invoice.InvoiceID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCancelled, result.Status)
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}
