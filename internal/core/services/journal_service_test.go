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

type JournalServiceTestSuite struct {
	suite.Suite
	mockJournalRepo *MockJournalRepository
	mockAccountRepo *MockAccountRepository
	mockPeriodRepo  *MockFiscalPeriodRepository
	mockTenantSvc   *MockTenantService
	mockCurrencySvc *MockCurrencyService
	auditRecorder   *recordingAuditRecorder
	service         portssvc.JournalSvcFacade

	tenantID string
	userID   string
	tenant   domain.Tenant
	usd      domain.Currency
	period   domain.FiscalPeriod

	cashAccount    domain.Account
	expenseAccount domain.Account
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockPeriodRepo = new(MockFiscalPeriodRepository)
	suite.mockTenantSvc = new(MockTenantService)
	suite.mockCurrencySvc = new(MockCurrencyService)
	suite.auditRecorder = new(recordingAuditRecorder)

	engine := newPostingEngine(suite.mockAccountRepo, suite.mockJournalRepo)
	suite.service = NewJournalService(
		suite.mockJournalRepo,
		suite.mockAccountRepo,
		suite.mockPeriodRepo,
		suite.mockTenantSvc,
		suite.mockCurrencySvc,
		suite.auditRecorder,
		engine,
	)

	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.tenant = domain.Tenant{
		TenantID:         suite.tenantID,
		BaseCurrencyCode: "USD",
		IsActive:         true,
	}
	suite.usd = domain.Currency{CurrencyCode: "USD", Precision: 2}
	suite.period = domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		TenantID:  suite.tenantID,
		Name:      "2026-Q1",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
	}

	suite.cashAccount = domain.Account{
		AccountID: uuid.NewString(), TenantID: suite.tenantID, Code: "1000",
		AccountType: domain.Asset, BalanceType: domain.DebitBalance,
		IsActive: true, IsPostingAllowed: true,
	}
	suite.expenseAccount = domain.Account{
		AccountID: uuid.NewString(), TenantID: suite.tenantID, Code: "6000",
		AccountType: domain.Expense, BalanceType: domain.DebitBalance,
		IsActive: true, IsPostingAllowed: true,
	}
}

func (suite *JournalServiceTestSuite) createRequest() dto.CreateJournalRequest {
	return dto.CreateJournalRequest{
		TransactionDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Description:     "office rent",
		CurrencyCode:    "USD",
		Lines: []dto.CreateJournalLineRequest{
			{AccountID: suite.expenseAccount.AccountID, Debit: decimal.NewFromInt(250)},
			{AccountID: suite.cashAccount.AccountID, Credit: decimal.NewFromInt(250)},
		},
	}
}

func (suite *JournalServiceTestSuite) accountsByID() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.expenseAccount.AccountID: suite.expenseAccount,
	}
}

func (suite *JournalServiceTestSuite) manualJournal(status domain.DocumentStatus) *domain.Journal {
	return &domain.Journal{
		JournalID:       uuid.NewString(),
		TenantID:        suite.tenantID,
		SourceType:      domain.SourceManual,
		TransactionDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		CurrencyCode:    "USD",
		Status:          status,
		FiscalPeriodID:  suite.period.PeriodID,
		Amount:          decimal.NewFromInt(250),
		AuditFields:     domain.AuditFields{CreatedBy: suite.userID},
	}
}

func (suite *JournalServiceTestSuite) journalLines(journalID string) []domain.JournalLine {
	return []domain.JournalLine{
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.expenseAccount.AccountID, Debit: decimal.NewFromInt(250), Credit: decimal.Zero},
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.cashAccount.AccountID, Debit: decimal.Zero, Credit: decimal.NewFromInt(250)},
	}
}

func (suite *JournalServiceTestSuite) TestCreateManualJournal_Success() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.TransactionDate).Return(&suite.period, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, suite.tenantID, mock.Anything).Return(suite.accountsByID(), nil).Once()

	var saved domain.Journal
	suite.mockJournalRepo.On("SaveDraftJournal", ctx, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.JournalLine")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Journal) }).Return(nil).Once()

	result, err := suite.service.CreateManualJournal(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusDraft, result.Status)
	suite.Equal(domain.SourceManual, saved.SourceType)
	suite.Equal(suite.period.PeriodID, saved.FiscalPeriodID)
	suite.True(saved.Amount.Equal(decimal.NewFromInt(250)))
	suite.Len(result.Lines, 2)
	entry := suite.auditRecorder.last()
	suite.Require().NotNil(entry)
	suite.Equal(domain.AuditCreate, entry.Action)
	suite.True(entry.Success)
}

func (suite *JournalServiceTestSuite) TestCreateManualJournal_NonBaseCurrency() {
	ctx := context.Background()
	req := suite.createRequest()
	req.CurrencyCode = "EUR"

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)

	_, err := suite.service.CreateManualJournal(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveDraftJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateManualJournal_Unbalanced() {
	ctx := context.Background()
	req := suite.createRequest()
	req.Lines[1].Credit = decimal.NewFromInt(240)

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.TransactionDate).Return(&suite.period, nil).Once()

	_, err := suite.service.CreateManualJournal(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountsByIDs", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateManualJournal_SingleAccount() {
	ctx := context.Background()
	req := suite.createRequest()
	req.Lines[1].AccountID = req.Lines[0].AccountID

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.TransactionDate).Return(&suite.period, nil).Once()

	_, err := suite.service.CreateManualJournal(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestCreateManualJournal_InactiveAccount() {
	ctx := context.Background()
	req := suite.createRequest()
	accounts := suite.accountsByID()
	inactive := accounts[suite.cashAccount.AccountID]
	inactive.IsActive = false
	accounts[suite.cashAccount.AccountID] = inactive

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.TransactionDate).Return(&suite.period, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, suite.tenantID, mock.Anything).Return(accounts, nil).Once()

	_, err := suite.service.CreateManualJournal(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveDraftJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateManualJournal_AccountNotFound() {
	ctx := context.Background()
	req := suite.createRequest()
	accounts := suite.accountsByID()
	delete(accounts, suite.cashAccount.AccountID)

	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, req.TransactionDate).Return(&suite.period, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, suite.tenantID, mock.Anything).Return(accounts, nil).Once()

	_, err := suite.service.CreateManualJournal(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *JournalServiceTestSuite) TestPostJournal_Success() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusApproved)
	lines := suite.journalLines(journal.JournalID)

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockJournalRepo.On("FindJournalByIDForUpdate", ctx, mock.Anything, suite.tenantID, journal.JournalID).Return(journal, nil).Once()
	suite.mockPeriodRepo.On("FindFiscalPeriodByID", ctx, suite.tenantID, suite.period.PeriodID).Return(&suite.period, nil).Once()
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil)
	suite.mockJournalRepo.On("FindJournalLines", ctx, journal.JournalID).Return(lines, nil).Once()

	var appliedChanges map[string]decimal.Decimal
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", ctx, mock.Anything, suite.tenantID, mock.Anything).Return(suite.accountsByID(), nil).Once()
	suite.mockAccountRepo.On("UpdateAccountBalancesInTx", ctx, mock.Anything, mock.Anything, suite.userID, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { appliedChanges = args.Get(2).(map[string]decimal.Decimal) }).Return(nil).Once()
	suite.mockJournalRepo.On("MarkJournalPostedInTx", ctx, mock.Anything, journal.JournalID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockJournalRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.PostJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, result.Status)

	// Both accounts carry a debit balance: the debit leg raises the expense
	// account, the credit leg lowers cash.
	suite.Require().Len(appliedChanges, 2)
	suite.True(appliedChanges[suite.expenseAccount.AccountID].Equal(decimal.NewFromInt(250)))
	suite.True(appliedChanges[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(-250)))

	entry := suite.auditRecorder.last()
	suite.Require().NotNil(entry)
	suite.Equal(domain.AuditPost, entry.Action)
	suite.True(entry.Success)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostJournal_SourceDocumentJournal() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusApproved)
	journal.SourceType = domain.SourceInvoice

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindJournalByIDForUpdate", ctx, mock.Anything, suite.tenantID, journal.JournalID).Return(journal, nil).Once()

	_, err := suite.service.PostJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrStateTransition)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "MarkJournalPostedInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostJournal_AlreadyPosted() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusPosted)

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindJournalByIDForUpdate", ctx, mock.Anything, suite.tenantID, journal.JournalID).Return(journal, nil).Once()

	_, err := suite.service.PostJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestPostJournal_ClosedPeriod() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusApproved)
	closed := suite.period
	closed.IsClosed = true

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindJournalByIDForUpdate", ctx, mock.Anything, suite.tenantID, journal.JournalID).Return(journal, nil).Once()
	suite.mockPeriodRepo.On("FindFiscalPeriodByID", ctx, suite.tenantID, suite.period.PeriodID).Return(&closed, nil).Once()

	_, err := suite.service.PostJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrPeriodClosed)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_Success() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusPosted)
	lines := suite.journalLines(journal.JournalID)

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockJournalRepo.On("FindJournalByIDForUpdate", ctx, mock.Anything, suite.tenantID, journal.JournalID).Return(journal, nil).Once()
	suite.mockPeriodRepo.On("FindFiscalPeriodForDate", ctx, suite.tenantID, mock.AnythingOfType("time.Time")).Return(&suite.period, nil).Once()
	suite.mockJournalRepo.On("FindJournalLines", ctx, journal.JournalID).Return(lines, nil).Once()

	var savedJournal domain.Journal
	var savedLines []domain.JournalLine
	var appliedChanges map[string]decimal.Decimal
	suite.mockJournalRepo.On("SaveJournalInTx", ctx, mock.Anything, mock.AnythingOfType("domain.Journal"), mock.AnythingOfType("[]domain.JournalLine")).
		Run(func(args mock.Arguments) {
			savedJournal = args.Get(2).(domain.Journal)
			savedLines = args.Get(3).([]domain.JournalLine)
		}).Return(nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", ctx, mock.Anything, suite.tenantID, mock.Anything).Return(suite.accountsByID(), nil).Once()
	suite.mockAccountRepo.On("UpdateAccountBalancesInTx", ctx, mock.Anything, mock.Anything, suite.userID, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { appliedChanges = args.Get(2).(map[string]decimal.Decimal) }).Return(nil).Once()
	suite.mockJournalRepo.On("UpdateJournalReversalLinksInTx", ctx, mock.Anything, journal.JournalID, mock.AnythingOfType("string"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockJournalRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.ReverseJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, result.Status)
	suite.Require().NotNil(savedJournal.OriginalJournalID)
	suite.Equal(journal.JournalID, *savedJournal.OriginalJournalID)

	// Debits and credits swap sides, so the balance deltas invert.
	suite.Require().Len(savedLines, 2)
	byAccount := make(map[string]domain.JournalLine, 2)
	for _, line := range savedLines {
		byAccount[line.AccountID] = line
	}
	suite.True(byAccount[suite.expenseAccount.AccountID].Credit.Equal(decimal.NewFromInt(250)))
	suite.True(byAccount[suite.cashAccount.AccountID].Debit.Equal(decimal.NewFromInt(250)))
	suite.True(appliedChanges[suite.expenseAccount.AccountID].Equal(decimal.NewFromInt(-250)))
	suite.True(appliedChanges[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(250)))

	// The original is never mutated: it stays POSTED so its lines keep
	// counting in the ledger and trial balance, and the reversal is recorded
	// purely through the link.
	suite.Equal(domain.StatusPosted, journal.Status)
	entry := suite.auditRecorder.last()
	suite.Require().NotNil(entry)
	suite.Equal(domain.AuditReverse, entry.Action)
	suite.Contains(entry.Changes, "reversingJournalID")
	suite.NotContains(entry.Changes, "status")
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestReverseJournal_NotPosted() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusDraft)

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindJournalByIDForUpdate", ctx, mock.Anything, suite.tenantID, journal.JournalID).Return(journal, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrStateTransition)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_AlreadyReversed() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusPosted)
	reversingID := uuid.NewString()
	journal.ReversingJournalID = &reversingID

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindJournalByIDForUpdate", ctx, mock.Anything, suite.tenantID, journal.JournalID).Return(journal, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournalInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestSubmitJournal_SourceDocumentJournal() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusDraft)
	journal.SourceType = domain.SourcePayment

	suite.mockJournalRepo.On("FindJournalByID", ctx, suite.tenantID, journal.JournalID).Return(journal, nil).Once()

	_, err := suite.service.SubmitJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrStateTransition)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "UpdateJournalStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestApproveJournal_SelfApprovalForbidden() {
	ctx := context.Background()
	journal := suite.manualJournal(domain.StatusSubmitted)

	suite.mockJournalRepo.On("FindJournalByID", ctx, suite.tenantID, journal.JournalID).Return(journal, nil).Once()
	suite.mockTenantSvc.On("GetTenantByID", ctx, suite.tenantID).Return(&suite.tenant, nil)

	_, err := suite.service.ApproveJournal(ctx, suite.tenantID, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func TestJournalService(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
