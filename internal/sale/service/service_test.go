package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CatalogStore,QueryStore,StoreTx,CacheInvalidator

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tienda/internal/sale/models"
	"tienda/internal/sale/service/mocks"
	"tienda/internal/sale/store"
	dErrors "tienda/pkg/domain-errors"
)

type SaleServiceSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *SaleServiceSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestSaleServiceSuite(t *testing.T) {
	suite.Run(t, new(SaleServiceSuite))
}

// newMockedService wires the service to strict mocks: any store call not
// explicitly expected fails the test.
func newMockedService(t *testing.T) (*Service, *mocks.MockCatalogStore, *mocks.MockQueryStore, *mocks.MockStoreTx) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	catalog := mocks.NewMockCatalogStore(ctrl)
	queries := mocks.NewMockQueryStore(ctrl)
	tx := mocks.NewMockStoreTx(ctrl)
	return New(catalog, queries, tx), catalog, queries, tx
}

// newMemoryService wires the service to the in-memory store so transactional
// effects are observable.
func newMemoryService(products []models.CatalogProduct, customers []models.CustomerSummary) (*Service, *store.InMemory) {
	mem := store.NewInMemory()
	for _, p := range products {
		mem.SeedProduct(p)
	}
	for _, c := range customers {
		mem.SeedCustomer(c)
	}
	return New(mem, mem, store.NewInMemoryTx(mem)), mem
}

func (s *SaleServiceSuite) TestRegisterSale_EmptyCartTouchesNoStore() {
	svc, _, _, _ := newMockedService(s.T())

	_, err := svc.RegisterSale(s.ctx, 1, nil)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
	assert.ErrorIs(s.T(), err, models.ErrEmptyCart)
}

func (s *SaleServiceSuite) TestRegisterSale_InvalidCustomerTouchesNoStore() {
	svc, _, _, _ := newMockedService(s.T())

	_, err := svc.RegisterSale(s.ctx, 0, []models.CartLine{{ProductID: 1, Quantity: 1}})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
	assert.ErrorIs(s.T(), err, models.ErrInvalidCustomer)
}

func (s *SaleServiceSuite) TestRegisterSale_CatalogUnavailable() {
	svc, catalog, _, _ := newMockedService(s.T())
	catalog.EXPECT().FetchProducts(gomock.Any(), []int64{1}).Return(nil, errors.New("connection refused"))

	_, err := svc.RegisterSale(s.ctx, 1, []models.CartLine{{ProductID: 1, Quantity: 1}})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *SaleServiceSuite) TestRegisterSale_CartErrorSkipsTransaction() {
	svc, catalog, _, _ := newMockedService(s.T())
	catalog.EXPECT().FetchProducts(gomock.Any(), []int64{5}).
		Return(map[int64]models.CatalogProduct{}, nil)

	_, err := svc.RegisterSale(s.ctx, 1, []models.CartLine{{ProductID: 5, Quantity: 2}})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))

	var notFound *models.ProductNotFoundError
	require.ErrorAs(s.T(), err, &notFound)
	assert.Equal(s.T(), int64(5), notFound.ProductID)
}

func (s *SaleServiceSuite) TestRegisterSale_DistinctProductIDsFetchedOnce() {
	svc, catalog, _, _ := newMockedService(s.T())
	catalog.EXPECT().FetchProducts(gomock.Any(), []int64{3, 8}).
		Return(map[int64]models.CatalogProduct{}, nil)

	// Error path is irrelevant here; the expectation pins the fetched ids.
	_, _ = svc.RegisterSale(s.ctx, 1, []models.CartLine{
		{ProductID: 3, Quantity: 1},
		{ProductID: 8, Quantity: 1},
		{ProductID: 3, Quantity: 2},
	})
}

func (s *SaleServiceSuite) TestRegisterSale_Success() {
	svc, mem := newMemoryService(
		[]models.CatalogProduct{
			{ID: 1, Name: "Coffee", Price: decimal.RequireFromString("2.50"), Quantity: 10},
			{ID: 2, Name: "Mug", Price: decimal.RequireFromString("7.00"), Quantity: 4},
		},
		[]models.CustomerSummary{{ID: 9, FirstName: "Ana", LastName: "Silva"}},
	)

	sale, err := svc.RegisterSale(s.ctx, 9, []models.CartLine{
		{ProductID: 1, Quantity: 4},
		{ProductID: 2, Quantity: 1},
	})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), sale)

	assert.Equal(s.T(), int64(9), sale.CustomerID)
	assert.Equal(s.T(), "17.00", sale.Total.StringFixed(2))
	assert.False(s.T(), sale.CreatedAt.IsZero())
	assert.Equal(s.T(), int64(6), mem.StockOf(1))
	assert.Equal(s.T(), int64(3), mem.StockOf(2))
	assert.Equal(s.T(), 1, mem.SaleCount())
}

func (s *SaleServiceSuite) TestRegisterSale_NotIdempotent() {
	svc, mem := newMemoryService(
		[]models.CatalogProduct{{ID: 1, Name: "Coffee", Price: decimal.New(3, 0), Quantity: 10}},
		[]models.CustomerSummary{{ID: 1}},
	)
	cart := []models.CartLine{{ProductID: 1, Quantity: 2}}

	first, err := svc.RegisterSale(s.ctx, 1, cart)
	require.NoError(s.T(), err)
	second, err := svc.RegisterSale(s.ctx, 1, cart)
	require.NoError(s.T(), err)

	assert.NotEqual(s.T(), first.ID, second.ID)
	assert.Equal(s.T(), 2, mem.SaleCount())
	assert.Equal(s.T(), int64(6), mem.StockOf(1))
}

func (s *SaleServiceSuite) TestRegisterSale_CommitTimeShortfallRollsBack() {
	// Two lines of the same product pass the per-line snapshot check but
	// exceed stock together; the decrement rejects the second line and the
	// whole sale rolls back.
	svc, mem := newMemoryService(
		[]models.CatalogProduct{{ID: 1, Name: "Coffee", Price: decimal.New(2, 0), Quantity: 5}},
		[]models.CustomerSummary{{ID: 1}},
	)

	_, err := svc.RegisterSale(s.ctx, 1, []models.CartLine{
		{ProductID: 1, Quantity: 3},
		{ProductID: 1, Quantity: 3},
	})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))

	var txErr *models.TransactionError
	require.ErrorAs(s.T(), err, &txErr)
	var insufficient *models.InsufficientStockError
	require.ErrorAs(s.T(), txErr.Cause, &insufficient)
	assert.Equal(s.T(), int64(3), insufficient.Requested)
	assert.Equal(s.T(), int64(2), insufficient.Available)

	assert.Equal(s.T(), int64(5), mem.StockOf(1), "stock restored on rollback")
	assert.Equal(s.T(), 0, mem.SaleCount(), "no sale header persisted")
}

func (s *SaleServiceSuite) TestRegisterSale_UnknownCustomerNotFound() {
	svc, mem := newMemoryService(
		[]models.CatalogProduct{{ID: 1, Name: "Coffee", Price: decimal.New(2, 0), Quantity: 5}},
		nil,
	)

	_, err := svc.RegisterSale(s.ctx, 77, []models.CartLine{{ProductID: 1, Quantity: 1}})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Equal(s.T(), int64(5), mem.StockOf(1))
	assert.Equal(s.T(), 0, mem.SaleCount())
}

func (s *SaleServiceSuite) TestRegisterSale_InvalidatesProductCache() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()
	cache := mocks.NewMockCacheInvalidator(ctrl)
	cache.EXPECT().Invalidate(gomock.Any())

	mem := store.NewInMemory()
	mem.SeedProduct(models.CatalogProduct{ID: 1, Price: decimal.New(1, 0), Quantity: 3})
	mem.SeedCustomer(models.CustomerSummary{ID: 1})
	svc := New(mem, mem, store.NewInMemoryTx(mem), WithCacheInvalidator(cache))

	_, err := svc.RegisterSale(s.ctx, 1, []models.CartLine{{ProductID: 1, Quantity: 1}})
	require.NoError(s.T(), err)
}

func (s *SaleServiceSuite) TestRegisterSale_FailedSaleLeavesCacheAlone() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()
	cache := mocks.NewMockCacheInvalidator(ctrl)

	mem := store.NewInMemory()
	mem.SeedProduct(models.CatalogProduct{ID: 1, Price: decimal.New(1, 0), Quantity: 0})
	mem.SeedCustomer(models.CustomerSummary{ID: 1})
	svc := New(mem, mem, store.NewInMemoryTx(mem), WithCacheInvalidator(cache))

	_, err := svc.RegisterSale(s.ctx, 1, []models.CartLine{{ProductID: 1, Quantity: 1}})
	require.Error(s.T(), err)
}

func (s *SaleServiceSuite) TestList_RejectsNonPositiveFilters() {
	svc, _, _, _ := newMockedService(s.T())
	zero := int64(0)

	_, err := svc.List(s.ctx, models.ListFilter{CustomerID: &zero})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = svc.List(s.ctx, models.ListFilter{ProductID: &zero})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *SaleServiceSuite) TestList_StoreUnavailable() {
	svc, _, queries, _ := newMockedService(s.T())
	queries.EXPECT().ListSales(gomock.Any(), models.ListFilter{}).
		Return(nil, errors.New("connection refused"))

	_, err := svc.List(s.ctx, models.ListFilter{})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *SaleServiceSuite) TestList_Delegates() {
	svc, _, queries, _ := newMockedService(s.T())
	customerID := int64(4)
	filter := models.ListFilter{CustomerID: &customerID}
	queries.EXPECT().ListSales(gomock.Any(), filter).
		Return([]*models.SaleWithDetails{{Sale: models.Sale{ID: 11}}}, nil)

	sales, err := svc.List(s.ctx, filter)
	require.NoError(s.T(), err)
	require.Len(s.T(), sales, 1)
	assert.Equal(s.T(), int64(11), sales[0].ID)
}
