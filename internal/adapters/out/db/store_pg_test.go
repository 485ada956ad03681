package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"storefront/internal/adapters/out/db"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	pc, err := postgres.Run(ctx, "postgres:17.6-alpine3.22", postgres.BasicWaitStrategies())
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}
	connStr, err := pc.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}
	return pc, connStr, nil
}

type storeSuite struct {
	suite.Suite

	container *postgres.PostgresContainer
	conn      *sql.DB
	store     *db.Store
	fake      *gofakeit.Faker
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container tests are skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(storeSuite))
}

func (s *storeSuite) SetupSuite() {
	ctx := s.T().Context()

	pc, connStr, err := startPostgres(ctx)
	s.Require().NoError(err)
	s.container = pc

	s.conn, err = sql.Open("postgres", connStr)
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate(ctx, s.conn))
	// idempotent
	s.Require().NoError(db.Migrate(ctx, s.conn))

	s.store = db.NewStore(s.conn, connStr)
	s.fake = gofakeit.New(7)
}

func (s *storeSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *storeSuite) TearDownTest() {
	_, err := s.conn.Exec(`TRUNCATE products, orders, purchases, roles`)
	s.Require().NoError(err)
}

func (s *storeSuite) randomProduct(stock *int64) productdom.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return productdom.Product{
		Name:      productdom.Localized{Primary: s.fake.ProductName(), En: s.fake.ProductName()},
		Desc:      productdom.Localized{Primary: s.fake.ProductDescription()},
		Price:     s.fake.Price(1, 100),
		Stock:     stock,
		ImageURL:  s.fake.URL(),
		Gallery:   []string{s.fake.URL(), s.fake.URL()},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *storeSuite) TestProductCRUD() {
	ctx := s.T().Context()
	in := s.randomProduct(productdom.Int64Ptr(4))
	in.BeforeAfter = &productdom.BeforeAfter{BeforeURL: "https://img/b.png", AfterURL: "https://img/a.png"}

	created, err := s.store.Create(ctx, in)
	s.Require().NoError(err)
	s.Require().NotEmpty(created.ID)

	got, err := s.store.GetByID(ctx, created.ID)
	s.Require().NoError(err)
	if diff := cmp.Diff(in, got, cmpopts.IgnoreFields(productdom.Product{}, "ID")); diff != "" {
		s.T().Errorf("product mismatch (-want +got):\n%s", diff)
	}

	got.Stock = nil
	got.BeforeAfter = nil
	got.Gallery = nil
	saved, err := s.store.Save(ctx, got)
	s.Require().NoError(err)
	s.Nil(saved.Stock)
	s.Nil(saved.BeforeAfter)
	s.Equal([]string{}, saved.Gallery)

	list, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(list, 1)

	s.Require().NoError(s.store.Delete(ctx, created.ID))
	_, err = s.store.GetByID(ctx, created.ID)
	s.ErrorIs(err, productdom.ErrNotFound)
}

func (s *storeSuite) TestUpdateStock() {
	ctx := s.T().Context()
	p, err := s.store.Create(ctx, s.randomProduct(productdom.Int64Ptr(2)))
	s.Require().NoError(err)
	untracked, err := s.store.Create(ctx, s.randomProduct(nil))
	s.Require().NoError(err)

	tests := []struct {
		name      string
		id        string
		fn        productdom.StockUpdateFunc
		committed bool
	}{
		{"take two", p.ID, productdom.Decrement(2), true},
		{"nothing left", p.ID, productdom.Decrement(1), false},
		{"give one back", p.ID, productdom.Decrement(-1), true},
		{"untracked counts as zero", untracked.ID, productdom.Decrement(1), false},
		{"missing row", "nope", productdom.Decrement(-1), false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			ok, err := s.store.UpdateStock(ctx, tt.id, tt.fn)
			s.Require().NoError(err)
			s.Equal(tt.committed, ok)
		})
	}

	got, err := s.store.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), *got.Stock)
}

func (s *storeSuite) TestUpdateStock_ConcurrentNeverOversells() {
	ctx := s.T().Context()
	p, err := s.store.Create(ctx, s.randomProduct(productdom.Int64Ptr(10)))
	s.Require().NoError(err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int64
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.store.UpdateStock(ctx, p.ID, productdom.Decrement(1))
			if err == nil && ok {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(10), committed)
	got, err := s.store.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), *got.Stock)
}

func (s *storeSuite) TestOrders() {
	ctx := s.T().Context()
	orders := s.store.Orders()

	o, err := orderdom.New("u1", []orderdom.OrderItem{
		{ProductID: "p1", Name: "Rose Oil", Qty: 2, Price: 10},
		{ProductID: "p2", Name: "Oud Soap", Qty: 1, Price: 5},
	}, map[string]any{"city": "Doha"})
	s.Require().NoError(err)

	id, err := orders.Create(ctx, o)
	s.Require().NoError(err)

	got, err := orders.GetByID(ctx, "u1", id)
	s.Require().NoError(err)
	s.Equal(o.Items, got.Items)
	s.Equal(25.0, got.Total)
	s.Equal("Doha", got.DeliveryAddress["city"])
	s.False(got.CreatedAt.IsZero())

	_, err = orders.GetByID(ctx, "u2", id)
	s.ErrorIs(err, orderdom.ErrNotFound)

	list, err := orders.ListByUser(ctx, "u1")
	s.Require().NoError(err)
	s.Len(list, 1)

	s.Require().NoError(s.store.MarkPurchased(ctx, "u1", "p1"))
	s.Require().NoError(s.store.MarkPurchased(ctx, "u1", "p1"))
	has, err := s.store.HasPurchased(ctx, "u1", "p1")
	s.Require().NoError(err)
	s.True(has)
}

func (s *storeSuite) TestRoles() {
	ctx := s.T().Context()

	isAdmin, err := s.store.IsAdmin(ctx, "boss")
	s.Require().NoError(err)
	s.False(isAdmin)

	s.Require().NoError(s.store.SetAdmin(ctx, "boss", true))
	isAdmin, err = s.store.IsAdmin(ctx, "boss")
	s.Require().NoError(err)
	s.True(isAdmin)

	s.Require().NoError(s.store.SetAdmin(ctx, "boss", false))
	isAdmin, err = s.store.IsAdmin(ctx, "boss")
	s.Require().NoError(err)
	s.False(isAdmin)
}

func (s *storeSuite) TestSubscribe() {
	ctx, cancel := context.WithCancel(s.T().Context())
	defer cancel()

	ch, err := s.store.Subscribe(ctx)
	s.Require().NoError(err)
	s.Empty(<-ch)

	p, err := s.store.Create(ctx, s.randomProduct(productdom.Int64Ptr(3)))
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		select {
		case ps := <-ch:
			return len(ps) == 1 && ps[0].ID == p.ID
		default:
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	_, err = s.store.UpdateStock(ctx, p.ID, productdom.Decrement(1))
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		select {
		case ps := <-ch:
			return len(ps) == 1 && *ps[0].Stock == 2
		default:
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	for range ch {
	}
}
