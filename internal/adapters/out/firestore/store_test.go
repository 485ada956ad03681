package firestore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/suite"

	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

// StoreSuite runs against the Firestore emulator (FIRESTORE_EMULATOR_HOST).
type StoreSuite struct {
	suite.Suite

	client *firestore.Client
	store  *Store
	ctx    context.Context
}

func TestStoreSuite(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	project := fmt.Sprintf("storefront-test-%d", time.Now().UnixNano())

	client, err := firestore.NewClient(s.ctx, project)
	s.Require().NoError(err)
	s.client = client
	s.store = NewStore(client)
}

func (s *StoreSuite) TearDownTest() {
	_ = s.client.Close()
}

func (s *StoreSuite) seed(name string, stock *int64) productdom.Product {
	p, err := s.store.Create(s.ctx, productdom.Product{
		Name:      productdom.Localized{Primary: name},
		Price:     10,
		Stock:     stock,
		CreatedAt: time.Now().UTC(),
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(p.ID)
	return p
}

func (s *StoreSuite) TestProductCRUD() {
	p := s.seed("Rose Oil", productdom.Int64Ptr(5))

	got, err := s.store.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Rose Oil", got.Name.Primary)
	s.Equal(int64(5), *got.Stock)

	got.Name.En = "Rose Oil EN"
	_, err = s.store.Save(s.ctx, got)
	s.Require().NoError(err)

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Rose Oil EN", list[0].Name.En)

	s.Require().NoError(s.store.Delete(s.ctx, p.ID))
	_, err = s.store.GetByID(s.ctx, p.ID)
	s.ErrorIs(err, productdom.ErrNotFound)
}

func (s *StoreSuite) TestUpdateStock() {
	p := s.seed("Rose Oil", productdom.Int64Ptr(2))

	ok, err := s.store.UpdateStock(s.ctx, p.ID, productdom.Decrement(2))
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.UpdateStock(s.ctx, p.ID, productdom.Decrement(1))
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.UpdateStock(s.ctx, "missing", productdom.Decrement(-1))
	s.Require().NoError(err)
	s.False(ok)

	got, err := s.store.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), *got.Stock)
}

func (s *StoreSuite) TestUpdateStock_ConcurrentNeverOversells() {
	p := s.seed("Oud", productdom.Int64Ptr(5))

	var (
		wg        sync.WaitGroup
		committed atomic.Int64
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.store.UpdateStock(s.ctx, p.ID, productdom.Decrement(1))
			if err == nil && ok {
				committed.Add(1)
			}
		}()
	}
	wg.Wait()

	got, err := s.store.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(5-committed.Load(), *got.Stock)
	s.GreaterOrEqual(*got.Stock, int64(0))
}

func (s *StoreSuite) TestOrdersAndPurchases() {
	orders := s.store.Orders()
	o, err := orderdom.New("u1", []orderdom.OrderItem{{ProductID: "p1", Name: "Rose", Qty: 2, Price: 10}}, nil)
	s.Require().NoError(err)

	id, err := orders.Create(s.ctx, o)
	s.Require().NoError(err)

	got, err := orders.GetByID(s.ctx, "u1", id)
	s.Require().NoError(err)
	s.Equal(orderdom.StatusPending, got.Status)
	s.Equal(20.0, got.Total)
	s.False(got.CreatedAt.IsZero())

	_, err = orders.GetByID(s.ctx, "u2", id)
	s.ErrorIs(err, orderdom.ErrNotFound)

	list, err := orders.ListByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Len(list, 1)

	s.Require().NoError(s.store.MarkPurchased(s.ctx, "u1", "p1"))
	has, err := s.store.HasPurchased(s.ctx, "u1", "p1")
	s.Require().NoError(err)
	s.True(has)
	has, err = s.store.HasPurchased(s.ctx, "u1", "p2")
	s.Require().NoError(err)
	s.False(has)
}

func (s *StoreSuite) TestRoles() {
	isAdmin, err := s.store.IsAdmin(s.ctx, "boss")
	s.Require().NoError(err)
	s.False(isAdmin)

	s.Require().NoError(s.store.SetAdmin(s.ctx, "boss", true))
	isAdmin, err = s.store.IsAdmin(s.ctx, "boss")
	s.Require().NoError(err)
	s.True(isAdmin)
}

func (s *StoreSuite) TestSubscribe() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	ch, err := s.store.Subscribe(ctx)
	s.Require().NoError(err)
	s.Empty(<-ch)

	s.seed("Rose", productdom.Int64Ptr(1))

	select {
	case ps := <-ch:
		s.Len(ps, 1)
	case <-time.After(5 * time.Second):
		s.Fail("no snapshot after write")
	}

	cancel()
	for range ch {
	}
}

func TestStore_NilClient(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	if _, err := s.GetByID(ctx, "p1"); err != ErrClientNil {
		t.Fatalf("GetByID err = %v, want ErrClientNil", err)
	}
	if _, err := s.UpdateStock(ctx, "p1", productdom.Decrement(1)); err != ErrClientNil {
		t.Fatalf("UpdateStock err = %v, want ErrClientNil", err)
	}
	if _, err := s.Subscribe(ctx); err != ErrClientNil {
		t.Fatalf("Subscribe err = %v, want ErrClientNil", err)
	}
}
