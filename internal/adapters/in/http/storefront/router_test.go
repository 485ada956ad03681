package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"storefront/internal/adapters/in/http/middleware"
	handler "storefront/internal/adapters/in/http/storefront/handler"
	"storefront/internal/adapters/out/memory"
	usecase "storefront/internal/application/usecase"
	productdom "storefront/internal/domain/product"
)

type stubVerifier map[string]*fbauth.Token

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("bad token")
}

type stubImages struct{}

func (stubImages) UploadProductImage(_ context.Context, name, _ string, _ []byte) (string, error) {
	return "https://storage.googleapis.com/test-bucket/products/" + name, nil
}

type RouterSuite struct {
	suite.Suite

	store  *memory.Store
	server *httptest.Server
	client *http.Client
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.store = memory.NewStore()
	carts := memory.NewCartStore(0)

	catalogUC := usecase.NewCatalogUsecase(s.store)
	cartUC := usecase.NewCartUsecase(carts, s.store)
	checkoutUC := usecase.NewCheckoutUsecase(carts, s.store, s.store.Orders(), s.store)
	orderUC := usecase.NewOrderUsecase(s.store.Orders())
	adminUC := usecase.NewAdminProductUsecase(s.store, s.store, stubImages{})

	s.Require().NoError(s.store.SetAdmin(context.Background(), "boss", true))

	verifier := stubVerifier{
		"buyer": {UID: "u1", Claims: map[string]any{"email": "u1@example.com"}},
		"boss":  {UID: "boss"},
	}

	h := NewHandler(Deps{
		Catalog:      handler.NewCatalogHandler(catalogUC, nil),
		Cart:         handler.NewCartHandler(cartUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Me:           handler.NewMeHandler(orderUC, adminUC),
		AdminProduct: handler.NewAdminProductHandler(adminUC),
		UserAuth:     &middleware.UserAuthMiddleware{Verifier: verifier},
		AdminOnly:    &middleware.AdminOnly{Roles: s.store},
		CartSession:  &middleware.CartSession{},
	}, nil)

	s.server = httptest.NewServer(h)
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.client = &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) seed(id, name, nameEn string, price float64, stock int64) {
	_, err := s.store.Save(context.Background(), productdom.Product{
		ID:    id,
		Name:  productdom.Localized{Primary: name, En: nameEn},
		Price: price,
		Stock: productdom.Int64Ptr(stock),
	})
	s.Require().NoError(err)
}

func (s *RouterSuite) call(method, path, token string, body any) (*http.Response, map[string]any) {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.server.URL+path, rd)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()

	var out map[string]any
	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err == nil && len(raw) > 0 && raw[0] == '{' {
		s.Require().NoError(json.Unmarshal(raw, &out))
	}
	return res, out
}

func (s *RouterSuite) TestHealthz() {
	res, err := s.client.Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
}

func (s *RouterSuite) TestCatalogLocalization() {
	s.seed("p1", "زيت الورد", "Rose Oil", 10, 5)

	res, body := s.call(http.MethodGet, "/products/p1?lang=en", "", nil)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("Rose Oil", body["name"])
	s.Equal("en", res.Header.Get("Content-Language"))

	res, body = s.call(http.MethodGet, "/products/p1", "", nil)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("زيت الورد", body["name"])

	res, _ = s.call(http.MethodGet, "/products/nope", "", nil)
	s.Equal(http.StatusNotFound, res.StatusCode)

	res, _ = s.call(http.MethodPost, "/products", "", nil)
	s.Equal(http.StatusMethodNotAllowed, res.StatusCode)
}

func (s *RouterSuite) TestCartAndCheckout() {
	s.seed("p1", "Rose Oil", "", 10, 5)
	s.seed("p2", "Oud Soap", "", 5, 3)

	res, _ := s.call(http.MethodPost, "/cart/items", "", map[string]any{"productId": "p1", "qty": 2})
	s.Require().Equal(http.StatusOK, res.StatusCode)
	res, body := s.call(http.MethodPost, "/cart/items", "", map[string]any{"productId": "p2"})
	s.Require().Equal(http.StatusOK, res.StatusCode)
	s.Equal("25.00", body["total"])
	s.Equal(float64(3), body["totalQty"])

	// anonymous checkout is refused
	res, body = s.call(http.MethodPost, "/checkout", "", map[string]any{})
	s.Equal(http.StatusUnauthorized, res.StatusCode)
	s.NotEmpty(body["error"])

	res, body = s.call(http.MethodPost, "/checkout", "buyer", map[string]any{
		"deliveryAddress": map[string]any{"city": "Doha"},
	})
	s.Require().Equal(http.StatusCreated, res.StatusCode, body)
	orderID, _ := body["orderId"].(string)
	s.NotEmpty(orderID)

	p1, _ := s.store.GetByID(context.Background(), "p1")
	p2, _ := s.store.GetByID(context.Background(), "p2")
	s.Equal(int64(3), *p1.Stock)
	s.Equal(int64(2), *p2.Stock)

	res, body = s.call(http.MethodGet, "/cart", "", nil)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Empty(body["items"])

	res, body = s.call(http.MethodGet, "/me/orders/"+orderID, "buyer", nil)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal(25.0, body["total"])
	s.Equal("pending", body["status"])

	res, body = s.call(http.MethodPost, "/checkout", "buyer", nil)
	s.Equal(http.StatusBadRequest, res.StatusCode)
	s.Equal("Cart is empty.", body["error"])
}

func (s *RouterSuite) TestCheckoutInsufficientStock() {
	s.seed("p1", "Rose Oil", "", 10, 5)
	s.seed("p2", "Oud Soap", "", 5, 1)

	s.call(http.MethodPost, "/cart/items", "", map[string]any{"productId": "p1", "qty": 2})
	s.call(http.MethodPost, "/cart/items", "", map[string]any{"productId": "p2", "qty": 1})
	s.Require().True(s.store.SetStock("p2", productdom.Int64Ptr(0)))

	res, body := s.call(http.MethodPost, "/checkout", "buyer", nil)
	s.Equal(http.StatusConflict, res.StatusCode)
	s.Equal("Not enough stock for Oud Soap", body["error"])

	p1, _ := s.store.GetByID(context.Background(), "p1")
	s.Equal(int64(5), *p1.Stock)

	res, body = s.call(http.MethodGet, "/cart", "", nil)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Len(body["items"], 2)
}

func (s *RouterSuite) TestCartItemEdits() {
	s.seed("p1", "Rose Oil", "", 10, 5)
	s.seed("sold", "Musk", "", 1, 0)

	res, body := s.call(http.MethodPost, "/cart/items", "", map[string]any{"productId": "sold"})
	s.Equal(http.StatusConflict, res.StatusCode, body)

	s.call(http.MethodPost, "/cart/items", "", map[string]any{"productId": "p1"})
	res, body = s.call(http.MethodPut, "/cart/items/p1", "", map[string]any{"qty": 4})
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("40.00", body["total"])

	res, body = s.call(http.MethodDelete, "/cart/items/p1", "", nil)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("0.00", body["total"])

	res, _ = s.call(http.MethodPost, "/cart/items", "", map[string]any{"productId": "p1", "bogus": 1})
	s.Equal(http.StatusBadRequest, res.StatusCode)

	res, _ = s.call(http.MethodDelete, "/cart", "", nil)
	s.Equal(http.StatusNoContent, res.StatusCode)
}

func (s *RouterSuite) TestMe() {
	res, body := s.call(http.MethodGet, "/me", "buyer", nil)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("u1", body["uid"])
	s.Equal(false, body["isAdmin"])

	_, body = s.call(http.MethodGet, "/me", "boss", nil)
	s.Equal(true, body["isAdmin"])

	res, _ = s.call(http.MethodGet, "/me", "", nil)
	s.Equal(http.StatusUnauthorized, res.StatusCode)
}

func (s *RouterSuite) TestAdminProducts() {
	input := map[string]any{
		"name":        map[string]any{"primary": "عطر", "en": "Perfume"},
		"price":       12.5,
		"stock":       7,
		"galleryText": "https://img/a.png\n\nhttps://img/b.png",
	}

	res, body := s.call(http.MethodPost, "/admin/products", "buyer", input)
	s.Equal(http.StatusForbidden, res.StatusCode)
	s.Equal("Not authorized", body["error"])

	res, _ = s.call(http.MethodPost, "/admin/products", "", input)
	s.Equal(http.StatusUnauthorized, res.StatusCode)

	res, body = s.call(http.MethodPost, "/admin/products", "boss", input)
	s.Require().Equal(http.StatusCreated, res.StatusCode, body)
	id, _ := body["id"].(string)
	s.Require().NotEmpty(id)
	s.Len(body["gallery"], 2)

	input["price"] = -1
	res, _ = s.call(http.MethodPut, "/admin/products/"+id, "boss", input)
	s.Equal(http.StatusBadRequest, res.StatusCode)

	input["price"] = 15
	res, body = s.call(http.MethodPut, "/admin/products/"+id, "boss", input)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal(15.0, body["price"])

	res, _ = s.call(http.MethodDelete, "/admin/products/"+id, "boss", nil)
	s.Equal(http.StatusNoContent, res.StatusCode)

	res, _ = s.call(http.MethodGet, "/products/"+id, "", nil)
	s.Equal(http.StatusNotFound, res.StatusCode)
}

func (s *RouterSuite) TestAdminImageUpload() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "rose.png")
	s.Require().NoError(err)
	// PNG signature
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	s.Require().NoError(mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/admin/products/images", &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer boss")

	res, err := s.client.Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()

	s.Equal(http.StatusCreated, res.StatusCode)
	var out map[string]string
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&out))
	s.True(strings.HasSuffix(out["url"], "/rose.png"))
}

func TestCatalogStream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := memory.NewStore()
	_, err := store.Save(context.Background(), productdom.Product{
		ID: "p1", Name: productdom.Localized{Primary: "زيت", En: "Oil"}, Price: 10, Stock: productdom.Int64Ptr(2),
	})
	require.NoError(t, err)

	h := NewHandler(Deps{
		Catalog: handler.NewCatalogHandler(usecase.NewCatalogUsecase(store), nil),
	}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/products/stream?lang=en"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var first []usecase.ProductView
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	require.Len(t, first, 1)
	assert.Equal(t, "Oil", first[0].Name)
	assert.Equal(t, int64(2), *first[0].Stock)

	ok, err := store.UpdateStock(context.Background(), "p1", productdom.Decrement(1))
	require.NoError(t, err)
	require.True(t, ok)

	var next []usecase.ProductView
	require.NoError(t, conn.ReadJSON(&next))
	require.Len(t, next, 1)
	assert.Equal(t, int64(1), *next[0].Stock)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()
	srv.Close()
}
