// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

// OrderNotifier is an outbound port (order confirmation mail).
type OrderNotifier interface {
	NotifyOrderPlaced(ctx context.Context, email string, o orderdom.Order) error
}

// CheckoutState is the state of one checkout attempt.
type CheckoutState string

const (
	CheckoutIdle         CheckoutState = "idle"
	CheckoutReserving    CheckoutState = "reserving"
	CheckoutCommitting   CheckoutState = "committing"
	CheckoutCompensating CheckoutState = "compensating"
	CheckoutDone         CheckoutState = "done"
	CheckoutFailed       CheckoutState = "failed"
)

var (
	ErrUnauthenticated = errors.New("usecase: unauthenticated")
	ErrEmptyCart       = errors.New("checkout: cart is empty")
	ErrReserveFailed   = errors.New("checkout: stock reservation failed")
	ErrCommitFailed    = errors.New("checkout: order could not be saved")

	ErrCheckoutNotConfigured = errors.New("checkout: usecase is not configured")
	errReversalNotCommitted  = errors.New("checkout: reversal was not committed")
)

// InsufficientStockError is raised when the reservation of cart line Index does not commit.
type InsufficientStockError struct {
	Index     int
	ProductID string
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return "checkout: not enough stock for " + e.DisplayName()
}

// DisplayName is the line's name, or its product id when the snapshot has no name.
func (e *InsufficientStockError) DisplayName() string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	return e.ProductID
}

// Reservation is a committed stock decrement.
type Reservation struct {
	ProductID string
	Qty       int64
}

// ReversalFailure is a reservation whose compensating increment did not go through.
// Stock of ProductID stays under-reported by Qty until corrected by hand.
type ReversalFailure struct {
	ProductID string
	Qty       int64
	Err       error
}

// CheckoutInput is the app-level input.
type CheckoutInput struct {
	CartID          string
	DeliveryAddress map[string]any
}

// CheckoutResult describes the outcome of one attempt, successful or not.
type CheckoutResult struct {
	OrderID         string
	State           CheckoutState
	Reserved        []Reservation
	FailedReversals []ReversalFailure
}

// CheckoutUsecase drives reservation -> order commit -> (compensation).
//
// Items are reserved one at a time in cart order. No timeout is added here: ctx is passed
// through unchanged to every store call.
type CheckoutUsecase struct {
	carts     cartdom.Repository
	stock     productdom.StockUpdater
	orders    orderdom.Repository
	purchases orderdom.PurchaseRepository
	notifier  OrderNotifier

	tracer trace.Tracer
	now    func() time.Time
}

func NewCheckoutUsecase(
	carts cartdom.Repository,
	stock productdom.StockUpdater,
	orders orderdom.Repository,
	purchases orderdom.PurchaseRepository,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		carts:     carts,
		stock:     stock,
		orders:    orders,
		purchases: purchases,
		tracer:    otel.Tracer("storefront/usecase"),
		now:       time.Now,
	}
}

// WithNotifier sets the optional order confirmation port.
func (u *CheckoutUsecase) WithNotifier(n OrderNotifier) *CheckoutUsecase {
	u.notifier = n
	return u
}

// Checkout runs one attempt for the signed-in user and the session cart in.CartID.
func (u *CheckoutUsecase) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	res := CheckoutResult{State: CheckoutIdle}

	if u == nil || u.carts == nil || u.stock == nil || u.orders == nil || u.purchases == nil {
		return res, ErrCheckoutNotConfigured
	}

	sess, ok := SessionFromContext(ctx)
	if !ok {
		return res, ErrUnauthenticated
	}

	cartID := strings.TrimSpace(in.CartID)
	if cartID == "" {
		return res, ErrEmptyCart
	}
	c, err := u.carts.GetByID(ctx, cartID)
	if err != nil {
		return res, fmt.Errorf("checkout: load cart: %w", err)
	}
	if c.IsEmpty() {
		return res, ErrEmptyCart
	}

	ctx, span := u.tracer.Start(ctx, "checkout",
		trace.WithAttributes(
			attribute.String("checkout.uid", sess.UID),
			attribute.Int("checkout.lines", len(c.Items)),
		),
	)
	defer span.End()

	// 1) reserve
	res.State = CheckoutReserving
	reserved, err := u.ReserveAll(ctx, c.Lines())
	res.Reserved = reserved
	if err != nil {
		u.fail(ctx, span, &res, err)
		return res, err
	}

	// 2) commit
	res.State = CheckoutCommitting
	o, err := u.commit(ctx, sess.UID, c, in.DeliveryAddress)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrCommitFailed, err)
		u.fail(ctx, span, &res, err)
		return res, err
	}

	res.OrderID = o.ID
	res.State = CheckoutDone
	span.SetAttributes(attribute.String("checkout.order_id", o.ID))

	log.Printf("[checkout_uc] OK: order created uid=%s orderId=%s items=%d total=%.2f",
		sess.UID, o.ID, len(o.Items), o.Total,
	)

	// 3) cart is consumed only on success
	c.Clear(u.now().UTC())
	if cErr := u.carts.Save(ctx, c); cErr != nil {
		log.Printf("[checkout_uc] WARN: clear cart failed cartId=%s err=%v", cartID, cErr)
	}

	if u.notifier != nil && sess.Email != "" {
		if nErr := u.notifier.NotifyOrderPlaced(ctx, sess.Email, o); nErr != nil {
			log.Printf("[checkout_uc] WARN: order mail failed orderId=%s err=%v", o.ID, nErr)
		}
	}

	return res, nil
}

// ReserveAll reserves every line in order and stops at the first one that does not commit.
// It returns the reservations that did commit, in commit order, also on failure.
func (u *CheckoutUsecase) ReserveAll(ctx context.Context, lines []cartdom.Line) ([]Reservation, error) {
	reserved := make([]Reservation, 0, len(lines))
	for i, ln := range lines {
		committed, err := u.stock.UpdateStock(ctx, ln.ProductID, productdom.Decrement(ln.Qty))
		if err != nil {
			return reserved, fmt.Errorf("%w: productId=%s: %w", ErrReserveFailed, ln.ProductID, err)
		}
		if !committed {
			return reserved, &InsufficientStockError{Index: i, ProductID: ln.ProductID, Name: ln.Name}
		}
		reserved = append(reserved, Reservation{ProductID: ln.ProductID, Qty: ln.Qty})
	}
	return reserved, nil
}

// Compensate re-increments every reservation. Each reversal is attempted independently;
// the ones that fail are returned (and logged), they never stop the loop.
func (u *CheckoutUsecase) Compensate(ctx context.Context, reserved []Reservation) []ReversalFailure {
	var failed []ReversalFailure
	for _, r := range reserved {
		committed, err := u.stock.UpdateStock(ctx, r.ProductID, productdom.Decrement(-r.Qty))
		if err == nil && !committed {
			err = errReversalNotCommitted
		}
		if err != nil {
			log.Printf("[checkout_uc] WARN: stock reversal failed productId=%s qty=%d err=%v",
				r.ProductID, r.Qty, err,
			)
			failed = append(failed, ReversalFailure{ProductID: r.ProductID, Qty: r.Qty, Err: err})
		}
	}
	return failed
}

func (u *CheckoutUsecase) commit(ctx context.Context, uid string, c *cartdom.Cart, addr map[string]any) (orderdom.Order, error) {
	items := make([]orderdom.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, orderdom.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Qty:       it.Qty,
			Price:     it.Price,
		})
	}

	o, err := orderdom.New(uid, items, addr)
	if err != nil {
		return orderdom.Order{}, err
	}

	id, err := u.orders.Create(ctx, o)
	if err != nil {
		return orderdom.Order{}, fmt.Errorf("create order: %w", err)
	}
	o.ID = id
	o.CreatedAt = u.now().UTC()

	for _, it := range o.Items {
		if err := u.purchases.MarkPurchased(ctx, uid, it.ProductID); err != nil {
			return o, fmt.Errorf("mark purchased productId=%s: %w", it.ProductID, err)
		}
	}
	return o, nil
}

// fail runs compensation for whatever was reserved and moves the attempt to FAILED.
// Compensation ignores cancellation of ctx so a dropped client does not strand reservations.
func (u *CheckoutUsecase) fail(ctx context.Context, span trace.Span, res *CheckoutResult, cause error) {
	span.RecordError(cause)
	span.SetStatus(otelcodes.Error, cause.Error())

	res.State = CheckoutCompensating
	if len(res.Reserved) > 0 {
		res.FailedReversals = u.Compensate(context.WithoutCancel(ctx), res.Reserved)
	}
	res.State = CheckoutFailed

	log.Printf("[checkout_uc] checkout failed reserved=%d failedReversals=%d err=%v",
		len(res.Reserved), len(res.FailedReversals), cause,
	)
}
