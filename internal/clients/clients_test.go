package clients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/middleware"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/users"
)

var (
	customer = session.Session{UserID: "3", Username: "amira", Role: session.RoleCustomer, Token: "tok"}
	seller   = session.Session{UserID: "5", Username: "hana", Role: session.RoleSeller, Token: "tok"}
)

type recordedRequest struct {
	Method   string
	Path     string
	Escaped  string
	RawQuery string
	Header   http.Header
	Body     string
}

// newStubServer answers every request with handle and records it.
func newStubServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()
	ch := make(chan recordedRequest, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- recordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			Escaped:  r.URL.EscapedPath(),
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		handle(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func writeBody(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(body)) }
}

func testOptions() Options {
	return Options{Timeout: time.Second, ReadRetries: 2, Logger: zerolog.Nop()}
}

func TestRequestHeaders(t *testing.T) {
	srv, reqs := newStubServer(t, writeBody(`[]`))
	oc := NewOrderClient(NewClient("orders", srv.URL, nil, testOptions()))

	ctx := middleware.WithCorrelationID(context.Background(), "cid-1")
	_, err := oc.ListForCustomer(ctx, customer, "3")
	require.NoError(t, err)

	got := <-reqs
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/orders/customer/3", got.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "3", got.Header.Get(middleware.HeaderUserID))
	assert.Equal(t, "cid-1", got.Header.Get(middleware.HeaderCorrelationID))
}

func TestReadsAreRetried(t *testing.T) {
	var calls atomic.Int32
	srv, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"status":"PENDING","items":[]}`))
	})
	oc := NewOrderClient(NewClient("orders", srv.URL, nil, testOptions()))

	o, err := oc.Get(context.Background(), customer, "7")
	require.NoError(t, err)
	assert.Equal(t, "7", o.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Bad Request","message":"bad id"}`))
	})
	oc := NewOrderClient(NewClient("orders", srv.URL, nil, testOptions()))

	_, err := oc.Get(context.Background(), customer, "x")
	var re *apperr.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "bad id", re.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMutationsAreSentOnce(t *testing.T) {
	var calls atomic.Int32
	srv, reqs := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	pc := NewPaymentClient(NewClient("payments", srv.URL, nil, testOptions()))

	_, err := pc.Process(context.Background(), customer, "9")
	require.ErrorIs(t, err, apperr.ErrRemote)
	assert.Equal(t, int32(1), calls.Load())
	assert.JSONEq(t, `{"orderId":9}`, (<-reqs).Body)
}

func TestSellerOrdersFallBack(t *testing.T) {
	primary, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	fallback, reqs := newStubServer(t, writeBody(`[{"id":1,"status":"ACCEPTED","customerId":3,"customerName":"amira",
		"sellerItems":[{"dishId":2,"price":10,"quantity":2}],"totalOrderAmount":35,"isMultiSellerOrder":true}]`))

	oc := NewOrderClient(NewClient("orders", primary.URL, nil, testOptions(), fallback.URL))
	list, err := oc.ListForSeller(context.Background(), seller, "5")
	require.NoError(t, err)
	require.Len(t, list, 1)

	o := list[0]
	assert.Equal(t, order.StatusAccepted, o.Status)
	assert.True(t, o.MultiSeller)
	assert.Equal(t, "5", o.Items[0].SellerID)
	assert.True(t, decimal.NewFromInt(20).Equal(o.SellerSubtotal))
	assert.True(t, decimal.NewFromInt(35).Equal(o.TotalAmount))
	assert.Equal(t, "/api/orders/seller/5", (<-reqs).Path)
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	srv, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	})
	var reasons []string
	opts := testOptions()
	opts.Unauthorized = func(_ context.Context, reason string) { reasons = append(reasons, reason) }
	bc := NewBalanceClient(NewClient("balance", srv.URL, nil, opts), nil)

	_, err := bc.Balance(context.Background(), customer)
	require.ErrorIs(t, err, apperr.ErrAuthRequired)
	assert.Equal(t, []string{"token expired"}, reasons)

	// Anonymous calls never trigger the hook.
	dc := NewDishClient(NewClient("dishes", srv.URL, nil, opts))
	_, err = dc.List(context.Background(), session.Session{})
	require.ErrorIs(t, err, apperr.ErrAuthRequired)
	assert.Len(t, reasons, 1)
}

func TestForbidden(t *testing.T) {
	srv, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	oc := NewOrderClient(NewClient("orders", srv.URL, nil, testOptions()))

	_, err := oc.Cancel(context.Background(), customer, "4")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTimeoutIsTyped(t *testing.T) {
	srv, _ := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	opts := testOptions()
	opts.Timeout = 50 * time.Millisecond
	opts.ReadRetries = 0
	oc := NewOrderClient(NewClient("orders", srv.URL, nil, opts))

	_, err := oc.Get(context.Background(), customer, "1")
	require.ErrorIs(t, err, apperr.ErrTimeout)
	assert.True(t, apperr.Retryable(err))
}

func TestCallerCancellationIsNotATimeout(t *testing.T) {
	srv, _ := newStubServer(t, writeBody(`{}`))
	oc := NewOrderClient(NewClient("orders", srv.URL, nil, testOptions()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := oc.Get(ctx, customer, "1")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, apperr.ErrTimeout))
}

func TestUnreachableHostIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	opts := testOptions()
	opts.ReadRetries = 0
	dc := NewDishClient(NewClient("dishes", url, nil, opts))
	_, err := dc.List(context.Background(), session.Session{})
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestBalanceFallsBackToUsersService(t *testing.T) {
	balanceSrv, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	usersSrv, reqs := newStubServer(t, writeBody(`42.50`))

	uc := NewUserClient(NewClient("users", usersSrv.URL, nil, testOptions()))
	bc := NewBalanceClient(NewClient("balance", balanceSrv.URL, nil, testOptions()), uc)

	bal, err := bc.Balance(context.Background(), customer)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("42.5").Equal(bal))
	assert.Equal(t, "/api/users/3/balance", (<-reqs).Path)
}

func TestBalanceObjectShape(t *testing.T) {
	srv, _ := newStubServer(t, writeBody(`{"userId":3,"balance":80}`))
	bc := NewBalanceClient(NewClient("balance", srv.URL, nil, testOptions()), nil)

	bal, err := bc.Balance(context.Background(), customer)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(80).Equal(bal))

	_, err = bc.Debit(context.Background(), customer, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBalanceCheckSendsAmount(t *testing.T) {
	srv, reqs := newStubServer(t, writeBody(`true`))
	bc := NewBalanceClient(NewClient("balance", srv.URL, nil, testOptions()), nil)

	ok, err := bc.Check(context.Background(), customer, decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "amount=12.50", (<-reqs).RawQuery)
}

func TestSubCentAmountsAreRefused(t *testing.T) {
	var calls atomic.Int32
	srv, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`true`))
	})
	bc := NewBalanceClient(NewClient("balance", srv.URL, nil, testOptions()), nil)

	_, err := bc.Check(context.Background(), customer, decimal.RequireFromString("10.005"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = bc.Debit(context.Background(), customer, decimal.RequireFromString("0.001"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, calls.Load())
}

func TestPaymentOutcomes(t *testing.T) {
	srv, _ := newStubServer(t, writeBody(`{"orderId":9,"success":false,"message":"Insufficient balance"}`))
	pc := NewPaymentClient(NewClient("payments", srv.URL, nil, testOptions()))

	out, err := pc.Process(context.Background(), customer, "9")
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "Insufficient balance", out.Message)
	assert.Equal(t, "9", out.OrderID)
}

func TestPaymentStatusBodies(t *testing.T) {
	for body, want := range map[string]order.PaymentStatus{
		`"PAID"`:               order.PaymentPaid,
		`FAILED`:               order.PaymentFailed,
		`{"status":"PENDING"}`: order.PaymentPending,
		`"NONE"`:               order.PaymentNone,
	} {
		t.Run(body, func(t *testing.T) {
			srv, _ := newStubServer(t, writeBody(body))
			pc := NewPaymentClient(NewClient("payments", srv.URL, nil, testOptions()))
			got, err := pc.Status(context.Background(), customer, "9")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestUpdateStatusSendsQueryAndBody(t *testing.T) {
	srv, reqs := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	oc := NewOrderClient(NewClient("orders", srv.URL, nil, testOptions()))

	o, err := oc.UpdateStatus(context.Background(), seller, "4", order.StatusReady)
	require.NoError(t, err)
	assert.Equal(t, order.StatusReady, o.Status)

	got := <-reqs
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/api/orders/4/status", got.Path)
	assert.Equal(t, "status=READY", got.RawQuery)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"status":"READY"}`, got.Body)
}

func TestIDsAreEscapedInPaths(t *testing.T) {
	srv, reqs := newStubServer(t, writeBody(`{"id":1,"status":"PENDING"}`))
	oc := NewOrderClient(NewClient("orders", srv.URL, nil, testOptions()))
	pc := NewPaymentClient(NewClient("payments", srv.URL, nil, testOptions()))

	for _, tc := range []struct {
		id   string
		want string
	}{
		{"../../users", "/api/orders/..%2F..%2Fusers"},
		{"..", "/api/orders/%2E%2E"},
		{"7?x=1", "/api/orders/7%3Fx=1"},
	} {
		_, _ = oc.Get(context.Background(), customer, tc.id)
		got := <-reqs
		assert.Equal(t, tc.want, got.Escaped, tc.id)
		assert.Empty(t, got.RawQuery, tc.id)
	}

	_, _ = pc.Status(context.Background(), customer, "../../balance")
	assert.Equal(t, "/api/payments/status/..%2F..%2Fbalance", (<-reqs).Escaped)
}

func TestListDishesForSeller(t *testing.T) {
	srv, reqs := newStubServer(t, writeBody(`[{"id":1,"name":"Koshari","price":10,"available":false},{"id":2,"name":"Fatta","price":"12.5","company":{"id":5,"name":"hana"}}]`))
	dc := NewDishClient(NewClient("dishes", srv.URL, nil, testOptions()))

	list, err := dc.ListForSeller(context.Background(), seller, "5")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "5", list[0].SellerID)
	assert.False(t, list[0].Available)
	assert.Equal(t, "hana", list[1].SellerName)
	assert.True(t, decimal.RequireFromString("12.5").Equal(list[1].Price))

	got := <-reqs
	assert.Equal(t, "/api/sellers/5/dishes", got.Path)
	assert.Equal(t, "5", got.Header.Get(middleware.HeaderUserID))
}

func TestLoginWithoutTokenGetsOpaqueOne(t *testing.T) {
	srv, _ := newStubServer(t, writeBody(`{"id":3,"username":"amira","role":"ROLE_CUSTOMER"}`))
	uc := NewUserClient(NewClient("users", srv.URL, nil, testOptions()))

	s, err := uc.Login(context.Background(), users.Credentials{Username: "amira", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "3", s.UserID)
	assert.Equal(t, session.RoleCustomer, s.Role)
	assert.Contains(t, s.Token, "opaque-")
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	uc := NewUserClient(NewClient("users", "http://127.0.0.1:1", nil, testOptions()))
	admin := session.Session{UserID: "1", Role: session.RoleAdmin, Token: "t"}
	assert.ErrorIs(t, uc.Delete(context.Background(), admin, "1"), apperr.ErrValidation)
	assert.ErrorIs(t, uc.Delete(context.Background(), customer, "2"), apperr.ErrForbidden)
}

func TestCheckHealth(t *testing.T) {
	up, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) })
	down, _ := newStubServer(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) })

	res := CheckHealth(context.Background(), HealthProbe{Name: "users", Client: NewClient("users", up.URL, nil, testOptions()), Path: "/api/users"})
	assert.True(t, res.OK)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = CheckHealth(context.Background(), HealthProbe{Name: "orders", Client: NewClient("orders", down.URL, nil, testOptions()), Path: "/api/orders"})
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Error)
}
