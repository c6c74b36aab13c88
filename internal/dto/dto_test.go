package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/cart"
	"github.com/joue-zero/homemade-dishes/internal/dish"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"x-7","c":null}`), &v))
	assert.Equal(t, ID("42"), v.A)
	assert.Equal(t, ID("x-7"), v.B)
	assert.Equal(t, ID(""), v.C)

	out, err := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
	}{"42", "x-7"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":42,"b":"x-7"}`, string(out))
}

func TestTimeLayouts(t *testing.T) {
	want := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	for _, in := range []string{
		`"2024-03-05T10:30:00Z"`,
		`"2024-03-05T10:30:00"`,
		`"2024-03-05 10:30:00"`,
		`[2024,3,5,10,30]`,
	} {
		var ts Time
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.True(t, want.Equal(ts.Time), in)
	}

	var ts Time
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestOrderCustomerShape(t *testing.T) {
	body := `{
		"id": 9, "status": "PENDING", "totalAmount": 20.00,
		"user": {"id": 3, "username": "amira"},
		"items": [{"id": 1, "dishId": 1, "dishName": "Koshari", "price": 10, "quantity": 2, "sellerId": 5}],
		"createdAt": "2024-03-05T10:30:00"
	}`
	var dto Order
	require.NoError(t, json.Unmarshal([]byte(body), &dto))
	assert.Equal(t, ShapeCustomer, dto.Shape())

	o, err := dto.ToDomain("")
	require.NoError(t, err)
	assert.Equal(t, "9", o.ID)
	assert.Equal(t, "3", o.CustomerID)
	assert.Equal(t, "amira", o.CustomerName)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentNone, o.PaymentStatus)
	assert.True(t, decimal.NewFromInt(20).Equal(o.TotalAmount))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "5", o.Items[0].SellerID)
	assert.False(t, o.MultiSeller)
}

func TestOrderSellerShape(t *testing.T) {
	body := `{
		"id": "11", "status": "ACCEPTED", "paymentStatus": "PAID",
		"customerId": 3, "customerName": "amira",
		"sellerItems": [{"dishId": 2, "price": 7.5, "quantity": 2}],
		"totalOrderAmount": 40, "isMultiSellerOrder": true
	}`
	var dto Order
	require.NoError(t, json.Unmarshal([]byte(body), &dto))
	assert.Equal(t, ShapeSeller, dto.Shape())

	o, err := dto.ToDomain("5")
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, o.PaymentStatus)
	assert.True(t, o.MultiSeller)
	assert.True(t, decimal.NewFromInt(40).Equal(o.TotalAmount))
	assert.True(t, decimal.NewFromInt(15).Equal(o.SellerSubtotal))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "5", o.Items[0].SellerID)
}

func TestOrderLegacyShapeComputesTotal(t *testing.T) {
	body := `{"id": 4, "status": "canceled", "userId": 8,
		"orderItems": [{"dishId": 1, "price": 10, "quantity": 1}, {"dishId": 2, "price": "2.50", "quantity": 2}]}`
	var dto Order
	require.NoError(t, json.Unmarshal([]byte(body), &dto))
	assert.Equal(t, ShapeLegacy, dto.Shape())

	o, err := dto.ToDomain("")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, o.Status)
	assert.Equal(t, "8", o.CustomerID)
	assert.True(t, decimal.NewFromInt(15).Equal(o.TotalAmount))
}

func TestOrderRejectsBadPayloads(t *testing.T) {
	_, err := Order{}.ToDomain("")
	assert.Error(t, err)

	_, err = Order{ID: "1", Status: "SHIPPED"}.ToDomain("")
	assert.Error(t, err)

	_, err = Order{ID: "1", Items: []OrderItem{{DishID: "1", Quantity: 0}}}.ToDomain("")
	assert.Error(t, err)
}

func TestNewCreateOrder(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddItem(testDish("1", "10"), 2))

	req, err := c.ToOrderRequest()
	require.NoError(t, err)

	out, err := json.Marshal(NewCreateOrder(req))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"dishId":1,"quantity":2}]`, string(out))
}

func TestBalanceShapes(t *testing.T) {
	var raw Balance
	require.NoError(t, json.Unmarshal([]byte(`50.25`), &raw))
	assert.Equal(t, "50.25", raw.Balance.String())

	var obj Balance
	require.NoError(t, json.Unmarshal([]byte(`{"userId": 3, "balance": "30"}`), &obj))
	assert.Equal(t, ID("3"), obj.UserID)
	assert.True(t, decimal.NewFromInt(30).Equal(obj.Balance))

	var missing Balance
	assert.Error(t, json.Unmarshal([]byte(`{"userId": 3}`), &missing))
}

func TestBalanceCheckShapes(t *testing.T) {
	var a, b BalanceCheck
	require.NoError(t, json.Unmarshal([]byte(`true`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"sufficient": false}`), &b))
	assert.True(t, a.Sufficient)
	assert.False(t, b.Sufficient)
}

func TestPaymentStatusBodies(t *testing.T) {
	assert.Equal(t, "PAID", PaymentStatus([]byte(`"PAID"`)))
	assert.Equal(t, "PENDING", PaymentStatus([]byte("PENDING\n")))
	assert.Equal(t, "FAILED", PaymentStatus([]byte(`{"orderId":1,"status":"FAILED"}`)))
	assert.Equal(t, "", PaymentStatus(nil))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Insufficient balance", ErrorMessage([]byte(`{"message":"Insufficient balance"}`)))
	assert.Equal(t, "Bad Request", ErrorMessage([]byte(`{"error":"Bad Request"}`)))
	assert.Equal(t, "boom", ErrorMessage([]byte(`boom`)))
	assert.Equal(t, "", ErrorMessage([]byte(`  `)))
}

func TestUserSession(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"username":"sam","role":"ROLE_SELLER","token":"t"}`), &u))

	s, err := u.Session()
	require.NoError(t, err)
	assert.Equal(t, session.Session{UserID: "7", Username: "sam", Role: session.RoleSeller, Token: "t"}, s)
}

func TestDishCompanyShape(t *testing.T) {
	var d Dish
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"Koshari","price":10,"company":{"id":5,"name":"Nile Kitchen"}}`), &d))

	got := d.ToDomain()
	assert.Equal(t, "5", got.SellerID)
	assert.Equal(t, "Nile Kitchen", got.SellerName)
	assert.True(t, got.Available)
}

func testDish(id, price string) dish.Dish {
	return dish.Dish{ID: id, Name: "dish " + id, Price: decimal.RequireFromString(price), Available: true, SellerID: "5"}
}
