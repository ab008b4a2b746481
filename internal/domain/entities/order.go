package entities

import "time"

// PaymentMethod is how the customer settles an order
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentUPI            PaymentMethod = "upi"
	PaymentCard           PaymentMethod = "card"
)

// Valid reports whether the payment method is one we accept.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCashOnDelivery, PaymentUPI, PaymentCard:
		return true
	}
	return false
}

// OrderStatus represents the lifecycle of an order
type OrderStatus string

const (
	OrderStatusPlaced OrderStatus = "placed"
)

// CartLine is one medicine and the quantity requested from a single pharmacy
type CartLine struct {
	Medicine Medicine `json:"medicine"`
	Quantity int      `json:"quantity"`
}

// LineTotal returns price times quantity.
func (l CartLine) LineTotal() float64 {
	return l.Medicine.Price * float64(l.Quantity)
}

// DeliveryDetails is where the order goes
type DeliveryDetails struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
}

// OrderTotals is the price breakdown shown at checkout
type OrderTotals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}

// Order is a placed medicine order
type Order struct {
	ID             string          `json:"id" db:"id"`
	PharmacyID     string          `json:"pharmacy_id" db:"pharmacy_id"`
	PharmacyName   string          `json:"pharmacy_name" db:"pharmacy_name"`
	Lines          []CartLine      `json:"lines" db:"-"`
	Delivery       DeliveryDetails `json:"delivery" db:"-"`
	PaymentMethod  PaymentMethod   `json:"payment_method" db:"payment_method"`
	PrescriptionID string          `json:"prescription_id,omitempty" db:"prescription_id"`
	Totals         OrderTotals     `json:"totals" db:"-"`
	Status         OrderStatus     `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
