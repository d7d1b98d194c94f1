package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentLabel is the customer-facing name of a payment method.
func PaymentLabel(method string) string {
	switch method {
	case PaymentCOD:
		return "Cash on Delivery"
	case PaymentOnline:
		return "Online Payment"
	case PaymentWhatsApp:
		return "WhatsApp Order"
	}
	return method
}

// OrderSummary is the flattened, human-readable form of an order used by
// confirmation emails, the spreadsheet log and WhatsApp messages.
type OrderSummary struct {
	OrderID         string `json:"orderId"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	Items           string `json:"items"`
	Total           string `json:"total"`
	PaymentMethod   string `json:"paymentMethod"`
	ShippingAddress string `json:"shippingAddress"`
	OrderDate       string `json:"orderDate"`
}

// Summarize flattens o. Items are one "name xN - price" line each.
func (o *Order) Summarize() OrderSummary {
	lines := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, fmt.Sprintf("%s x%d - %s", item.Name, item.Quantity, item.Price.StringFixed(2)))
	}
	a := o.ShippingAddress
	return OrderSummary{
		OrderID:         o.ID,
		CustomerName:    a.FullName,
		CustomerEmail:   a.Email,
		CustomerPhone:   a.Phone,
		Items:           strings.Join(lines, "\n"),
		Total:           o.Total.StringFixed(2),
		PaymentMethod:   PaymentLabel(o.PaymentMethod),
		ShippingAddress: fmt.Sprintf("%s\n%s\n%s, %s - %s", a.FullName, a.Address, a.City, a.State, a.Pincode),
		OrderDate:       o.CreatedAt.Format(time.RFC1123),
	}
}
