package checkout

import (
	"net/url"
	"strings"
)

// Payment methods accepted by the checkout form.
var PaymentMethods = []string{"card", "upi", "netbanking", "cod"}

// OrderForm is the shipping and payment form submitted with an order.
type OrderForm struct {
	FullName      string `form:"fullName" label:"Full name" validate:"required,max=100" json:"fullName"`
	Email         string `form:"email" label:"Email" validate:"required,email" json:"email"`
	Phone         string `form:"phone" label:"Phone" validate:"required,numeric,min=10,max=15" json:"phone"`
	AddressLine   string `form:"addressLine" label:"Address" validate:"required,max=200" json:"addressLine"`
	City          string `form:"city" label:"City" validate:"required,max=100" json:"city"`
	PostalCode    string `form:"postalCode" label:"Postal code" validate:"required,numeric,len=6" json:"postalCode"`
	PaymentMethod string `form:"paymentMethod" label:"Payment method" validate:"required,oneof=card upi netbanking cod" json:"paymentMethod"`
}

// OrderFormFromValues reads the submitted order form fields.
func OrderFormFromValues(values url.Values) OrderForm {
	f := OrderForm{
		FullName:      values.Get("fullName"),
		Email:         values.Get("email"),
		Phone:         values.Get("phone"),
		AddressLine:   values.Get("addressLine"),
		City:          values.Get("city"),
		PostalCode:    values.Get("postalCode"),
		PaymentMethod: values.Get("paymentMethod"),
	}
	f.Normalize()
	return f
}

// Normalize trims whitespace and strips phone formatting characters.
func (f *OrderForm) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.AddressLine = strings.TrimSpace(f.AddressLine)
	f.City = strings.TrimSpace(f.City)
	f.PostalCode = strings.TrimSpace(f.PostalCode)
	f.PaymentMethod = strings.ToLower(strings.TrimSpace(f.PaymentMethod))
	f.Phone = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '+':
			return -1
		}
		return r
	}, strings.TrimSpace(f.Phone))
}
