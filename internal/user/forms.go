package user

import (
	"net/url"
	"strings"
)

// ProfileForm edits the profile.
type ProfileForm struct {
	FullName string `form:"fullName" label:"Full name" validate:"required,max=100"`
	Email    string `form:"email" label:"Email" validate:"required,email"`
	Phone    string `form:"phone" label:"Phone" validate:"required,min=10,max=20"`
}

// AddressForm adds or edits an address.
type AddressForm struct {
	Type      string `form:"type" label:"Address type" validate:"required,oneof=Home Office Other"`
	Name      string `form:"name" label:"Name" validate:"required,max=100"`
	Phone     string `form:"phone" label:"Phone" validate:"required,min=10,max=20"`
	HouseFlat string `form:"houseFlat" label:"House / flat" validate:"required,max=200"`
	Street    string `form:"street" label:"Street" validate:"required,max=200"`
	City      string `form:"city" label:"City" validate:"required,max=100"`
	State     string `form:"state" label:"State" validate:"required,max=100"`
	Pincode   string `form:"pincode" label:"Pincode" validate:"required,numeric,len=6"`
	Country   string `form:"country" label:"Country" validate:"required,max=100"`
}

// CardForm adds a credit or debit card. The CVV is checked and dropped.
type CardForm struct {
	Number     string `form:"cardNumber" label:"Card number" validate:"required,numeric,min=12,max=19"`
	Expiry     string `form:"expiry" label:"Expiry date" validate:"required,len=5"`
	CVV        string `form:"cvv" label:"CVV" validate:"required,numeric,min=3,max=4"`
	HolderName string `form:"holderName" label:"Cardholder name" validate:"required,max=100"`
}

// UPIForm adds a UPI id.
type UPIForm struct {
	UPIID string `form:"upiId" label:"UPI ID" validate:"required,contains=@,max=100"`
}

// NetBankingForm adds a net banking account.
type NetBankingForm struct {
	BankName string `form:"bankName" label:"Bank" validate:"required,max=100"`
}

func trimmed(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}

func profileFormFrom(values url.Values) ProfileForm {
	return ProfileForm{FullName: trimmed(values, "fullName"), Email: trimmed(values, "email"), Phone: trimmed(values, "phone")}
}

func addressFormFrom(values url.Values) AddressForm {
	f := AddressForm{
		Type:      trimmed(values, "type"),
		Name:      trimmed(values, "name"),
		Phone:     trimmed(values, "phone"),
		HouseFlat: trimmed(values, "houseFlat"),
		Street:    trimmed(values, "street"),
		City:      trimmed(values, "city"),
		State:     trimmed(values, "state"),
		Pincode:   trimmed(values, "pincode"),
		Country:   trimmed(values, "country"),
	}
	if f.Type == "" {
		f.Type = "Home"
	}
	if f.Country == "" {
		f.Country = "India"
	}
	return f
}

func cardFormFrom(values url.Values) CardForm {
	return CardForm{
		Number:     strings.NewReplacer(" ", "", "-", "").Replace(trimmed(values, "cardNumber")),
		Expiry:     trimmed(values, "expiry"),
		CVV:        trimmed(values, "cvv"),
		HolderName: trimmed(values, "holderName"),
	}
}

// CardType guesses the network from the first digit.
func CardType(number string) string {
	if number == "" {
		return "Card"
	}
	switch number[0] {
	case '4':
		return "Visa"
	case '5', '2':
		return "Mastercard"
	case '3':
		return "American Express"
	case '6':
		return "Rupay"
	default:
		return "Card"
	}
}
