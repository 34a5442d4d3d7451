// Package user holds the profile area of a browser session: the profile,
// the address book and the saved payment methods. Accounts live in memory
// and start from the same demo data.
package user

import (
	"strings"
	"time"
)

// Profile is the account holder shown on the profile tab.
type Profile struct {
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	AccountCreated time.Time `json:"accountCreated"`
}

// Initial returns the avatar letter.
func (p Profile) Initial() string {
	name := strings.TrimSpace(p.FullName)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[0]))
}

// Address is an address book entry.
type Address struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	HouseFlat string `json:"houseFlat"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

// Payment method kinds.
const (
	KindCard       = "card"
	KindUPI        = "upi"
	KindNetBanking = "netbanking"
)

// PaymentMethod is a saved payment method. Only the last four card digits
// are kept.
type PaymentMethod struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	CardType    string `json:"cardType,omitempty"`
	LastFour    string `json:"lastFour,omitempty"`
	ExpiryMonth string `json:"expiryMonth,omitempty"`
	ExpiryYear  string `json:"expiryYear,omitempty"`
	HolderName  string `json:"holderName,omitempty"`
	UPIID       string `json:"upiId,omitempty"`
	BankName    string `json:"bankName,omitempty"`
	IsDefault   bool   `json:"isDefault"`
}

// Account is everything the profile area stores for one session.
type Account struct {
	Profile        Profile         `json:"profile"`
	Addresses      []Address       `json:"addresses"`
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
}

func (a Account) clone() Account {
	return Account{
		Profile:        a.Profile,
		Addresses:      append([]Address(nil), a.Addresses...),
		PaymentMethods: append([]PaymentMethod(nil), a.PaymentMethods...),
	}
}

// DemoAccount is the starting point of every session.
func DemoAccount() Account {
	return Account{
		Profile: Profile{
			FullName:       "Sunakshi Gawas",
			Email:          "sunakshi.gawas@example.com",
			Phone:          "+91 9604513436",
			AccountCreated: time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
		},
		Addresses: []Address{
			{ID: "1", Type: "Home", Name: "Sunakshi Gawas", Phone: "+91 9604513436", HouseFlat: "Sr.no 14 Jay jawan nager", Street: "yerwda road, Pune", City: "Pune", State: "Maharashtra", Pincode: "411006", Country: "India", IsDefault: true},
			{ID: "2", Type: "Office", Name: "Sunakshi Gawas", Phone: "+91 9604513436", HouseFlat: "Floor 5, Tech Park", Street: "Outer Ring Road, Marathahalli", City: "Bangalore", State: "Karnataka", Pincode: "560037", Country: "India"},
		},
		PaymentMethods: []PaymentMethod{
			{ID: "1", Type: KindCard, CardType: "Visa", LastFour: "4532", ExpiryMonth: "12", ExpiryYear: "2027", HolderName: "John Doe", IsDefault: true},
			{ID: "2", Type: KindCard, CardType: "Mastercard", LastFour: "8745", ExpiryMonth: "08", ExpiryYear: "2026", HolderName: "John Doe"},
			{ID: "3", Type: KindUPI, UPIID: "johndoe@okicici"},
		},
	}
}
