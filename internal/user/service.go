package user

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/storefront-toko/internal/common"
)

type Service struct {
	Store *Store
	Now   func() time.Time
	NewID func() string
}

// NewService returns a service over store with uuid ids.
func NewService(store *Store) *Service {
	return &Service{Store: store, Now: time.Now, NewID: func() string { return uuid.NewString() }}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Account returns the session's account.
func (s *Service) Account(sessionID string) Account {
	return s.Store.Get(sessionID)
}

// UpdateProfile replaces the editable profile fields.
func (s *Service) UpdateProfile(sessionID string, values url.Values) (Profile, error) {
	form := profileFormFrom(values)
	if err := common.ValidateStruct(form); err != nil {
		return Profile{}, err
	}
	acc, err := s.Store.Update(sessionID, func(a *Account) error {
		a.Profile.FullName = form.FullName
		a.Profile.Email = form.Email
		a.Profile.Phone = form.Phone
		return nil
	})
	return acc.Profile, err
}

// SaveAddress adds a new address when id is empty and edits it otherwise. The
// first address of an empty book becomes the default.
func (s *Service) SaveAddress(sessionID, id string, values url.Values) (Address, error) {
	form := addressFormFrom(values)
	if err := common.ValidateStruct(form); err != nil {
		return Address{}, err
	}
	addr := Address{
		ID:        id,
		Type:      form.Type,
		Name:      form.Name,
		Phone:     form.Phone,
		HouseFlat: form.HouseFlat,
		Street:    form.Street,
		City:      form.City,
		State:     form.State,
		Pincode:   form.Pincode,
		Country:   form.Country,
	}
	_, err := s.Store.Update(sessionID, func(a *Account) error {
		if id == "" {
			addr.ID = s.newID()
			addr.IsDefault = len(a.Addresses) == 0
			a.Addresses = append(a.Addresses, addr)
			return nil
		}
		i := addressIndex(a.Addresses, id)
		if i < 0 {
			return &common.NotFoundError{Resource: "address", ID: id}
		}
		addr.IsDefault = a.Addresses[i].IsDefault
		a.Addresses[i] = addr
		return nil
	})
	if err != nil {
		return Address{}, err
	}
	return addr, nil
}

// DeleteAddress removes an address. When the default goes, the first
// remaining address takes its place.
func (s *Service) DeleteAddress(sessionID, id string) error {
	_, err := s.Store.Update(sessionID, func(a *Account) error {
		i := addressIndex(a.Addresses, id)
		if i < 0 {
			return &common.NotFoundError{Resource: "address", ID: id}
		}
		wasDefault := a.Addresses[i].IsDefault
		a.Addresses = append(a.Addresses[:i], a.Addresses[i+1:]...)
		if wasDefault && len(a.Addresses) > 0 {
			a.Addresses[0].IsDefault = true
		}
		return nil
	})
	return err
}

// SetDefaultAddress makes id the only default address.
func (s *Service) SetDefaultAddress(sessionID, id string) error {
	_, err := s.Store.Update(sessionID, func(a *Account) error {
		if addressIndex(a.Addresses, id) < 0 {
			return &common.NotFoundError{Resource: "address", ID: id}
		}
		for i := range a.Addresses {
			a.Addresses[i].IsDefault = a.Addresses[i].ID == id
		}
		return nil
	})
	return err
}

// AddPaymentMethod validates the form for the given kind and saves it.
func (s *Service) AddPaymentMethod(sessionID string, values url.Values) (PaymentMethod, error) {
	kind := strings.ToLower(strings.TrimSpace(values.Get("type")))
	var pm PaymentMethod
	switch kind {
	case KindCard:
		form := cardFormFrom(values)
		if err := common.ValidateStruct(form); err != nil {
			return PaymentMethod{}, err
		}
		month, year, err := s.parseExpiry(form.Expiry)
		if err != nil {
			return PaymentMethod{}, err
		}
		pm = PaymentMethod{
			Type:        KindCard,
			CardType:    CardType(form.Number),
			LastFour:    form.Number[len(form.Number)-4:],
			ExpiryMonth: month,
			ExpiryYear:  year,
			HolderName:  form.HolderName,
		}
	case KindUPI:
		form := UPIForm{UPIID: trimmed(values, "upiId")}
		if err := common.ValidateStruct(form); err != nil {
			return PaymentMethod{}, err
		}
		pm = PaymentMethod{Type: KindUPI, UPIID: form.UPIID}
	case KindNetBanking:
		form := NetBankingForm{BankName: trimmed(values, "bankName")}
		if err := common.ValidateStruct(form); err != nil {
			return PaymentMethod{}, err
		}
		pm = PaymentMethod{Type: KindNetBanking, BankName: form.BankName}
	default:
		return PaymentMethod{}, common.NewValidationError("type", "Payment type must be one of: card, upi, netbanking")
	}
	_, err := s.Store.Update(sessionID, func(a *Account) error {
		pm.ID = s.newID()
		pm.IsDefault = len(a.PaymentMethods) == 0
		a.PaymentMethods = append(a.PaymentMethods, pm)
		return nil
	})
	if err != nil {
		return PaymentMethod{}, err
	}
	return pm, nil
}

// DeletePaymentMethod removes a saved method, promoting the first remaining
// one when the default is removed.
func (s *Service) DeletePaymentMethod(sessionID, id string) error {
	_, err := s.Store.Update(sessionID, func(a *Account) error {
		i := paymentIndex(a.PaymentMethods, id)
		if i < 0 {
			return &common.NotFoundError{Resource: "payment method", ID: id}
		}
		wasDefault := a.PaymentMethods[i].IsDefault
		a.PaymentMethods = append(a.PaymentMethods[:i], a.PaymentMethods[i+1:]...)
		if wasDefault && len(a.PaymentMethods) > 0 {
			a.PaymentMethods[0].IsDefault = true
		}
		return nil
	})
	return err
}

// SetDefaultPaymentMethod makes id the only default payment method.
func (s *Service) SetDefaultPaymentMethod(sessionID, id string) error {
	_, err := s.Store.Update(sessionID, func(a *Account) error {
		if paymentIndex(a.PaymentMethods, id) < 0 {
			return &common.NotFoundError{Resource: "payment method", ID: id}
		}
		for i := range a.PaymentMethods {
			a.PaymentMethods[i].IsDefault = a.PaymentMethods[i].ID == id
		}
		return nil
	})
	return err
}

// parseExpiry reads "MM/YY" and rejects months already over.
func (s *Service) parseExpiry(expiry string) (string, string, error) {
	invalid := common.NewValidationError("expiry", "Expiry date must look like MM/YY")
	mm, yy, ok := strings.Cut(expiry, "/")
	if !ok || len(mm) != 2 || len(yy) != 2 {
		return "", "", invalid
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return "", "", invalid
	}
	y, err := strconv.Atoi(yy)
	if err != nil {
		return "", "", invalid
	}
	year := 2000 + y
	now := s.now()
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return "", "", common.NewValidationError("expiry", "Card has expired")
	}
	return mm, fmt.Sprintf("%04d", year), nil
}

func addressIndex(list []Address, id string) int {
	for i, a := range list {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func paymentIndex(list []PaymentMethod, id string) int {
	for i, p := range list {
		if p.ID == id {
			return i
		}
	}
	return -1
}
