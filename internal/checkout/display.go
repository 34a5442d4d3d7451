package checkout

import (
	"time"

	"github.com/noah-isme/storefront-toko/internal/money"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

const (
	// NoOptionText is shown when a line has no resolvable delivery option.
	NoOptionText = "Select a delivery option"
	// DateLayout renders delivery dates as "Tuesday, June 21".
	DateLayout = "Monday, January 2"
)

const freeShipping = "FREE Shipping"

// OptionRow is one radio choice under a cart line.
type OptionRow struct {
	ID      shopapi.ID `json:"id"`
	Date    string     `json:"date"`
	Price   string     `json:"price"`
	Checked bool       `json:"checked"`
}

// LineDisplay is everything needed to render one cart line.
type LineDisplay struct {
	ProductID    shopapi.ID  `json:"productId"`
	Name         string      `json:"name"`
	Image        string      `json:"image"`
	Price        string      `json:"price"`
	Quantity     int         `json:"quantity"`
	DeliveryDate string      `json:"deliveryDate"`
	Options      []OptionRow `json:"options"`
}

// SummaryDisplay is the formatted payment summary. Values are rendered from
// the server snapshot as-is.
type SummaryDisplay struct {
	TotalItems     int    `json:"totalItems"`
	Items          string `json:"items"`
	Shipping       string `json:"shipping"`
	TotalBeforeTax string `json:"totalBeforeTax"`
	Tax            string `json:"tax"`
	OrderTotal     string `json:"orderTotal"`
}

// View is the checkout page model.
type View struct {
	ItemCount int             `json:"itemCount"`
	Lines     []LineDisplay   `json:"lines"`
	Summary   *SummaryDisplay `json:"summary,omitempty"`
}

// Presenter turns checkout state into display strings.
type Presenter struct {
	Money    money.Formatter
	Location *time.Location
}

// NewPresenter returns a presenter using the given formatter and time zone.
func NewPresenter(m money.Formatter, loc *time.Location) Presenter {
	if loc == nil {
		loc = time.Local
	}
	return Presenter{Money: m, Location: loc}
}

func (p Presenter) date(ms int64) string {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(DateLayout)
}

// ResolveSelectedOption returns "Delivery date: <date>" when the effective
// option of the product exists in the catalog and NoOptionText otherwise.
func (p Presenter) ResolveSelectedOption(st *State, productID shopapi.ID) string {
	opt, ok := st.SelectedOption(productID)
	if !ok {
		return NoOptionText
	}
	return "Delivery date: " + p.date(opt.EstimatedDeliveryTimeMs)
}

// ComputeLineDisplay bundles the product fields, the resolved delivery date
// and one row per catalog option.
func (p Presenter) ComputeLineDisplay(st *State, line shopapi.CartLine) LineDisplay {
	out := LineDisplay{
		ProductID:    line.ProductID,
		Quantity:     line.Quantity,
		DeliveryDate: p.ResolveSelectedOption(st, line.ProductID),
	}
	if line.Product != nil {
		out.Name = line.Product.Name
		out.Image = line.Product.Image
		out.Price = p.Money.Format(line.Product.PriceCents)
	}
	effective, hasEffective := st.EffectiveOptionID(line.ProductID)
	out.Options = make([]OptionRow, 0, len(st.Options))
	for _, opt := range st.Options {
		price := freeShipping
		if opt.PriceCents > 0 {
			price = p.Money.Format(opt.PriceCents) + " - Shipping"
		}
		out.Options = append(out.Options, OptionRow{
			ID:      opt.ID,
			Date:    p.date(opt.EstimatedDeliveryTimeMs),
			Price:   price,
			Checked: hasEffective && effective == opt.ID,
		})
	}
	return out
}

// Summary formats a payment summary. A nil summary renders as nil.
func (p Presenter) Summary(ps *shopapi.PaymentSummary) *SummaryDisplay {
	if ps == nil {
		return nil
	}
	return &SummaryDisplay{
		TotalItems:     ps.TotalItems,
		Items:          p.Money.Format(ps.ProductsTotalCents),
		Shipping:       p.Money.Format(ps.ShippingCostCents),
		TotalBeforeTax: p.Money.Format(ps.TotalCostBeforeTaxCents),
		Tax:            p.Money.Format(ps.TaxCents),
		OrderTotal:     p.Money.Format(ps.TotalCostCents),
	}
}

// View builds the full checkout page model.
func (p Presenter) View(st *State) View {
	v := View{ItemCount: st.ItemCount(), Summary: p.Summary(st.Summary)}
	v.Lines = make([]LineDisplay, 0, len(st.Cart))
	for _, line := range st.Cart {
		v.Lines = append(v.Lines, p.ComputeLineDisplay(st, line))
	}
	return v
}
