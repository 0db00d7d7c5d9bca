package domain

import (
	"fmt"
	"net/url"
	"time"
)

// PaymentRecord is generated when a customer submits checkout and is later
// used to confirm the order.
type PaymentRecord struct {
	OrderID          string        `json:"orderId"`
	Amount           Money         `json:"amount"`
	Phone            string        `json:"phone"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	Timestamp        time.Time     `json:"timestamp"`
	PaymentReference string        `json:"paymentReference,omitempty"`
}

// Provider describes how to pay a merchant through one mobile-money network.
type Provider struct {
	Method         PaymentMethod `json:"method"`
	DisplayName    string        `json:"displayName"`
	DialCode       string        `json:"dialCode"`
	MerchantNumber string        `json:"merchantNumber"`
}

// Instructions is the fixed text shown after checkout, specific to a provider.
type Instructions struct {
	OrderID      string   `json:"orderId"`
	Provider     Provider `json:"provider"`
	Amount       Money    `json:"amount"`
	Steps        []string `json:"steps"`
	WhatsAppLink string   `json:"whatsappLink"`
	Note         string   `json:"note"`
}

const (
	MTNDialCode    = "*165*3#"
	AirtelDialCode = "*185*9*1#"

	DefaultMTNMerchant    = "256754030391"
	DefaultAirtelMerchant = "256705030391"
)

// Providers returns the two supported mobile-money networks for the given
// merchant numbers.
func Providers(mtnMerchant, airtelMerchant string) map[PaymentMethod]Provider {
	return map[PaymentMethod]Provider{
		PaymentMTN: {
			Method:         PaymentMTN,
			DisplayName:    "MTN Mobile Money",
			DialCode:       MTNDialCode,
			MerchantNumber: mtnMerchant,
		},
		PaymentAirtel: {
			Method:         PaymentAirtel,
			DisplayName:    "Airtel Money",
			DialCode:       AirtelDialCode,
			MerchantNumber: airtelMerchant,
		},
	}
}

// NewInstructions renders the payment steps for an order.
func NewInstructions(p Provider, orderID string, amount Money) Instructions {
	amt := "UGX " + amount.Grouped()
	return Instructions{
		OrderID:  orderID,
		Provider: p,
		Amount:   amount,
		Steps: []string{
			fmt.Sprintf("Dial %s on your phone", p.DialCode),
			`Select "Send Money" or "Pay Bill"`,
			fmt.Sprintf("Enter merchant number: %s", p.MerchantNumber),
			fmt.Sprintf("Enter amount: %s", amt),
			fmt.Sprintf("Enter reference: %s", orderID),
			"Enter your PIN to complete payment",
		},
		WhatsAppLink: WhatsAppLink(p.MerchantNumber, orderID, amount),
		Note:         "Your order will be processed within 24 hours after payment confirmation.",
	}
}

// WhatsAppLink builds the wa.me deep link used as an alternative way to pay.
func WhatsAppLink(merchant, orderID string, amount Money) string {
	text := fmt.Sprintf("Hi, I want to pay for Order %s - UGX %s", orderID, amount.Grouped())
	return fmt.Sprintf("https://wa.me/%s?text=%s", url.PathEscape(merchant), url.QueryEscape(text))
}
