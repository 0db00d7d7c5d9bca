package domain

// CartItem is one line of the customer's cart as persisted on the client.
// Price keeps the formatted label for display; PriceValue is the amount used
// for every calculation.
type CartItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Image      string `json:"image"`
	Price      string `json:"price"`
	PriceValue Money  `json:"_priceValue"`
	Quantity   int    `json:"quantity"`
}

func (i CartItem) Subtotal() Money {
	return i.PriceValue.Mul(i.Quantity)
}

func (i CartItem) OrderItem() OrderItem {
	return OrderItem{
		ProductID: i.ID,
		Name:      i.Name,
		Category:  i.Category,
		Price:     i.PriceValue,
		Quantity:  i.Quantity,
		Image:     i.Image,
	}
}
