package cart

// ItemView is the wire representation of a single cart line.
type ItemView struct {
	Name     string            `json:"name"`
	Price    int64             `json:"price"`
	Quantity int               `json:"quantity"`
	Total    int64             `json:"total"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// View is the wire representation of the whole cart, returned by every cart
// endpoint. Key names (items/itemCount/totalPrice) are part of the public
// response format.
type View struct {
	Items      map[string]ItemView `json:"items"`
	ItemCount  int                 `json:"itemCount"`
	TotalPrice int64               `json:"totalPrice"`
}

// Encode builds the response view of the cart.
func (c *Cart) Encode() *View {
	items := make(map[string]ItemView, len(c.items))
	for pk, it := range c.items {
		items[pk] = ItemView{
			Name:     it.Product.Name,
			Price:    it.Product.Price,
			Quantity: it.Quantity,
			Total:    it.Total(),
			Meta:     it.Meta,
		}
	}
	return &View{
		Items:      items,
		ItemCount:  c.ItemCount(),
		TotalPrice: c.TotalPrice(),
	}
}
