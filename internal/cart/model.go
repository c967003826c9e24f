package cart

// Item is a single cart line. UnitPrice is in whole FCFA.
type Item struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Cart is the session-scoped cart for one user. It is owned by a single
// checkout flow at a time and is not safe for concurrent mutation.
type Cart struct {
	UserID string `json:"userId"`
	Items  []Item `json:"items"`
}

func New(userID string) *Cart {
	return &Cart{UserID: userID}
}

// AddItem adds the item, merging quantity with an existing line for the same
// product. Items with a non-positive quantity are ignored.
func (c *Cart) AddItem(it Item) {
	if it.Quantity <= 0 {
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == it.ProductID {
			c.Items[i].Quantity += it.Quantity
			return
		}
	}
	c.Items = append(c.Items, it)
}

// UpdateQuantity sets the quantity for a product. A non-positive quantity
// removes the line.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) RemoveItem(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Total returns the cart total: sum of unit price times quantity per line.
func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Clear() {
	c.Items = nil
}

// Snapshot returns a copy of the items so an order can keep an immutable view
// of the cart at checkout time.
func (c *Cart) Snapshot() []Item {
	out := make([]Item, len(c.Items))
	copy(out, c.Items)
	return out
}
