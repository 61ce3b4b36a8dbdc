// Package cart holds the in-memory cart model and its quantity validation
// rules. It performs no I/O: products are resolved by the service layer and
// handed in, the resulting state is handed back out as session Data.
package cart

import (
	"sort"
	"strconv"
	"strings"

	"easycart/internal/model"
)

// Limits bound the quantity a single cart line may hold.
type Limits struct {
	// MaxQuantity is the configured ceiling per item. Zero disables the check.
	MaxQuantity int
	// ByStock additionally caps each line by the product's stock level.
	ByStock bool
}

// Item pairs a product row with the quantity held in the cart.
type Item struct {
	Product  model.Product
	Quantity int
	Meta     map[string]string
}

// Total returns price times quantity for this line, in minor currency units.
func (it *Item) Total() int64 {
	return it.Product.Price * int64(it.Quantity)
}

// Cart is one user's cart, keyed by product ID.
type Cart struct {
	items  map[string]*Item
	limits Limits
}

// New returns an empty cart with the given limits.
func New(limits Limits) *Cart {
	return &Cart{
		items:  make(map[string]*Item),
		limits: limits,
	}
}

// ParseQuantity converts a raw request parameter into a quantity.
// It rejects values that are not integers, zero, or negative; the
// per-item ceiling is enforced later by the cart itself.
func ParseQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, nonConvertibleQuantity(raw)
	}
	if n == 0 {
		return 0, zeroQuantity()
	}
	if n < 0 {
		return 0, negativeQuantity(n)
	}
	return n, nil
}

// Load populates the cart from its persisted entries, joining each pk against
// the resolved product rows. Entries whose product no longer exists are not
// loaded; their pks are returned (sorted) so the caller can purge the session.
func (c *Cart) Load(data *Data, products []model.Product) (stale []string) {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for pk, entry := range data.Items {
		p, ok := byID[pk]
		if !ok {
			stale = append(stale, pk)
			continue
		}
		c.items[pk] = &Item{Product: p, Quantity: entry.Quantity, Meta: entry.Meta}
	}
	sort.Strings(stale)
	return stale
}

// Add puts quantity units of the product in the cart. If the product is
// already present its quantity is increased, and the summed value is
// re-validated against the effective ceiling.
func (c *Cart) Add(p model.Product, quantity int, meta map[string]string) error {
	if it, ok := c.items[p.ID]; ok {
		return c.setQuantity(it, it.Quantity+quantity)
	}
	it := &Item{Product: p, Meta: meta}
	if err := c.setQuantity(it, quantity); err != nil {
		return err
	}
	c.items[p.ID] = it
	return nil
}

// ChangeQuantity replaces the quantity of an existing line.
func (c *Cart) ChangeQuantity(pk string, quantity int) error {
	it, ok := c.items[pk]
	if !ok {
		return ItemNotInCart(pk)
	}
	return c.setQuantity(it, quantity)
}

// Remove deletes a line from the cart.
func (c *Cart) Remove(pk string) error {
	if _, ok := c.items[pk]; !ok {
		return ItemNotInCart(pk)
	}
	delete(c.items, pk)
	return nil
}

// Empty removes all lines.
func (c *Cart) Empty() {
	c.items = make(map[string]*Item)
}

// Get returns the line for pk, if present.
func (c *Cart) Get(pk string) (*Item, bool) {
	it, ok := c.items[pk]
	return it, ok
}

// ItemCount returns the number of unique items in the cart.
func (c *Cart) ItemCount() int {
	return len(c.items)
}

// UnitCount returns the sum of all line quantities.
func (c *Cart) UnitCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice returns the value of the whole cart in minor currency units.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, it := range c.items {
		total += it.Total()
	}
	return total
}

// List returns the cart lines as a slice. When less is non-nil the slice is
// sorted with it; reverse flips the order.
func (c *Cart) List(less func(a, b *Item) bool, reverse bool) []*Item {
	items := make([]*Item, 0, len(c.items))
	for _, it := range c.items {
		items = append(items, it)
	}
	if less != nil {
		sort.SliceStable(items, func(i, j int) bool {
			if reverse {
				return less(items[j], items[i])
			}
			return less(items[i], items[j])
		})
	}
	return items
}

// Entries returns the persisted form of the cart for the session store.
func (c *Cart) Entries() *Data {
	d := NewData()
	for pk, it := range c.items {
		d.Items[pk] = Entry{Quantity: it.Quantity, Meta: it.Meta}
	}
	d.ItemCount = c.ItemCount()
	d.TotalPrice = c.TotalPrice()
	return d
}

// setQuantity validates and assigns a line quantity. The zero/negative checks
// guard direct callers; ParseQuantity already rejects such request input.
func (c *Cart) setQuantity(it *Item, quantity int) error {
	if quantity == 0 {
		return zeroQuantity()
	}
	if quantity < 0 {
		return negativeQuantity(quantity)
	}
	if max := c.maxFor(it.Product); max > 0 && quantity > max {
		return tooLargeQuantity(quantity, max)
	}
	it.Quantity = quantity
	return nil
}

// maxFor computes the effective quantity ceiling for a product.
func (c *Cart) maxFor(p model.Product) int {
	max := c.limits.MaxQuantity
	if c.limits.ByStock && (max == 0 || p.Stock < max) {
		max = p.Stock
	}
	return max
}
