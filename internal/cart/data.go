package cart

// Entry is the persisted form of a single cart line: the quantity plus any
// extra metadata attached when the item was added.
type Entry struct {
	Quantity int               `json:"quantity"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// Data is the session-store representation of a cart. ItemCount and
// TotalPrice are denormalized so a cart badge can be rendered without
// touching the database.
type Data struct {
	Items      map[string]Entry `json:"items"`
	ItemCount  int              `json:"itemCount"`
	TotalPrice int64            `json:"totalPrice"`
}

// NewData returns an empty cart in its persisted form.
func NewData() *Data {
	return &Data{Items: make(map[string]Entry)}
}
