package models

// SnapshotItem is one entry of the checkout snapshot serialized into the
// payment processor's customer metadata. It bridges the asynchronous gap
// between checkout-session creation and webhook delivery and is not
// authoritative storage.
type SnapshotItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}
