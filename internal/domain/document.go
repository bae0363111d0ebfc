package domain

// Document is the whole remote store payload. The sync protocol is
// whole-document replace: every PUT sends all three collections.
type Document struct {
	Products        []Product `json:"products"`
	DeletedProducts []int64   `json:"deletedProducts"`
	Orders          []Order   `json:"orders"`
}
