package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Product is a single catalog entry. The same shape is used for baseline
// products, local overrides and remote documents.
type Product struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Stock    int      `json:"stock"`
	ImageURL string   `json:"imageUrl"`
}

// InStock reports whether the product can still be added to a cart.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// MatchesKeyword reports whether the lowercased keyword occurs in the
// product name or any of its tags.
func (p Product) MatchesKeyword(keyword string) bool {
	k := strings.ToLower(keyword)
	if strings.Contains(strings.ToLower(p.Name), k) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), k) {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts ids encoded either as JSON numbers or as numeric
// strings. Source documents mix both forms.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		p.ID = 0
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			p.ID = 0
			return nil
		}
		p.ID = id
		return nil
	}

	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return err
	}
	p.ID = id
	return nil
}
