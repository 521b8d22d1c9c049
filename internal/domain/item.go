package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ItemKind tags the attribute shape of an item. Stock and pricing behave
// the same for every kind.
type ItemKind string

// remember to add new kinds to the itemAttributeKeys map
const (
	ItemKindBook  ItemKind = "BOOK"
	ItemKindAlbum ItemKind = "ALBUM"
	ItemKindMovie ItemKind = "MOVIE"
)

var itemAttributeKeys = map[ItemKind][]string{
	ItemKindBook:  {"author", "isbn"},
	ItemKindAlbum: {"artist", "etc"},
	ItemKindMovie: {"director", "actor"},
}

func ToItemKind(s string) (ItemKind, error) {
	kind := ItemKind(strings.ToUpper(s))
	if _, ok := itemAttributeKeys[kind]; ok {
		return kind, nil
	}
	return "", InvalidArgument("invalid item kind %q", s)
}

type Item struct {
	ID            uuid.UUID         `json:"id"`
	Kind          ItemKind          `json:"kind"`
	Name          string            `json:"name"`
	Price         Money             `json:"price"`
	StockQuantity int               `json:"stock_quantity"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func NewItem(kind ItemKind, name string, price Money, stock int, attrs map[string]string, now time.Time) (Item, error) {
	it := Item{
		ID:            uuid.New(),
		Kind:          kind,
		Name:          name,
		Price:         price,
		StockQuantity: stock,
		Attributes:    attrs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (it Item) Validate() error {
	allowed, ok := itemAttributeKeys[it.Kind]
	if !ok {
		return InvalidArgument("invalid item kind %q", it.Kind)
	}
	if strings.TrimSpace(it.Name) == "" {
		return InvalidArgument("item name is empty")
	}
	if it.Price.IsNegative() {
		return InvalidArgument("item price is negative")
	}
	if it.StockQuantity < 0 {
		return InvalidArgument("item stock is negative")
	}
	for key := range it.Attributes {
		if !lo.Contains(allowed, key) {
			return InvalidArgument("attribute %q is not valid for %s", key, it.Kind)
		}
	}
	return nil
}

// Reserve takes qty units out of stock.
func (it *Item) Reserve(qty int) error {
	if qty < 1 {
		return InvalidArgument("quantity must be at least 1, got %d", qty)
	}
	if qty > it.StockQuantity {
		return OutOfStock("item %s has %d in stock, %d requested", it.ID, it.StockQuantity, qty)
	}
	it.StockQuantity -= qty
	return nil
}

// Release puts qty units back into stock.
func (it *Item) Release(qty int) {
	it.StockQuantity += qty
}

func (it Item) Clone() Item {
	c := it
	if it.Attributes != nil {
		c.Attributes = make(map[string]string, len(it.Attributes))
		for k, v := range it.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}
