// Package cart menyimpan keranjang pelanggan sebelum order dikirim. Keranjang
// milik satu client dan disimpan di device client itu. Total final tetap
// dihitung ulang dari order_items di database.
package cart

import (
	"github.com/shopspring/decimal"
)

type Item struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    *string         `json:"image"`
	Note     string          `json:"note,omitempty"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Baris keranjang dibedakan oleh (ID, Note).
type Cart struct {
	items []Item
}

func New(items ...Item) *Cart {
	c := &Cart{}
	for _, item := range items {
		c.Add(item)
	}
	return c
}

// Add menambah quantity baris dengan (ID, Note) yang sama, atau membuat baris baru.
func (c *Cart) Add(item Item) {
	for i := range c.items {
		if c.items[i].ID == item.ID && c.items[i].Note == item.Note {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// Remove menghapus semua baris untuk menu item tersebut, apapun catatannya.
func (c *Cart) Remove(id uint) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// Update mengganti quantity semua baris menu item tersebut, minimal nol.
func (c *Cart) Update(id uint, quantity int) {
	if quantity < 0 {
		quantity = 0
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = quantity
		}
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items mengembalikan salinan baris sesuai urutan masuk.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Count() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) Total() decimal.Decimal {
	return Total(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Total = jumlah price x quantity.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
