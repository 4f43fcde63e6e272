package entity

import "time"

// CollectionInventory colección de registros de inventario (clave: productId).
const CollectionInventory = "inventory"

// InventoryRecord contadores de un producto en el pool compartido.
// Invariante: 0 <= Reserved <= Stock. Solo lo muta el ledger dentro de una transacción.
type InventoryRecord struct {
	ProductID string    `json:"productId"`
	Stock     int64     `json:"stock"`    // unidades propias
	Reserved  int64     `json:"reserved"` // unidades retenidas por órdenes no finalizadas
	UpdatedAt time.Time `json:"updatedAt"`
}

// Available unidades que aún se pueden reservar.
func (r InventoryRecord) Available() int64 {
	return r.Stock - r.Reserved
}

// InventoryPath ruta del documento de inventario.
func InventoryPath(productID string) string {
	return CollectionInventory + "/" + productID
}
