package option

import "gorm.io/gorm"

// QueryOption mutates a gorm query before execution. Repositories accept a
// variadic list so callers can compose ordering, limits and preloads without
// widening the repository interface.
type QueryOption func(*gorm.DB) *gorm.DB

func WithLimit(limit int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return tx
		}
		return tx.Limit(limit)
	}
}

func WithOffset(offset int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if offset <= 0 {
			return tx
		}
		return tx.Offset(offset)
	}
}

func WithOrder(order string) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(order)
	}
}

func WithPreload(association string, args ...interface{}) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Preload(association, args...)
	}
}

func WithWhere(query interface{}, args ...interface{}) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(query, args...)
	}
}

// Apply runs every option against the query in order.
func Apply(tx *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}
