package repository

import "gorm.io/gorm"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage 归一化页码与页大小，pageSize < 0 表示不分页
func normalizePage(page, pageSize int) (int, int) {
	if pageSize < 0 {
		return 1, 0
	}
	if page < 1 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// applyPagination 追加 LIMIT/OFFSET
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil {
		return nil
	}
	page, pageSize = normalizePage(page, pageSize)
	if pageSize == 0 {
		return query
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
