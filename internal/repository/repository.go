// Package repository contains the gorm-backed implementations of the
// domain repository interfaces. Transactions that span tables live here
// so services stay storage-free and testable against fakes.
package repository

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func totalPages(count int64, pageSize int) int {
	if count == 0 {
		return 0
	}
	return int((count + int64(pageSize) - 1) / int64(pageSize))
}
