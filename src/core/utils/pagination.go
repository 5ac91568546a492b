package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type PageParams struct {
	Page     int
	PageSize int
}

// ParsePageParams 解析 page/page_size 查询参数；两者都未提供时 ok 为 false
func ParsePageParams(c *gin.Context, defaultPageSize, maxPageSize int) (params PageParams, ok bool) {
	params = PageParams{Page: 1, PageSize: defaultPageSize}
	if v := strings.TrimSpace(c.Query("page")); v != "" {
		ok = true
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			params.Page = n
		}
	}
	if v := strings.TrimSpace(c.Query("page_size")); v != "" {
		ok = true
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > maxPageSize {
				n = maxPageSize
			}
			params.PageSize = n
		}
	}
	return params, ok
}

func ComputeSliceRange(total, page, pageSize int) (start, end int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	start = (page - 1) * pageSize
	if start > total {
		start = total
	}
	end = start + pageSize
	if end > total {
		end = total
	}
	return
}
