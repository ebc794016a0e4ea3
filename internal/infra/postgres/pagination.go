package postgres

import (
	"fmt"
	"strings"
)

// ListRequest is the {page, limit, search, sortBy, order, filters...} shape
// accepted by paginated listings. Zero values get defaults.
type ListRequest struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	Order   string
	Filters map[string]string
}

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Column allow-lists. Sort columns and filter keys are validated against
// these fixed sets; arbitrary column names never reach the SQL text.
var (
	sortColumns = map[string]struct{}{
		"id": {}, "category": {}, "created_at": {}, "date": {},
		"status": {}, "question": {}, "user_id": {},
	}
	filterKeys = map[string]struct{}{
		"role": {}, "status": {}, "category": {}, "type": {},
		"priority": {}, "topic": {}, "user_id": {}, "source": {},
	}
)

func (r ListRequest) normalized() ListRequest {
	if r.Page < 1 {
		r.Page = defaultPage
	}
	if r.Limit < 1 {
		r.Limit = defaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	return r
}

// buildListQuery renders the WHERE/ORDER BY/LIMIT clauses for a paginated,
// filtered listing. All values are bound parameters; only allow-listed
// identifiers are interpolated.
func buildListQuery(req ListRequest, searchColumns []string) (where, tail string, args []interface{}) {
	req = req.normalized()

	var conditions []string
	idx := 1

	if req.Search != "" && len(searchColumns) > 0 {
		parts := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE LOWER($%d)", col, idx))
			args = append(args, "%"+req.Search+"%")
			idx++
		}
		conditions = append(conditions, "("+strings.Join(parts, " OR ")+")")
	}

	for key, value := range req.Filters {
		if value == "" {
			continue
		}
		if _, ok := filterKeys[key]; !ok {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", key, idx))
		args = append(args, value)
		idx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "id"
	if _, ok := sortColumns[req.SortBy]; ok {
		sortBy = req.SortBy
	}
	order := "DESC"
	if strings.EqualFold(req.Order, "ASC") {
		order = "ASC"
	}

	offset := (req.Page - 1) * req.Limit
	tail = fmt.Sprintf("ORDER BY %s %s LIMIT $%d OFFSET $%d", sortBy, order, idx, idx+1)
	args = append(args, req.Limit, offset)
	return where, tail, args
}

// pages computes the page count for a total and limit.
func pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
