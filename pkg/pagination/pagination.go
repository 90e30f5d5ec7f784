package pagination

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	// FetchQty is the page size used by every list endpoint.
	FetchQty = 10
	// PreviewQty is the page size used by preview endpoints.
	PreviewQty = 2
	// KeySeparator joins the parts of a composite key into one cursor.
	KeySeparator = ":"
)

// Column is one ordering expression. Expressions may reference the table
// named in Spec.Table, including correlated sub-selects.
type Column struct {
	Expr string
	Desc bool
}

// Desc orders by expr descending.
func Desc(expr string) Column { return Column{Expr: expr, Desc: true} }

// Asc orders by expr ascending.
func Asc(expr string) Column { return Column{Expr: expr} }

// Chronological orders table rows by created_at, newest first unless
// oldestFirst is set. The id breaks ties.
func Chronological(table string, oldestFirst bool) Order {
	if oldestFirst {
		return Order{Asc(table + ".created_at"), Asc(table + ".id")}
	}
	return Order{Desc(table + ".created_at"), Desc(table + ".id")}
}

// Order lists the ordering columns. The combination must be unique per row,
// so the last column is normally the table key.
type Order []Column

// PageInfo describes the position of a page inside the filtered collection.
type PageInfo struct {
	EndCursor   *string `json:"endCursor"`
	HasNextPage bool    `json:"hasNextPage"`
	Count       *int64  `json:"count,omitempty"`
}

// Edge pairs a node with the cursor pointing at it.
type Edge[T any] struct {
	Cursor string `json:"cursor"`
	Node   T      `json:"node"`
}

// Page is the list envelope returned by every paginated operation.
type Page[T any] struct {
	PageInfo PageInfo  `json:"pageInfo"`
	Edges    []Edge[T] `json:"edges"`
}

// Nodes returns the nodes of the page in order.
func (p Page[T]) Nodes() []T {
	nodes := make([]T, 0, len(p.Edges))
	for _, edge := range p.Edges {
		nodes = append(nodes, edge.Node)
	}
	return nodes
}

// Empty returns a terminal page without items.
func Empty[T any]() Page[T] {
	return Page[T]{Edges: []Edge[T]{}}
}

// Map converts the nodes of a page while keeping cursors and page info.
func Map[T, U any](page Page[T], fn func(T) U) Page[U] {
	out := Page[U]{PageInfo: page.PageInfo, Edges: make([]Edge[U], 0, len(page.Edges))}
	for _, edge := range page.Edges {
		out.Edges = append(out.Edges, Edge[U]{Cursor: edge.Cursor, Node: fn(edge.Node)})
	}
	return out
}

// AsPreview turns a counted first page into a preview: EndCursor is dropped
// and HasNextPage reports whether the count exceeds the page.
func AsPreview[T any](page Page[T]) Page[T] {
	page.PageInfo.EndCursor = nil
	page.PageInfo.HasNextPage = page.PageInfo.Count != nil && *page.PageInfo.Count > int64(len(page.Edges))
	return page
}

// Spec configures a single page fetch.
type Spec[T any] struct {
	// Table is the table the query reads from and the order expressions reference.
	Table string
	// KeyColumns identify a row; defaults to the table id.
	KeyColumns []string
	Order      Order
	// Size defaults to FetchQty.
	Size   int
	Cursor string
	// Key renders the cursor of a node. Composite keys use JoinKey.
	Key func(T) string
	// WithCount adds the total number of rows matching the filter.
	WithCount bool
	// Preloads are applied to the page query only.
	Preloads []string
}

// JoinKey builds a composite cursor.
func JoinKey(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

// SplitKey breaks a composite cursor into n parts.
func SplitKey(cursor string, n int) ([]string, bool) {
	parts := strings.Split(cursor, KeySeparator)
	if len(parts) != n {
		return nil, false
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, false
		}
	}
	return parts, true
}

// Fetch reads one page of query (a filtered, unordered query on spec.Table).
//
// Without a cursor the first Size rows are returned. With a cursor the rows
// strictly after the cursor row are returned. A full page triggers one
// lookahead query after its last row to decide HasNextPage and sets
// EndCursor to that row; a short page is terminal. A cursor that matches no
// row yields an empty terminal page.
func Fetch[T any](ctx context.Context, query *gorm.DB, spec Spec[T]) (Page[T], error) {
	if err := spec.validate(); err != nil {
		return Page[T]{}, err
	}
	size := spec.Size
	if size <= 0 {
		size = FetchQty
	}

	page := Empty[T]()

	if spec.WithCount {
		var count int64
		if err := fresh(ctx, query).Count(&count).Error; err != nil {
			return Page[T]{}, err
		}
		page.PageInfo.Count = &count
	}

	pageQuery := fresh(ctx, query)
	if cursor := strings.TrimSpace(spec.Cursor); cursor != "" {
		values, found, err := position(ctx, query, spec, cursor)
		if err != nil {
			return Page[T]{}, err
		}
		if !found {
			return page, nil
		}
		sql, args := after(spec.Order, values)
		pageQuery = pageQuery.Where(sql, args...)
	}
	for _, preload := range spec.Preloads {
		pageQuery = pageQuery.Preload(preload)
	}

	var items []T
	if err := pageQuery.Order(orderClause(spec.Order)).Limit(size).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}

	for _, item := range items {
		page.Edges = append(page.Edges, Edge[T]{Cursor: spec.Key(item), Node: item})
	}
	if len(items) < size {
		return page, nil
	}

	endCursor := spec.Key(items[len(items)-1])
	page.PageInfo.EndCursor = &endCursor

	values, found, err := position(ctx, query, spec, endCursor)
	if err != nil {
		return Page[T]{}, err
	}
	if !found {
		return page, nil
	}
	sql, args := after(spec.Order, values)
	var remaining int64
	if err := fresh(ctx, query).Where(sql, args...).Count(&remaining).Error; err != nil {
		return Page[T]{}, err
	}
	page.PageInfo.HasNextPage = remaining > 0
	return page, nil
}

func (s Spec[T]) validate() error {
	if s.Table == "" {
		return fmt.Errorf("pagination: table is required")
	}
	if len(s.Order) == 0 {
		return fmt.Errorf("pagination: order is required")
	}
	if s.Key == nil {
		return fmt.Errorf("pagination: key func is required")
	}
	return nil
}

func (s Spec[T]) keyColumns() []string {
	if len(s.KeyColumns) == 0 {
		return []string{"id"}
	}
	return s.KeyColumns
}

func fresh(ctx context.Context, query *gorm.DB) *gorm.DB {
	return query.Session(&gorm.Session{}).WithContext(ctx)
}

// position loads the ordering values of the row identified by cursor.
func position[T any](ctx context.Context, query *gorm.DB, spec Spec[T], cursor string) ([]any, bool, error) {
	keys := spec.keyColumns()
	parts := []string{cursor}
	if len(keys) > 1 {
		split, ok := SplitKey(cursor, len(keys))
		if !ok {
			return nil, false, nil
		}
		parts = split
	}

	selects := make([]string, len(spec.Order))
	for i, col := range spec.Order {
		selects[i] = fmt.Sprintf("%s AS k%d", col.Expr, i)
	}
	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		conds[i] = fmt.Sprintf("%s.%s = ?", spec.Table, key)
		args[i] = parts[i]
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(selects, ", "), spec.Table, strings.Join(conds, " AND "))

	rows, err := query.Session(&gorm.Session{NewDB: true}).WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	values := make([]any, len(spec.Order))
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, false, err
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, true, rows.Err()
}

// after renders the keyset predicate selecting rows strictly after values.
func after(order Order, values []any) (string, []any) {
	clauses := make([]string, 0, len(order))
	args := make([]any, 0, len(order)*(len(order)+1)/2)
	for i, col := range order {
		parts := make([]string, 0, i+1)
		for j := 0; j < i; j++ {
			parts = append(parts, fmt.Sprintf("%s = ?", order[j].Expr))
			args = append(args, values[j])
		}
		op := ">"
		if col.Desc {
			op = "<"
		}
		parts = append(parts, fmt.Sprintf("%s %s ?", col.Expr, op))
		args = append(args, values[i])
		clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func orderClause(order Order) string {
	parts := make([]string, len(order))
	for i, col := range order {
		dir := "ASC"
		if col.Desc {
			dir = "DESC"
		}
		parts[i] = col.Expr + " " + dir
	}
	return strings.Join(parts, ", ")
}
