package postgres

import (
	"strings"
	"testing"
)

func TestBuildListQueryDefaults(t *testing.T) {
	where, tail, args := buildListQuery(ListRequest{}, nil)

	if where != "" {
		t.Fatalf("expected no WHERE clause, got %q", where)
	}
	if tail != "ORDER BY id DESC LIMIT $1 OFFSET $2" {
		t.Fatalf("unexpected tail %q", tail)
	}
	if len(args) != 2 || args[0] != 20 || args[1] != 0 {
		t.Fatalf("expected default limit 20 offset 0, got %v", args)
	}
}

func TestBuildListQueryPaging(t *testing.T) {
	_, tail, args := buildListQuery(ListRequest{Page: 3, Limit: 10}, nil)

	if !strings.Contains(tail, "LIMIT $1 OFFSET $2") {
		t.Fatalf("unexpected tail %q", tail)
	}
	if args[0] != 10 || args[1] != 20 {
		t.Fatalf("expected limit 10 offset 20, got %v", args)
	}
}

func TestBuildListQueryCapsLimit(t *testing.T) {
	_, _, args := buildListQuery(ListRequest{Limit: 5000}, nil)
	if args[0] != 100 {
		t.Fatalf("expected limit capped at 100, got %v", args[0])
	}
}

func TestBuildListQuerySearch(t *testing.T) {
	where, _, args := buildListQuery(
		ListRequest{Search: "gerund"},
		[]string{"question", "explanation"},
	)

	if where != "WHERE (LOWER(question) LIKE LOWER($1) OR LOWER(explanation) LIKE LOWER($2))" {
		t.Fatalf("unexpected where %q", where)
	}
	if args[0] != "%gerund%" || args[1] != "%gerund%" {
		t.Fatalf("expected wildcard-wrapped search args, got %v", args)
	}
}

func TestBuildListQueryAllowListedFilter(t *testing.T) {
	where, _, args := buildListQuery(
		ListRequest{Filters: map[string]string{"category": "Part 5"}},
		nil,
	)

	if where != "WHERE category = $1" {
		t.Fatalf("unexpected where %q", where)
	}
	if args[0] != "Part 5" {
		t.Fatalf("expected bound filter value, got %v", args)
	}
}

func TestBuildListQueryRejectsUnknownIdentifiers(t *testing.T) {
	where, tail, args := buildListQuery(ListRequest{
		SortBy:  "password; DROP TABLE toeic_users",
		Order:   "ASC) --",
		Filters: map[string]string{"password": "x", "1=1": "y"},
	}, nil)

	if where != "" {
		t.Fatalf("expected unknown filters dropped, got %q", where)
	}
	if !strings.HasPrefix(tail, "ORDER BY id DESC") {
		t.Fatalf("expected fallback sort, got %q", tail)
	}
	// Only the limit and offset made it into the args.
	if len(args) != 2 {
		t.Fatalf("expected no filter args, got %v", args)
	}
}

func TestBuildListQuerySkipsEmptyFilterValues(t *testing.T) {
	where, _, _ := buildListQuery(
		ListRequest{Filters: map[string]string{"category": ""}},
		nil,
	)
	if where != "" {
		t.Fatalf("expected empty filter ignored, got %q", where)
	}
}

func TestBuildListQueryAscendingSort(t *testing.T) {
	_, tail, _ := buildListQuery(ListRequest{SortBy: "created_at", Order: "asc"}, nil)
	if !strings.HasPrefix(tail, "ORDER BY created_at ASC") {
		t.Fatalf("unexpected tail %q", tail)
	}
}

func TestPages(t *testing.T) {
	cases := []struct {
		total, limit, want int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 10, 10},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := pages(c.total, c.limit); got != c.want {
			t.Fatalf("pages(%d, %d) = %d, want %d", c.total, c.limit, got, c.want)
		}
	}
}
