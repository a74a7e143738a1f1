package postgres

import (
	"testing"

	"github.com/nbfhomes/listings/storage"
)

func TestToMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/listings?sslmode=disable", "pgx5://u:p@localhost:5432/listings?sslmode=disable"},
		{"postgresql://localhost/listings", "pgx5://localhost/listings"},
		{"pgx5://already/converted", "pgx5://already/converted"},
	}
	for _, tt := range tests {
		if got := toMigrateURL(tt.in); got != tt.want {
			t.Errorf("toMigrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name string
		sort storage.Sort
		want string
	}{
		{"price ascending", storage.Sort{Key: storage.SortPrice}, "(price_range -> 'minVariantPrice' ->> 'amount')::numeric ASC"},
		{"price descending", storage.Sort{Key: storage.SortPrice, Reverse: true}, "(price_range -> 'minVariantPrice' ->> 'amount')::numeric DESC"},
		{"created at", storage.Sort{Key: storage.SortCreatedAt}, "created_at ASC"},
		{"relevance falls back to newest", storage.Sort{Key: storage.SortRelevance}, "created_at DESC, id DESC"},
		{"zero sort newest first", storage.Sort{}, "created_at DESC, id DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderClause(tt.sort); got != tt.want {
				t.Errorf("orderClause(%+v) = %q, want %q", tt.sort, got, tt.want)
			}
		})
	}
}

func TestTagNeedles(t *testing.T) {
	f := storage.PropertyFilter{
		Location:     "HSR",
		PropertyType: "PG",
		Amenities:    []string{"WiFi", "Parking"},
	}
	got := tagNeedles(f)
	want := []string{"HSR", "PG", "WiFi", "Parking"}
	if len(got) != len(want) {
		t.Fatalf("tagNeedles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tagNeedles()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := tagNeedles(storage.PropertyFilter{}); len(got) != 0 {
		t.Errorf("tagNeedles(zero) = %v, want empty", got)
	}
}
