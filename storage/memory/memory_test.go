package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nbfhomes/listings/storage"
)

func ptr(f float64) *float64 { return &f }

func newListing(id, title, userID, price string, available bool, tags ...string) *storage.Property {
	return &storage.Property{
		ID:               id,
		Handle:           id + "-handle",
		Title:            title,
		Description:      "desc of " + title,
		UserID:           userID,
		ContactNumber:    "9000000000",
		AvailableForSale: available,
		Tags:             tags,
		CurrencyCode:     "INR",
		PriceRange: storage.PriceRange{
			MinVariantPrice: storage.Money{Amount: price, CurrencyCode: "INR"},
			MaxVariantPrice: storage.Money{Amount: price, CurrencyCode: "INR"},
		},
	}
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(nil)
	ctx := context.Background()

	listings := []*storage.Property{
		newListing("p1", "Cozy PG near metro", "u1", "5000", true, "PG", "Koramangala"),
		newListing("p2", "Spacious 2BHK Flat", "u1", "15000", true, "Flat", "Indiranagar"),
		newListing("p3", "Private Room with WiFi", "u2", "8000", true, "Room", "HSR", "WiFi"),
		newListing("p4", "Old Flat delisted", "u2", "12000", false, "Flat", "HSR"),
	}
	for i, p := range listings {
		p.CreatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("Insert(%s) error = %v", p.ID, err)
		}
	}
	return s
}

func TestStore_List(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	t.Run("available only", func(t *testing.T) {
		got, err := s.List(ctx, storage.PropertyFilter{AvailableOnly: true}, storage.Sort{}, 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("List() returned %d listings, want 3", len(got))
		}
	})

	t.Run("query matches title", func(t *testing.T) {
		got, _ := s.List(ctx, storage.PropertyFilter{Query: "cozy", AvailableOnly: true}, storage.Sort{}, 0)
		if len(got) != 1 || got[0].ID != "p1" {
			t.Errorf("List(query=cozy) = %v, want [p1]", ids(got))
		}
	})

	t.Run("price bounds", func(t *testing.T) {
		got, _ := s.List(ctx, storage.PropertyFilter{
			MinPrice:      ptr(6000),
			MaxPrice:      ptr(10000),
			AvailableOnly: true,
		}, storage.Sort{}, 0)
		if len(got) != 1 || got[0].ID != "p3" {
			t.Errorf("List(price 6000-10000) = %v, want [p3]", ids(got))
		}
	})

	t.Run("location filter uses tags", func(t *testing.T) {
		got, _ := s.List(ctx, storage.PropertyFilter{Location: "koramangala", AvailableOnly: true}, storage.Sort{}, 0)
		if len(got) != 1 || got[0].ID != "p1" {
			t.Errorf("List(location) = %v, want [p1]", ids(got))
		}
	})

	t.Run("amenities all required", func(t *testing.T) {
		got, _ := s.List(ctx, storage.PropertyFilter{Amenities: []string{"WiFi", "HSR"}, AvailableOnly: true}, storage.Sort{}, 0)
		if len(got) != 1 || got[0].ID != "p3" {
			t.Errorf("List(amenities) = %v, want [p3]", ids(got))
		}
	})

	t.Run("sort by price", func(t *testing.T) {
		got, _ := s.List(ctx, storage.PropertyFilter{AvailableOnly: true}, storage.Sort{Key: storage.SortPrice}, 0)
		if len(got) != 3 || got[0].ID != "p1" || got[2].ID != "p2" {
			t.Errorf("List(sort=PRICE) = %v, want [p1 p3 p2]", ids(got))
		}
	})

	t.Run("sort by price reversed", func(t *testing.T) {
		got, _ := s.List(ctx, storage.PropertyFilter{AvailableOnly: true}, storage.Sort{Key: storage.SortPrice, Reverse: true}, 0)
		if len(got) != 3 || got[0].ID != "p2" {
			t.Errorf("List(sort=PRICE reverse) = %v, want p2 first", ids(got))
		}
	})

	t.Run("default sort newest first", func(t *testing.T) {
		got, _ := s.List(ctx, storage.PropertyFilter{AvailableOnly: true}, storage.Sort{}, 0)
		if got[0].ID != "p3" {
			t.Errorf("List() first = %s, want p3 (newest)", got[0].ID)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, _ := s.List(ctx, storage.PropertyFilter{AvailableOnly: true}, storage.Sort{}, 2)
		if len(got) != 2 {
			t.Errorf("List(limit=2) returned %d listings, want 2", len(got))
		}
	})
}

func TestStore_GetByHandle(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	got, err := s.GetByHandle(ctx, "p1-handle")
	if err != nil {
		t.Fatalf("GetByHandle() error = %v", err)
	}
	if got.ID != "p1" {
		t.Errorf("GetByHandle() = %s, want p1", got.ID)
	}

	// Delisted handles behave as absent.
	if _, err := s.GetByHandle(ctx, "p4-handle"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByHandle(delisted) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetByHandle(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByHandle(absent) error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListByUser(t *testing.T) {
	s := seededStore(t)

	got, err := s.ListByUser(context.Background(), "u2")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	// Includes the delisted listing.
	if len(got) != 2 {
		t.Errorf("ListByUser(u2) returned %d listings, want 2", len(got))
	}
}

func TestStore_ListByTitleKeywords(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	got, _ := s.ListByTitleKeywords(ctx, []string{"Flat", "1BHK"})
	// p4 is a Flat but delisted.
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("ListByTitleKeywords(Flat,1BHK) = %v, want [p2]", ids(got))
	}

	all, _ := s.ListByTitleKeywords(ctx, nil)
	if len(all) != 3 {
		t.Errorf("ListByTitleKeywords(nil) returned %d listings, want all 3 available", len(all))
	}
}

func TestStore_UpdateOwnership(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	upd := newListing("ignored", "Renamed PG", "ignored", "6000", true, "PG")

	got, err := s.Update(ctx, "p1", "u1", upd)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Title != "Renamed PG" {
		t.Errorf("Update() title = %q, want Renamed PG", got.Title)
	}
	// Identity fields survive the update.
	if got.ID != "p1" || got.Handle != "p1-handle" || got.UserID != "u1" {
		t.Errorf("Update() changed identity fields: %+v", got)
	}

	// Someone else's listing behaves exactly like a missing one.
	if _, err := s.Update(ctx, "p1", "u2", upd); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update(wrong owner) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Update(ctx, "ghost", "u1", upd); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update(absent) error = %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteOwnership(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	if err := s.Delete(ctx, "p1", "u2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete(wrong owner) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "p1", "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "p1", "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("repeat Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_AdminOperations(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	t.Run("set availability", func(t *testing.T) {
		got, err := s.SetAvailability(ctx, "p4", true)
		if err != nil {
			t.Fatalf("SetAvailability() error = %v", err)
		}
		if !got.AvailableForSale {
			t.Error("SetAvailability(true) did not enable the listing")
		}
		s.SetAvailability(ctx, "p4", false)
	})

	t.Run("admin delete ignores ownership", func(t *testing.T) {
		if err := s.AdminDelete(ctx, "p3"); err != nil {
			t.Fatalf("AdminDelete() error = %v", err)
		}
		if err := s.AdminDelete(ctx, "p3"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("repeat AdminDelete() error = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_AdminList(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	t.Run("status filter", func(t *testing.T) {
		_, total, err := s.AdminList(ctx, storage.AdminFilter{Status: "inactive", Page: storage.Page{Number: 1, Size: 10}})
		if err != nil {
			t.Fatalf("AdminList() error = %v", err)
		}
		if total != 1 {
			t.Errorf("AdminList(inactive) total = %d, want 1", total)
		}
	})

	t.Run("search across fields", func(t *testing.T) {
		got, total, _ := s.AdminList(ctx, storage.AdminFilter{Search: "room", Status: "all", Page: storage.Page{Number: 1, Size: 10}})
		if total != 1 || len(got) != 1 || got[0].ID != "p3" {
			t.Errorf("AdminList(search=room) = %v total %d, want [p3] 1", ids(got), total)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		page1, total, _ := s.AdminList(ctx, storage.AdminFilter{Status: "all", Page: storage.Page{Number: 1, Size: 3}})
		page2, _, _ := s.AdminList(ctx, storage.AdminFilter{Status: "all", Page: storage.Page{Number: 2, Size: 3}})
		if total != 4 || len(page1) != 3 || len(page2) != 1 {
			t.Errorf("pagination: total=%d page1=%d page2=%d, want 4/3/1", total, len(page1), len(page2))
		}
	})
}

func TestStore_Stats(t *testing.T) {
	s := seededStore(t)

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 4 || stats.Active != 3 || stats.Users != 2 {
		t.Errorf("Stats() = %+v, want total 4, active 3, users 2", stats)
	}
}

func TestStore_OwnerStats(t *testing.T) {
	s := seededStore(t)

	got, err := s.OwnerStats(context.Background())
	if err != nil {
		t.Fatalf("OwnerStats() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("OwnerStats() returned %d owners, want 2", len(got))
	}
	// Sorted by user ID.
	if got[0].UserID != "u1" || got[0].TotalProperties != 2 || got[0].ActiveProperties != 2 {
		t.Errorf("OwnerStats()[0] = %+v, want u1 with 2/2", got[0])
	}
	if got[1].UserID != "u2" || got[1].TotalProperties != 2 || got[1].ActiveProperties != 1 {
		t.Errorf("OwnerStats()[1] = %+v, want u2 with 2/1", got[1])
	}
}

func TestStore_Collections(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	s.SetCollection(&storage.Collection{ID: "c1", Handle: "pgs", Title: "PGs", Path: "/search/pgs"})
	s.SetCollection(&storage.Collection{ID: "c2", Handle: "flats", Title: "Flats", Path: "/search/flats"})

	all, err := s.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListCollections() returned %d, want 2", len(all))
	}

	c, err := s.GetCollection(ctx, "pgs")
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if c.Title != "PGs" {
		t.Errorf("GetCollection().Title = %q, want PGs", c.Title)
	}

	if _, err := s.GetCollection(ctx, "villas"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetCollection(absent) error = %v, want ErrNotFound", err)
	}
}

func TestStore_UserStatusAndAdmins(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	s.SetUserStatus("u1", storage.UserStatusActive)
	s.SetUserStatus("u2", storage.UserStatusSuspended)
	s.SetAdmin("u1", true)

	if status, err := s.GetUserStatus(ctx, "u2"); err != nil || status != storage.UserStatusSuspended {
		t.Errorf("GetUserStatus(u2) = %q, %v, want suspended, nil", status, err)
	}
	if _, err := s.GetUserStatus(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUserStatus(absent) error = %v, want ErrNotFound", err)
	}

	if ok, _ := s.IsAdmin(ctx, "u1"); !ok {
		t.Error("IsAdmin(u1) = false, want true")
	}
	if ok, _ := s.IsAdmin(ctx, "u2"); ok {
		t.Error("IsAdmin(u2) = true, want false")
	}

	s.SetAdmin("u1", false)
	if ok, _ := s.IsAdmin(ctx, "u1"); ok {
		t.Error("IsAdmin after removal = true, want false")
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	got, _ := s.GetByHandle(ctx, "p1-handle")
	got.Title = "mutated"
	got.Tags[0] = "mutated"

	again, _ := s.GetByHandle(ctx, "p1-handle")
	if again.Title == "mutated" || again.Tags[0] == "mutated" {
		t.Error("store returned aliased listing state")
	}
}

func ids(ps []*storage.Property) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
