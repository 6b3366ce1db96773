package memory_test

import (
	"context"
	"fmt"
	"rollcore/internal/infra/persistence/memory"
	"rollcore/pkg/domain"
	"strings"
	"testing"
)

func must[T any](t *testing.T, value T, err error) T {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return value
}

func TestMemoryStoreCRUDAndQueries(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var catalogID, rollID string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		catalog := must(t, tx.CreateCatalog(domain.Catalog{Code: "LN-01", Name: "Linen Plain", Material: "linen"}))
		catalogID = catalog.ID
		if catalog.CreatedAt.IsZero() || catalog.UpdatedAt.IsZero() {
			t.Fatalf("expected timestamps on create")
		}

		found, ok := tx.FindCatalog(catalogID)
		if !ok || found.Code != "LN-01" {
			t.Fatalf("expected catalog lookup, got %+v ok=%v", found, ok)
		}
		if _, ok := tx.FindCatalog("missing-catalog"); ok {
			t.Fatalf("unexpected catalog lookup success")
		}

		roll := must(t, tx.CreateRoll(domain.Roll{Barcode: "RL-0001", LengthMeters: 42.5, CatalogID: catalogID}))
		rollID = roll.ID
		if roll.Status != domain.StatusInStock {
			t.Fatalf("expected status default to in_stock, got %s", roll.Status)
		}
		return nil
	}); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	if roll, ok := store.GetRoll(rollID); !ok || roll.Barcode != "RL-0001" {
		t.Fatalf("expected committed roll, got ok=%v", ok)
	}
	if _, ok := store.GetRoll("missing"); ok {
		t.Fatalf("unexpected roll hit")
	}
	if catalog, ok := store.GetCatalog(catalogID); !ok || catalog.Material != "linen" {
		t.Fatalf("expected committed catalog, got ok=%v", ok)
	}
	if len(store.ListRolls()) != 1 || len(store.ListCatalogs()) != 1 {
		t.Fatalf("unexpected list sizes")
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated := must(t, tx.UpdateRoll(rollID, func(r *domain.Roll) error {
			r.Status = domain.StatusReserved
			r.Location = "B-02"
			return nil
		}))
		if updated.Status != domain.StatusReserved || updated.Location != "B-02" {
			t.Fatalf("update not applied: %+v", updated)
		}
		if updated.CreatedAt.IsZero() {
			t.Fatalf("expected CreatedAt preserved across update")
		}

		renamed := must(t, tx.UpdateCatalog(catalogID, func(c *domain.Catalog) error {
			c.Name = "Linen Heavy"
			return nil
		}))
		if renamed.Name != "Linen Heavy" {
			t.Fatalf("catalog update not applied: %+v", renamed)
		}
		return nil
	}); err != nil {
		t.Fatalf("update transaction: %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeleteCatalog(catalogID); err == nil {
			t.Fatalf("expected referenced catalog delete to fail")
		} else if !strings.Contains(err.Error(), "still referenced") {
			t.Fatalf("unexpected delete error: %v", err)
		}
		if err := tx.DeleteRoll(rollID); err != nil {
			return err
		}
		return tx.DeleteCatalog(catalogID)
	}); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}

	if len(store.ListRolls()) != 0 || len(store.ListCatalogs()) != 0 {
		t.Fatalf("expected empty store after deletes")
	}
}

func TestMemoryStoreCRUDErrors(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.UpdateRoll("missing", func(*domain.Roll) error { return nil }); err == nil {
			t.Fatalf("expected missing roll error")
		}
		if err := tx.DeleteRoll("missing"); err == nil {
			t.Fatalf("expected missing roll delete error")
		}
		if _, err := tx.UpdateCatalog("missing", func(*domain.Catalog) error { return nil }); err == nil {
			t.Fatalf("expected missing catalog error")
		}
		if err := tx.DeleteCatalog("missing"); err == nil {
			t.Fatalf("expected missing catalog delete error")
		}

		roll := must(t, tx.CreateRoll(domain.Roll{Barcode: "RL-0001", LengthMeters: 5}))
		if _, err := tx.CreateRoll(domain.Roll{Base: domain.Base{ID: roll.ID}, Barcode: "RL-0002", LengthMeters: 5}); err == nil {
			t.Fatalf("expected duplicate roll id error")
		}
		if _, err := tx.UpdateRoll(roll.ID, func(*domain.Roll) error { return fmt.Errorf("boom") }); err == nil {
			t.Fatalf("expected mutator error")
		}

		catalog := must(t, tx.CreateCatalog(domain.Catalog{Code: "WL"}))
		if _, err := tx.CreateCatalog(domain.Catalog{Base: domain.Base{ID: catalog.ID}}); err == nil {
			t.Fatalf("expected duplicate catalog id error")
		}
		if _, err := tx.UpdateCatalog(catalog.ID, func(*domain.Catalog) error { return fmt.Errorf("boom") }); err == nil {
			t.Fatalf("expected catalog mutator error")
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestMemoryStoreMutatorCannotForgeIdentity(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var rollID string
	must(t, store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		roll := must(t, tx.CreateRoll(domain.Roll{Barcode: "RL-0001", LengthMeters: 5}))
		rollID = roll.ID
		return nil
	}))

	must(t, store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated := must(t, tx.UpdateRoll(rollID, func(r *domain.Roll) error {
			r.ID = "forged"
			return nil
		}))
		if updated.ID != rollID {
			t.Fatalf("mutator must not change identity, got %q", updated.ID)
		}
		return nil
	}))

	if _, ok := store.GetRoll("forged"); ok {
		t.Fatalf("forged identity must not exist")
	}
	if _, ok := store.GetRoll(rollID); !ok {
		t.Fatalf("original roll lost")
	}
}
