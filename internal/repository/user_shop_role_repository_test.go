package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAssign_DuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserShopRoleRepo(db)

	mock.ExpectExec(`INSERT INTO user_shop_roles`).
		WithArgs(uint64(3), uint64(21), ShopRoleVendor).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '3-21-vendor' for key 'ux_user_shop_roles'"))

	_, err := repo.Assign(context.Background(), 3, 21, ShopRoleVendor)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestRemove_AbsentRowIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserShopRoleRepo(db)

	mock.ExpectExec(`DELETE FROM user_shop_roles`).
		WithArgs(uint64(3), uint64(21), ShopRoleVendor).
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Remove(context.Background(), 3, 21, ShopRoleVendor)
	if err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if removed {
		t.Fatal("want removed=false")
	}
}

func TestIsShopOwner_VendorRowDoesNotQualify(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserShopRoleRepo(db)

	// The owner predicate filters on the exact role, so a vendor-only user
	// yields no row here.
	mock.ExpectQuery(`SELECT 1 FROM user_shop_roles`).
		WithArgs(uint64(3), uint64(21), ShopRoleOwner).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := repo.IsShopOwner(context.Background(), 3, 21)
	if err != nil {
		t.Fatalf("IsShopOwner error: %v", err)
	}
	if ok {
		t.Fatal("vendor must not pass the owner predicate")
	}
}

func TestHasShopAccess_AnyRoleQualifies(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserShopRoleRepo(db)

	mock.ExpectQuery(`SELECT 1 FROM user_shop_roles`).
		WithArgs(uint64(3), uint64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := repo.HasShopAccess(context.Background(), 3, 21)
	if err != nil {
		t.Fatalf("HasShopAccess error: %v", err)
	}
	if !ok {
		t.Fatal("want access")
	}
}
