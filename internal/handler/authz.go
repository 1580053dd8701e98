package handler

// Shop-scoped authorization guards. Both distinguish "no caller identity"
// (401, raised earlier by the JWT middleware or getUserID) from
// "authenticated but no user_shop_roles row" (403); handlers must never
// collapse the two. Mutating shop procedures run the owner guard, reading
// procedures the access guard.

import (
	"context"
	"errors"

	"github.com/liveshop-app/liveshop-server/internal/repository"
)

// errNotEntitled means the caller is authenticated but holds no qualifying
// role row. Handlers translate it into HTTP 403.
var errNotEntitled = errors.New("not entitled")

// requireShopOwner passes only for callers with a 'shop-owner' row.
func requireShopOwner(ctx context.Context, roles *repository.UserShopRoleRepo, userID, shopID uint64) error {
	ok, err := roles.IsShopOwner(ctx, userID, shopID)
	if err != nil {
		return err
	}
	if !ok {
		return errNotEntitled
	}
	return nil
}

// requireShopAccess passes for owners and vendors alike.
func requireShopAccess(ctx context.Context, roles *repository.UserShopRoleRepo, userID, shopID uint64) error {
	ok, err := roles.HasShopAccess(ctx, userID, shopID)
	if err != nil {
		return err
	}
	if !ok {
		return errNotEntitled
	}
	return nil
}
