package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	q "github.com/liveshop-app/liveshop-server/internal/queue"
	"github.com/liveshop-app/liveshop-server/internal/repository"
	queue_publisher "github.com/liveshop-app/liveshop-server/internal/service"
)

// AddVendor handles POST /v1/shops/:id/vendors. Owner only. The unique
// role constraint makes a repeated assignment a 409 even under concurrent
// identical requests.
func (h *ShopHandler) AddVendor(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	shopID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := requireShopOwner(ctx, h.ShopRoles, uid, shopID); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only shop owners can perform this action"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	exists, err := h.Users.ExistsByID(ctx, body.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	id, err := h.ShopRoles.Assign(ctx, body.UserID, shopID, repository.ShopRoleVendor)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user is already a vendor for this shop"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}

	// Best effort; vendor assignment succeeds even if the broker is down.
	_ = queue_publisher.PublishVendorAdded(ctx, q.VendorAddedEvent{
		ShopID: shopID, UserID: body.UserID, AddedBy: uid,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"id":      id,
		"shop_id": shopID,
		"user_id": body.UserID,
		"role":    repository.ShopRoleVendor,
	})
}

// RemoveVendor handles DELETE /v1/shops/:id/vendors/:userId. Owner only.
// Removing a user who is not a vendor reports nothing changed.
func (h *ShopHandler) RemoveVendor(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	shopID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := requireShopOwner(ctx, h.ShopRoles, uid, shopID); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only shop owners can perform this action"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	removed, err := h.ShopRoles.Remove(ctx, userID, shopID, repository.ShopRoleVendor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"changed": removed})
}

// ListVendors handles GET /v1/shops/:id/vendors. Any shop role may read
// the roster.
func (h *ShopHandler) ListVendors(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	shopID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := requireShopAccess(ctx, h.ShopRoles, uid, shopID); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have access to this shop"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	vendors, err := h.ShopRoles.ListVendors(ctx, shopID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	type vendorResp struct {
		UserID  uint64 `json:"user_id"`
		Email   string `json:"email"`
		ShopID  uint64 `json:"shop_id"`
		AddedAt string `json:"added_at"`
	}
	out := make([]vendorResp, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, vendorResp{
			UserID: v.UserID, Email: v.Email, ShopID: v.ShopID,
			AddedAt: v.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
