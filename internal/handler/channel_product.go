package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/repository"
)

// ChannelProductHandler serves the product showcase inside a channel.
// Association is gated on the product's owning shop, never on a
// caller-supplied shop id.
type ChannelProductHandler struct {
	Assocs    *repository.ChannelProductRepo
	Channels  *repository.ChannelRepo
	Products  *repository.ProductRepo
	ShopRoles *repository.UserShopRoleRepo
}

func NewChannelProductHandler(assocs *repository.ChannelProductRepo, channels *repository.ChannelRepo, products *repository.ProductRepo, shopRoles *repository.UserShopRoleRepo) *ChannelProductHandler {
	if assocs == nil || channels == nil || products == nil || shopRoles == nil {
		panic("nil repository passed to NewChannelProductHandler")
	}
	return &ChannelProductHandler{Assocs: assocs, Channels: channels, Products: products, ShopRoles: shopRoles}
}

// Associate handles POST /v1/channels/:id/products. The caller must have
// access to the product's shop, the channel must be live and the product
// active. A repeated association is a 409 via the unique constraint.
func (h *ChannelProductHandler) Associate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	channelID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		ProductID uint64 `json:"product_id"`
	}
	if err := c.Bind(&body); err != nil || body.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ch, err := h.Channels.GetByID(ctx, channelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if ch.Status != repository.ChannelStatusActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "channel has ended"})
	}
	p, err := h.Products.GetByID(ctx, body.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := requireShopAccess(ctx, h.ShopRoles, uid, p.ShopID); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have access to this shop"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !p.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "product is not active"})
	}

	id, err := h.Assocs.Associate(ctx, channelID, body.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "product already showcased in this channel"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "associate failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":         id,
		"channel_id": channelID,
		"product_id": body.ProductID,
	})
}

// Remove handles DELETE /v1/channels/:id/products/:productId. Same gate as
// Associate; removing an absent association reports nothing changed.
func (h *ChannelProductHandler) Remove(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	channelID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	productID, err := paramID(c, "productId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := requireShopAccess(ctx, h.ShopRoles, uid, p.ShopID); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have access to this shop"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	removed, err := h.Assocs.Remove(ctx, channelID, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"changed": removed})
}

// ListByChannel handles GET /v1/channels/:id/products: the active products
// showcased in a channel, with the selling shop's name.
func (h *ChannelProductHandler) ListByChannel(c echo.Context) error {
	channelID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Channels.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items, err := h.Assocs.ListByChannel(ctx, channelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	type showcasedResp struct {
		productResp
		ShopName string `json:"shop_name"`
	}
	out := make([]showcasedResp, 0, len(items))
	for _, it := range items {
		out = append(out, showcasedResp{productResp: toProductResp(it.Product), ShopName: it.ShopName})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
