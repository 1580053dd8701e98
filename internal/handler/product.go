package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/repository"
)

// ProductHandler bundles the repositories behind the product endpoints.
// Products are nested under shops for create/list and addressed directly
// for get/update/delete.
type ProductHandler struct {
	Products  *repository.ProductRepo
	ShopRoles *repository.UserShopRoleRepo
	Shops     *repository.ShopRepo
}

func NewProductHandler(products *repository.ProductRepo, shopRoles *repository.UserShopRoleRepo, shops *repository.ShopRepo) *ProductHandler {
	if products == nil || shopRoles == nil || shops == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Products: products, ShopRoles: shopRoles, Shops: shops}
}

var priceRe = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

type productResp struct {
	ID          uint64    `json:"id"`
	ShopID      uint64    `json:"shop_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       *string   `json:"price"`
	ImageURL    *string   `json:"image_url"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResp(p repository.Product) productResp {
	return productResp{
		ID: p.ID, ShopID: p.ShopID, Name: p.Name, Description: p.Description,
		Price: p.Price, ImageURL: p.ImageURL, IsActive: p.IsActive,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

// Create handles POST /v1/products and POST /v1/shops/:id/products. The
// shop comes from the path when nested, from the body otherwise. Owners
// and vendors may add products to the shop.
func (h *ProductHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ShopID      uint64  `json:"shop_id"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Price       *string `json:"price"`
		ImageURL    *string `json:"image_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	shopID := body.ShopID
	if c.Param("id") != "" {
		shopID, err = paramID(c, "id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
	}
	if shopID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shop_id required"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || len(name) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-255 characters"})
	}
	if body.Price != nil && !priceRe.MatchString(*body.Price) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be a decimal like 19.99"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	exists, err := h.Shops.ExistsByID(ctx, shopID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
	}
	if err := requireShopAccess(ctx, h.ShopRoles, uid, shopID); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have access to this shop"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	id, err := h.Products.Create(ctx, shopID, name, body.Description, body.Price, body.ImageURL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create product"})
	}
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load product"})
	}
	return c.JSON(http.StatusCreated, toProductResp(p))
}

// ListByShop handles GET /v1/shops/:id/products. Reading the catalog
// requires access to the shop; entitled callers may narrow the listing
// with ?active=true.
func (h *ProductHandler) ListByShop(c echo.Context) error {
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

	exists, err := h.Shops.ExistsByID(ctx, shopID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
	}
	if err := requireShopAccess(ctx, h.ShopRoles, uid, shopID); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have access to this shop"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	activeOnly := c.QueryParam("active") == "true"
	items, err := h.Products.ListByShop(ctx, shopID, activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]productResp, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /v1/products/:id. The owning shop comes from the stored
// row; callers without access to it are refused. Buyers see products
// through channel showcases, not here.
func (h *ProductHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
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
	return c.JSON(http.StatusOK, toProductResp(p))
}

// Update handles PATCH /v1/products/:id. The product row is loaded first
// so the shop id is known before the entitlement check runs.
func (h *ProductHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Price       *string `json:"price"`
		ImageURL    *string `json:"image_url"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name != nil {
		n := strings.TrimSpace(*body.Name)
		if n == "" || len(n) > 255 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-255 characters"})
		}
		body.Name = &n
	}
	if body.Price != nil && !priceRe.MatchString(*body.Price) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be a decimal like 19.99"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
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

	if err := h.Products.Update(ctx, id, body.Name, body.Description, body.Price, body.ImageURL, body.IsActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	p, err = h.Products.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load product"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// Delete handles DELETE /v1/products/:id. Owner only; vendors can
// deactivate via PATCH but not remove.
func (h *ProductHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := requireShopOwner(ctx, h.ShopRoles, uid, p.ShopID); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only shop owners can perform this action"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	deleted, err := h.Products.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
