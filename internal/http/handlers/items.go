package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/modelhub/internal/domain/item"
	"github.com/geocoder89/modelhub/internal/schema"
	"github.com/gin-gonic/gin"
)

// ItemAccessor is the generic collection layer the handlers drive.
type ItemAccessor interface {
	Create(ctx context.Context, model string, attrs item.Attributes) (item.Item, error)
	List(ctx context.Context, model string) ([]item.Item, error)
	Get(ctx context.Context, model, id string) (item.Item, error)
	Update(ctx context.Context, model, id string, attrs item.Attributes) (item.Item, error)
	Delete(ctx context.Context, model, id string) error
}

// ItemsHandler serves /:model and /:model/:id for every registered model.
type ItemsHandler struct {
	items ItemAccessor
	log   *slog.Logger
}

func NewItemsHandler(items ItemAccessor, log *slog.Logger) *ItemsHandler {
	return &ItemsHandler{items: items, log: log}
}

func (h *ItemsHandler) Create(ctx *gin.Context) {
	var attrs item.Attributes
	if !BindJSON(ctx, &attrs) {
		return
	}

	it, err := h.items.Create(ctx.Request.Context(), ctx.Param("model"), attrs)
	if err != nil {
		h.respondItemError(ctx, err, "Could not create item")
		return
	}

	ctx.JSON(http.StatusCreated, it)
}

func (h *ItemsHandler) List(ctx *gin.Context) {
	items, err := h.items.List(ctx.Request.Context(), ctx.Param("model"))
	if err != nil {
		h.respondItemError(ctx, err, "Could not list items")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *ItemsHandler) Get(ctx *gin.Context) {
	it, err := h.items.Get(ctx.Request.Context(), ctx.Param("model"), ctx.Param("id"))
	if err != nil {
		h.respondItemError(ctx, err, "Could not fetch item")
		return
	}

	ctx.JSON(http.StatusOK, it)
}

func (h *ItemsHandler) Update(ctx *gin.Context) {
	var attrs item.Attributes
	if !BindJSON(ctx, &attrs) {
		return
	}

	it, err := h.items.Update(ctx.Request.Context(), ctx.Param("model"), ctx.Param("id"), attrs)
	if err != nil {
		h.respondItemError(ctx, err, "Could not update item")
		return
	}

	ctx.JSON(http.StatusOK, it)
}

// Delete answers 200 with an empty object whether or not the item existed.
func (h *ItemsHandler) Delete(ctx *gin.Context) {
	err := h.items.Delete(ctx.Request.Context(), ctx.Param("model"), ctx.Param("id"))
	if err != nil {
		h.respondItemError(ctx, err, "Could not delete item")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{})
}

func (h *ItemsHandler) respondItemError(ctx *gin.Context, err error, internalMsg string) {
	var validationErr *schema.ValidationError

	switch {
	case errors.Is(err, item.ErrInvalidModel):
		RespondNotFound(ctx, "Unknown model")
	case errors.Is(err, item.ErrNotFound):
		RespondNotFound(ctx, "Item not found")
	case errors.As(err, &validationErr):
		RespondBadRequest(ctx, "Invalid "+validationErr.Model+" payload", gin.H{"fields": validationErr.Fields})
	default:
		h.log.ErrorContext(ctx.Request.Context(), "item operation failed",
			"model", ctx.Param("model"),
			"method", ctx.Request.Method,
			"err", err,
		)
		RespondInternal(ctx, internalMsg)
	}
}
