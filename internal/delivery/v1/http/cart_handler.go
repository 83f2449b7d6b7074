package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/DRSN-tech/instrument-shop/internal/usecase"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
	validate    *validator.Validate
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{
		cartUsecase: cartUsecase,
		logger:      logger,
		validate:    validator.New(),
	}
}

// getCart отдаёт корзину текущей сессии.
func (c *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := c.cartUsecase.Get(r.Context(), SessionIDFromCtx(r.Context()))
	if err != nil {
		c.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartDTO(cart))
}

// addToCart добавляет товар {id}. Необязательные параметры: quantity, returnUrl.
// При returnUrl ответ - 303 на этот адрес.
func (c *CartHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	productID, err := parseProductID(r)
	if err != nil {
		c.writeError(w, err)
		return
	}

	quantity, err := parseOptionalInt(r, "quantity", e.ErrInvalidQuantity)
	if err != nil {
		c.writeError(w, err)
		return
	}

	req := addToCartRequest{
		ProductID: productID,
		ReturnURL: strings.TrimSpace(r.FormValue("returnUrl")),
	}
	if quantity != nil {
		req.Quantity = *quantity
	}

	if err := c.validateRequest(&req); err != nil {
		c.writeError(w, err)
		return
	}
	if req.ReturnURL != "" && !isLocalURL(req.ReturnURL) {
		c.writeError(w, e.ErrInvalidReturnURL)
		return
	}

	cart, err := c.cartUsecase.Add(r.Context(), usecase.NewAddToCartReq(SessionIDFromCtx(r.Context()), req.ProductID, req.Quantity))
	if err != nil {
		c.writeError(w, err)
		return
	}

	if req.ReturnURL != "" {
		http.Redirect(w, r, req.ReturnURL, http.StatusSeeOther)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartDTO(cart))
}

// removeFromCart удаляет строку товара {id}; отсутствие товара в корзине не ошибка.
// Некорректный id такого товара заведомо не найдёт, поэтому просто отдаётся текущая корзина.
func (c *CartHandler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	productID, err := parseProductID(r)
	if err != nil {
		cart, err := c.cartUsecase.Get(r.Context(), SessionIDFromCtx(r.Context()))
		if err != nil {
			c.writeError(w, err)
			return
		}
		WriteSuccess(w, http.StatusOK, toCartDTO(cart))
		return
	}

	cart, err := c.cartUsecase.Remove(r.Context(), usecase.NewRemoveFromCartReq(SessionIDFromCtx(r.Context()), productID))
	if err != nil {
		c.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartDTO(cart))
}

func (c *CartHandler) decreaseCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := parseProductID(r)
	if err != nil {
		c.writeError(w, err)
		return
	}

	quantity, err := parseOptionalInt(r, "quantity", e.ErrInvalidQuantity)
	if err != nil {
		c.writeError(w, err)
		return
	}

	req := decreaseCartItemRequest{ProductID: productID, Quantity: 1}
	if quantity != nil {
		req.Quantity = *quantity
	}

	if err := c.validateRequest(&req); err != nil {
		c.writeError(w, err)
		return
	}

	cart, err := c.cartUsecase.Decrease(r.Context(), usecase.NewDecreaseCartItemReq(SessionIDFromCtx(r.Context()), req.ProductID, req.Quantity))
	if err != nil {
		c.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartDTO(cart))
}

func (c *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := c.cartUsecase.Clear(r.Context(), SessionIDFromCtx(r.Context()))
	if err != nil {
		c.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartDTO(cart))
}

// validateRequest переводит ошибки валидатора в ошибки API.
func (c *CartHandler) validateRequest(req any) error {
	err := c.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Field() {
			case "Quantity":
				return e.Wrap(fe.Error(), e.ErrInvalidQuantity)
			case "ProductID":
				return e.Wrap(fe.Error(), e.ErrInvalidProductID)
			case "ReturnURL":
				return e.Wrap(fe.Error(), e.ErrInvalidReturnURL)
			}
		}
	}

	return e.WrapKind(e.ErrStatusBadRequest, err)
}

func (c *CartHandler) writeError(w http.ResponseWriter, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		c.logger.Errorf(err, "cart request failed")
	} else {
		c.logger.Warnf("%d %s", code, err.Error())
	}

	WriteError(w, err)
}
