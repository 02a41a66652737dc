package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"nosweat-backend/internal/dto"
	"nosweat-backend/internal/service"
)

type InquiryHandler struct {
	inquiryService service.InquiryService
}

func NewInquiryHandler(inquiryService service.InquiryService) *InquiryHandler {
	return &InquiryHandler{
		inquiryService: inquiryService,
	}
}

func (h *InquiryHandler) SubmitInquiry(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.InquiryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.inquiryService.SubmitInquiry(ctx, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Inquiry sent successfully"})
}
