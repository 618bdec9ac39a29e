package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"bakery/internal/errors"
	"bakery/internal/service"
)

// ContactHandler handles contact form endpoints.
type ContactHandler struct {
	contacts service.ContactService
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contacts service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// ContactRequest is a contact form submission.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=200"`
	Phone   string `json:"phone" validate:"max=20"`
	Message string `json:"message" validate:"required,max=2000"`
}

// MarkReadRequest sets the read flag. Omitting Read marks the message as read.
type MarkReadRequest struct {
	Read *bool `json:"read"`
}

// Create godoc
// @Summary Send a contact message
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body ContactRequest true "Message"
// @Success 201 {object} model.Contact
// @Failure 400 {object} errors.ErrorResponse
// @Router /contacts [post]
func (h *ContactHandler) Create(c echo.Context) error {
	var req ContactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	contact, err := h.contacts.Create(c.Request().Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, contact)
}

// List godoc
// @Summary List contact messages, newest first
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param read query bool false "Filter by read state"
// @Success 200 {array} model.Contact
// @Failure 400 {object} errors.ErrorResponse
// @Router /contacts [get]
func (h *ContactHandler) List(c echo.Context) error {
	var read *bool
	if raw := c.QueryParam("read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return respondError(c, errors.Invalid("read", "must be true or false"))
		}
		read = &v
	}
	contacts, err := h.contacts.List(c.Request().Context(), read)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, contacts)
}

// Get godoc
// @Summary Get contact message
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} model.Contact
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id} [get]
func (h *ContactHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	contact, err := h.contacts.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// MarkRead godoc
// @Summary Mark a contact message read or unread
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Param request body MarkReadRequest false "Read flag"
// @Success 200 {object} model.Contact
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id}/read [put]
func (h *ContactHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req MarkReadRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}
	contact, err := h.contacts.MarkRead(c.Request().Context(), id, read)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete contact message
// @Tags contacts
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.contacts.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnreadCount godoc
// @Summary Number of unread contact messages
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int64
// @Router /contacts/stats/unread [get]
func (h *ContactHandler) UnreadCount(c echo.Context) error {
	count, err := h.contacts.CountUnread(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread": count})
}
