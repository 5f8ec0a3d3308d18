package server

import (
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// StaffRequired rejects signed-in users without the staff flag.
// Must be placed after LoginRequired.
func (s *Server) StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, _ := middleware.UserID(c)
		user, err := s.users.GetByID(c.UserContext(), uid)
		if err != nil {
			return s.respondError(c, err)
		}
		if !user.IsStaff {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Staff access required"))
		}
		return c.Next()
	}
}

// AdminClearCache handles POST /admin/cache/clear/
// @Summary Clear the listing cache
// @Description Drops every cached global feed page. Staff only.
// @Tags admin
// @Produce json
// @Success 200 {object} object{cleared=bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/cache/clear/ [post]
func (s *Server) AdminClearCache(c *fiber.Ctx) error {
	s.listings.Clear(c.UserContext())
	middleware.Logger.InfoContext(c.UserContext(), "listing cache cleared")
	return c.JSON(fiber.Map{"cleared": true})
}
