package server

import (
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	Token string      `json:"token"`
	User  *authorView `json:"user"`
	Next  string      `json:"next"`
}

// LoginForm handles GET /auth/login/
// @Summary Login form
// @Description Where login-required pages send anonymous users. next is the page to return to.
// @Tags auth
// @Produce json
// @Param next query string false "Page to return to after login"
// @Success 200 {object} object{fields=[]string,next=string}
// @Router /auth/login/ [get]
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"fields": []string{"username", "password"},
		"next":   safeNext(c.Query("next")),
	})
}

// Login handles POST /auth/login/
// @Summary Login
// @Description Issues a JWT in the body and in the yatube_token cookie.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{username=string,password=string,next=string} true "Credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
		Next     string `json:"next" form:"next"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Next == "" {
		req.Next = c.Query("next")
	}

	user, err := s.users.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthorized {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return s.respondError(c, err)
	}
	return s.signIn(c, fiber.StatusOK, user, req.Next)
}

// Signup handles POST /auth/signup/
// @Summary User signup
// @Description Registers an account and signs it in.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{username=string,password=string,email=string,first_name=string,last_name=string} true "Signup request"
// @Success 201 {object} authResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup/ [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username  string `json:"username" form:"username"`
		Password  string `json:"password" form:"password"`
		Email     string `json:"email" form:"email"`
		FirstName string `json:"first_name" form:"first_name"`
		LastName  string `json:"last_name" form:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.users.Signup(c.UserContext(), service.SignupInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "user signed up", "user_id", user.ID)
	return s.signIn(c, fiber.StatusCreated, user, "/")
}

// Logout handles POST /auth/logout/
// @Summary Logout
// @Description Revokes the current token and clears the cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /auth/logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals("claims").(middleware.Claims); ok {
		if err := middleware.RevokeToken(c.UserContext(), s.redis, claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token", "error", err)
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"message": "Signed out"})
}

func (s *Server) signIn(c *fiber.Ctx, status int, user *models.User, next string) error {
	token, claims, err := middleware.IssueToken(s.config.JWTSecret, user.ID)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.Expiry,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(status).JSON(authResponse{
		Token: token,
		User:  newAuthorView(user),
		Next:  safeNext(next),
	})
}
