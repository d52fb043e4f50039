package controller

import (
	"errors"

	"crmportal/repository"
	"crmportal/session"
	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `form:"username"`
	Password string `form:"password" sanitize:"-"`
}

type AuthController struct {
	Users  *repository.UserRepository
	Logger *logrus.Entry
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{
		Users:  repository.NewUserRepository(db),
		Logger: logrus.WithField("component", "auth"),
	}
}

// Root sends signed-in users to the dashboard and everyone else to login.
func (ac *AuthController) Root(c *fiber.Ctx) error {
	if _, ok := session.Identify(session.From(c)); ok {
		return c.Redirect("/dashboard", fiber.StatusSeeOther)
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

func (ac *AuthController) LoginPage(c *fiber.Ctx) error {
	return ac.loginForm(c, "", "")
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	utils.SanitizeFields(&req)

	if req.Username == "" || req.Password == "" {
		c.Status(fiber.StatusUnprocessableEntity)
		return ac.loginForm(c, req.Username, "Please enter both username and password.")
	}

	user, err := ac.Users.Authenticate(c.UserContext(), req.Username, req.Password)
	if errors.Is(err, repository.ErrInvalidCredentials) {
		utils.LogEvent("login_failed", map[string]interface{}{
			"username": req.Username,
			"ip":       c.IP(),
		})
		c.Status(fiber.StatusUnauthorized)
		return ac.loginForm(c, req.Username, "Invalid username or password.")
	}
	if err != nil {
		return err
	}

	if err := session.SignIn(session.From(c), user); err != nil {
		return err
	}

	ac.Logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"ip":      c.IP(),
	}).Info("User signed in")

	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// TooManyAttempts answers a login POST once the per-IP limit is reached.
func (ac *AuthController) TooManyAttempts(c *fiber.Ctx) error {
	return ac.loginForm(c, c.FormValue("username"), "Too many login attempts. Please try again later.")
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if ident, ok := session.Identify(session.From(c)); ok {
		ac.Logger.WithField("user_id", ident.ID).Info("User signed out")
	}
	if err := session.SignOut(session.From(c)); err != nil {
		return err
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

func (ac *AuthController) loginForm(c *fiber.Ctx, username, message string) error {
	return renderAuth(c, "login", "Login", fiber.Map{
		"Username": username,
		"Error":    message,
	})
}
