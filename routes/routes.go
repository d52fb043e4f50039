package routes

import (
	"time"

	controller "crmportal/controllers"
	"crmportal/middleware"
	"crmportal/models"
	"crmportal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options carries what the routes need besides the database.
type Options struct {
	Sessions session.Store
	// Storage backs the login limiter. nil keeps counters in memory.
	Storage        fiber.Storage
	CSRFSecret     []byte
	CSRFLifetime   time.Duration
	PerPage        int
	LoginRateLimit int
}

// crud is the handler set of one entity's pages.
type crud interface {
	List(c *fiber.Ctx) error
	View(c *fiber.Ctx) error
	New(c *fiber.Ctx) error
	Create(c *fiber.Ctx) error
	Edit(c *fiber.Ctx) error
	Update(c *fiber.Ctx) error
	Delete(c *fiber.Ctx) error
}

// resource mounts the list, view, form and delete pages of an entity.
// The delete link is registered before /:id so it is not taken for an id.
func resource(r fiber.Router, verify fiber.Handler, h crud) {
	r.Get("/", h.List)
	r.Get("/new", h.New)
	r.Post("/", h.Create)
	r.Get("/delete", verify, h.Delete)
	r.Get("/:id", h.View)
	r.Get("/:id/edit", h.Edit)
	r.Post("/:id", h.Update)
}

func SetupRoutes(app *fiber.App, db *gorm.DB, opts Options) {
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(middleware.Session(opts.Sessions))
	app.Use(middleware.CSRF(opts.CSRFSecret, opts.CSRFLifetime))

	authController := controller.NewAuthController(db)
	dashboardController := controller.NewDashboardController(db)
	contactController := controller.NewContactController(db, opts.PerPage)
	companyController := controller.NewCompanyController(db, opts.PerPage)
	dealController := controller.NewDealController(db, opts.PerPage)
	activityController := controller.NewActivityController(db, opts.PerPage)
	userController := controller.NewUserController(db, opts.PerPage)

	// Form tokens are checked after the gate, so an expired session on a
	// protected page ends at the login page.
	csrf := middleware.VerifyCSRF(opts.CSRFSecret)
	verify := middleware.VerifyCSRFQuery(opts.CSRFSecret)

	// Public pages
	app.Get("/", authController.Root)
	app.Get("/login", middleware.GuestOnly(), authController.LoginPage)
	app.Post("/login",
		middleware.GuestOnly(),
		csrf,
		middleware.LoginRateLimiter(opts.LoginRateLimit, opts.Storage, authController.TooManyAttempts),
		authController.Login,
	)
	app.Post("/logout", csrf, authController.Logout)

	app.Get("/dashboard", middleware.Protected(), dashboardController.Index)
	resource(app.Group("/contacts", middleware.Protected(), csrf), verify, contactController)
	resource(app.Group("/companies", middleware.Protected(), csrf), verify, companyController)
	resource(app.Group("/deals", middleware.Protected(), csrf), verify, dealController)

	activities := app.Group("/activities", middleware.Protected(), csrf)
	activities.Post("/:id/complete", activityController.Complete)
	resource(activities, verify, activityController)

	// User management is for admins only
	users := app.Group("/users", middleware.Protected(), middleware.RequireRole(models.RoleAdmin), csrf)
	resource(users, verify, userController)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "The requested page was not found.")
	})

	logrus.Info("Routes initialized successfully")
}
