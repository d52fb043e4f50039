package controller

import (
	"errors"
	"fmt"

	"crmportal/models"
	"crmportal/repository"
	"crmportal/session"
	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserForm struct {
	Username        string `form:"username" validate:"required,min=3,max=50,alphanum"`
	Email           string `form:"email" validate:"required,max=100,mailformat"`
	FirstName       string `form:"first_name" validate:"max=50"`
	LastName        string `form:"last_name" validate:"max=50"`
	Role            string `form:"role" validate:"required,oneof=admin manager sales"`
	Status          string `form:"status" validate:"required,oneof=active inactive"`
	Password        string `form:"password" sanitize:"-" validate:"omitempty,min=6,max=72"`
	ConfirmPassword string `form:"confirm_password" sanitize:"-" validate:"eqfield=Password"`
}

func userFormFrom(rec *models.User) UserForm {
	return UserForm{
		Username:  rec.Username,
		Email:     rec.Email,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Role:      rec.Role,
		Status:    rec.Status,
	}
}

type UserController struct {
	Users   *repository.UserRepository
	PerPage int
	Logger  *logrus.Entry
}

func NewUserController(db *gorm.DB, perPage int) *UserController {
	return &UserController{
		Users:   repository.NewUserRepository(db),
		PerPage: perPage,
		Logger:  logrus.WithField("component", "users"),
	}
}

func (uc *UserController) List(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		Role:   utils.Sanitize(c.Query("role")),
		Status: utils.Sanitize(c.Query("status")),
		Search: utils.Sanitize(c.Query("search")),
	}

	users, page, err := listPage[models.User](c, uc.Users, filter, uc.PerPage)
	if err != nil {
		return err
	}

	return render(c, "users/index", "Users", "users", fiber.Map{
		"Users":      users,
		"Filter":     filter,
		"Roles":      models.UserRoles,
		"Statuses":   models.UserStatuses,
		"Pagination": page,
		"BaseURL":    "/users",
		"Query":      filterQuery("role", filter.Role, "status", filter.Status, "search", filter.Search),
	})
}

func (uc *UserController) View(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/users", session.FlashError, "Invalid user ID.")
	}

	account, err := uc.Users.GetByID(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/users", session.FlashError, "User not found.")
	}
	if err != nil {
		return err
	}

	return render(c, "users/view", account.FullName(), "users", fiber.Map{
		"Account": account,
	})
}

func (uc *UserController) New(c *fiber.Ctx) error {
	form := UserForm{Role: models.RoleSales, Status: models.UserActive}
	return uc.form(c, "/users", 0, form, nil)
}

func (uc *UserController) Create(c *fiber.Ctx) error {
	form, errs, err := uc.parse(c, 0)
	if err != nil {
		return err
	}
	if form.Password == "" {
		errs.Add("password", "Password is required.")
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return uc.form(c, "/users", 0, blankPasswords(form), errs)
	}

	hash, err := repository.HashPassword(form.Password)
	if err != nil {
		return err
	}
	rec := &models.User{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Role:         form.Role,
		Status:       form.Status,
	}

	id, err := uc.Users.Create(c.UserContext(), rec)
	if err != nil {
		utils.LogError("user_create_failed", err, map[string]interface{}{"admin_id": currentUserID(c)})
		c.Status(fiber.StatusInternalServerError)
		return uc.form(c, "/users", 0, blankPasswords(form), utils.FieldErrors{"_": "Failed to create user."})
	}

	uc.Logger.WithFields(logrus.Fields{"id": id, "admin_id": currentUserID(c)}).Info("User created")
	return redirectWithFlash(c, fmt.Sprintf("/users/%d", id), session.FlashSuccess, "User created successfully.")
}

func (uc *UserController) Edit(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/users", session.FlashError, "Invalid user ID.")
	}

	rec, err := uc.Users.Find(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/users", session.FlashError, "User not found.")
	}
	if err != nil {
		return err
	}
	return uc.form(c, fmt.Sprintf("/users/%d", id), id, userFormFrom(rec), nil)
}

// Update saves the account. The stored password is kept unless a new one
// is submitted.
func (uc *UserController) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/users", session.FlashError, "Invalid user ID.")
	}
	action := fmt.Sprintf("/users/%d", id)

	form, errs, err := uc.parse(c, id)
	if err != nil {
		return err
	}
	// The session keeps a snapshot of the signed-in account, so an admin
	// may not lock themselves out from here.
	self, _ := session.Current(c)
	if self.ID == id {
		if form.Status != models.UserActive {
			errs.Add("status", "You cannot deactivate your own account.")
		}
		if form.Role != self.Role {
			errs.Add("role", "You cannot change your own role.")
		}
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return uc.form(c, action, id, blankPasswords(form), errs)
	}

	rec := &models.User{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Role:      form.Role,
		Status:    form.Status,
	}
	if form.Password != "" {
		if rec.PasswordHash, err = repository.HashPassword(form.Password); err != nil {
			return err
		}
	}

	err = uc.Users.Update(c.UserContext(), id, rec)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/users", session.FlashError, "User not found.")
	}
	if err != nil {
		utils.LogError("user_update_failed", err, map[string]interface{}{"id": id})
		c.Status(fiber.StatusInternalServerError)
		return uc.form(c, action, id, blankPasswords(form), utils.FieldErrors{"_": "Failed to update user."})
	}

	if self.ID == id {
		rec.ID = id
		session.Refresh(session.From(c), rec)
	}

	uc.Logger.WithFields(logrus.Fields{"id": id, "admin_id": currentUserID(c)}).Info("User updated")
	return redirectWithFlash(c, action, session.FlashSuccess, "User updated successfully.")
}

func (uc *UserController) Delete(c *fiber.Ctx) error {
	id, ok := utils.ParseID(c.Query("id"))
	if !ok {
		return redirectWithFlash(c, "/users", session.FlashError, "Invalid user ID.")
	}
	if id == currentUserID(c) {
		return redirectWithFlash(c, "/users", session.FlashError, "You cannot delete your own account.")
	}

	err := uc.Users.Delete(c.UserContext(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return redirectWithFlash(c, "/users", session.FlashError, "User not found.")
	case err != nil:
		utils.LogError("user_delete_failed", err, map[string]interface{}{"id": id})
		return redirectWithFlash(c, "/users", session.FlashError, "Failed to delete user.")
	}

	uc.Logger.WithFields(logrus.Fields{"id": id, "admin_id": currentUserID(c)}).Info("User deleted")
	return redirectWithFlash(c, "/users", session.FlashSuccess, "User deleted successfully.")
}

// parse validates the form and checks that username and email are free.
// exceptID is the account being edited, 0 when creating.
func (uc *UserController) parse(c *fiber.Ctx, exceptID uint) (UserForm, utils.FieldErrors, error) {
	var form UserForm
	if err := c.BodyParser(&form); err != nil {
		return form, nil, fiber.ErrBadRequest
	}
	utils.SanitizeFields(&form)

	errs := utils.ValidateStruct(form)
	ctx := c.UserContext()
	for _, u := range []struct{ field, value, message string }{
		{"username", form.Username, "Username is already taken."},
		{"email", form.Email, "Email is already registered."},
	} {
		if u.value == "" {
			continue
		}
		taken, err := uc.Users.Taken(ctx, u.field, u.value, exceptID)
		if err != nil {
			return form, nil, err
		}
		if taken {
			errs.Add(u.field, u.message)
		}
	}
	return form, errs, nil
}

// blankPasswords keeps submitted passwords out of re-rendered pages.
func blankPasswords(form UserForm) UserForm {
	form.Password = ""
	form.ConfirmPassword = ""
	return form
}

func (uc *UserController) form(c *fiber.Ctx, action string, id uint, form UserForm, errs utils.FieldErrors) error {
	title := "Add User"
	if id != 0 {
		title = "Edit User"
	}
	return render(c, "users/form", title, "users", fiber.Map{
		"Action":   action,
		"RecordID": id,
		"Form":     form,
		"Errors":   errs,
		"Roles":    models.UserRoles,
		"Statuses": models.UserStatuses,
	})
}
