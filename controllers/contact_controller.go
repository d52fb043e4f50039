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

const contactActivityLimit = 10

// ContactForm is the submitted contact form. References stay strings so
// the form can be re-rendered exactly as typed.
type ContactForm struct {
	FirstName  string `form:"first_name" validate:"required,max=100"`
	LastName   string `form:"last_name" validate:"required,max=100"`
	Email      string `form:"email" validate:"omitempty,max=100,mailformat"`
	Phone      string `form:"phone" validate:"max=50"`
	Mobile     string `form:"mobile" validate:"max=50"`
	Position   string `form:"position" validate:"max=100"`
	CompanyID  string `form:"company_id" validate:"omitempty,numeric"`
	Status     string `form:"status" validate:"required,oneof=lead prospect customer inactive"`
	Source     string `form:"source" validate:"max=100"`
	AssignedTo string `form:"assigned_to" validate:"omitempty,numeric"`
	Address    string `form:"address" validate:"max=255"`
	City       string `form:"city" validate:"max=100"`
	State      string `form:"state" validate:"max=100"`
	Country    string `form:"country" validate:"max=100"`
	PostalCode string `form:"postal_code" validate:"max=20"`
	Notes      string `form:"notes"`
}

func contactFormFrom(rec *models.Contact) ContactForm {
	return ContactForm{
		FirstName:  rec.FirstName,
		LastName:   rec.LastName,
		Email:      rec.Email,
		Phone:      rec.Phone,
		Mobile:     rec.Mobile,
		Position:   rec.Position,
		CompanyID:  idValue(rec.CompanyID),
		Status:     rec.Status,
		Source:     rec.Source,
		AssignedTo: idValue(rec.AssignedTo),
		Address:    rec.Address,
		City:       rec.City,
		State:      rec.State,
		Country:    rec.Country,
		PostalCode: rec.PostalCode,
		Notes:      rec.Notes,
	}
}

// apply copies the form onto rec. The owner defaults to the current user.
func (f ContactForm) apply(c *fiber.Ctx, rec *models.Contact) {
	rec.FirstName = f.FirstName
	rec.LastName = f.LastName
	rec.Email = f.Email
	rec.Phone = f.Phone
	rec.Mobile = f.Mobile
	rec.Position = f.Position
	rec.CompanyID = utils.OptionalID(f.CompanyID)
	rec.Status = f.Status
	rec.Source = f.Source
	rec.AssignedTo = assignee(c, f.AssignedTo)
	rec.Address = f.Address
	rec.City = f.City
	rec.State = f.State
	rec.Country = f.Country
	rec.PostalCode = f.PostalCode
	rec.Notes = f.Notes
}

type ContactController struct {
	Contacts   *repository.ContactRepository
	Companies  *repository.CompanyRepository
	Users      *repository.UserRepository
	Activities *repository.ActivityRepository
	PerPage    int
	Logger     *logrus.Entry
}

func NewContactController(db *gorm.DB, perPage int) *ContactController {
	return &ContactController{
		Contacts:   repository.NewContactRepository(db),
		Companies:  repository.NewCompanyRepository(db),
		Users:      repository.NewUserRepository(db),
		Activities: repository.NewActivityRepository(db),
		PerPage:    perPage,
		Logger:     logrus.WithField("component", "contacts"),
	}
}

func (cc *ContactController) List(c *fiber.Ctx) error {
	filter := repository.ContactFilter{
		Status: utils.Sanitize(c.Query("status")),
		Search: utils.Sanitize(c.Query("search")),
	}

	contacts, page, err := listPage[models.ContactRow](c, cc.Contacts, filter, cc.PerPage)
	if err != nil {
		return err
	}

	return render(c, "contacts/index", "Contacts", "contacts", fiber.Map{
		"Contacts":   contacts,
		"Filter":     filter,
		"Statuses":   models.ContactStatuses,
		"Pagination": page,
		"BaseURL":    "/contacts",
		"Query":      filterQuery("status", filter.Status, "search", filter.Search),
	})
}

func (cc *ContactController) View(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/contacts", session.FlashError, "Invalid contact ID.")
	}

	ctx := c.UserContext()
	contact, err := cc.Contacts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/contacts", session.FlashError, "Contact not found.")
	}
	if err != nil {
		return err
	}

	activities, err := cc.Activities.GetAll(ctx, repository.ActivityFilter{ContactID: id}, repository.Window{Limit: contactActivityLimit})
	if err != nil {
		return err
	}

	return render(c, "contacts/view", contact.FullName(), "contacts", fiber.Map{
		"Contact":    contact,
		"Activities": activities,
	})
}

func (cc *ContactController) New(c *fiber.Ctx) error {
	form := ContactForm{Status: models.ContactLead, CompanyID: c.Query("company_id")}
	return cc.form(c, "/contacts", 0, form, nil)
}

func (cc *ContactController) Create(c *fiber.Ctx) error {
	form, errs, err := cc.parse(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return cc.form(c, "/contacts", 0, form, errs)
	}

	rec := &models.Contact{}
	form.apply(c, rec)
	uid := currentUserID(c)
	rec.CreatedBy = &uid

	id, err := cc.Contacts.Create(c.UserContext(), rec)
	if err != nil {
		utils.LogError("contact_create_failed", err, map[string]interface{}{"user_id": uid})
		c.Status(fiber.StatusInternalServerError)
		return cc.form(c, "/contacts", 0, form, utils.FieldErrors{"_": "Failed to create contact."})
	}

	cc.Logger.WithFields(logrus.Fields{"id": id, "user_id": uid}).Info("Contact created")
	return redirectWithFlash(c, fmt.Sprintf("/contacts/%d", id), session.FlashSuccess, "Contact created successfully.")
}

func (cc *ContactController) Edit(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/contacts", session.FlashError, "Invalid contact ID.")
	}

	rec, err := cc.Contacts.Find(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/contacts", session.FlashError, "Contact not found.")
	}
	if err != nil {
		return err
	}
	return cc.form(c, fmt.Sprintf("/contacts/%d", id), id, contactFormFrom(rec), nil)
}

func (cc *ContactController) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/contacts", session.FlashError, "Invalid contact ID.")
	}
	action := fmt.Sprintf("/contacts/%d", id)

	form, errs, err := cc.parse(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return cc.form(c, action, id, form, errs)
	}

	ctx := c.UserContext()
	rec, err := cc.Contacts.Find(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/contacts", session.FlashError, "Contact not found.")
	}
	if err != nil {
		return err
	}
	form.apply(c, rec)

	err = cc.Contacts.Update(ctx, id, rec)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/contacts", session.FlashError, "Contact not found.")
	}
	if err != nil {
		utils.LogError("contact_update_failed", err, map[string]interface{}{"id": id})
		c.Status(fiber.StatusInternalServerError)
		return cc.form(c, action, id, form, utils.FieldErrors{"_": "Failed to update contact."})
	}

	cc.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Contact updated")
	return redirectWithFlash(c, action, session.FlashSuccess, "Contact updated successfully.")
}

func (cc *ContactController) Delete(c *fiber.Ctx) error {
	id, ok := utils.ParseID(c.Query("id"))
	if !ok {
		return redirectWithFlash(c, "/contacts", session.FlashError, "Invalid contact ID.")
	}

	err := cc.Contacts.Delete(c.UserContext(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return redirectWithFlash(c, "/contacts", session.FlashError, "Contact not found.")
	case err != nil:
		utils.LogError("contact_delete_failed", err, map[string]interface{}{"id": id})
		return redirectWithFlash(c, "/contacts", session.FlashError, "Failed to delete contact.")
	}

	cc.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Contact deleted")
	return redirectWithFlash(c, "/contacts", session.FlashSuccess, "Contact deleted successfully.")
}

// parse reads, normalizes and validates the submitted form. Store failures
// while checking references are returned as err.
func (cc *ContactController) parse(c *fiber.Ctx) (ContactForm, utils.FieldErrors, error) {
	var form ContactForm
	if err := c.BodyParser(&form); err != nil {
		return form, nil, fiber.ErrBadRequest
	}
	utils.SanitizeFields(&form)
	if form.Status == "" {
		form.Status = models.ContactLead
	}

	errs := utils.ValidateStruct(form)
	ctx := c.UserContext()
	if err := checkReference(ctx, errs, "company_id", "Selected company does not exist.", utils.OptionalID(form.CompanyID), cc.Companies.Exists); err != nil {
		return form, nil, err
	}
	if err := checkReference(ctx, errs, "assigned_to", "Selected user does not exist.", utils.OptionalID(form.AssignedTo), cc.Users.Exists); err != nil {
		return form, nil, err
	}
	return form, errs, nil
}

func (cc *ContactController) form(c *fiber.Ctx, action string, id uint, form ContactForm, errs utils.FieldErrors) error {
	ctx := c.UserContext()
	companies, err := cc.Companies.ForSelect(ctx)
	if err != nil {
		return err
	}
	users, err := cc.Users.ForSelect(ctx)
	if err != nil {
		return err
	}

	title := "Add Contact"
	if id != 0 {
		title = "Edit Contact"
	}
	return render(c, "contacts/form", title, "contacts", fiber.Map{
		"Action":    action,
		"RecordID":  id,
		"Form":      form,
		"Errors":    errs,
		"Companies": companies,
		"Users":     users,
		"Statuses":  models.ContactStatuses,
	})
}
