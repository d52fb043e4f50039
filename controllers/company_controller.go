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

type CompanyForm struct {
	Name       string `form:"name" validate:"required,max=200"`
	Industry   string `form:"industry" validate:"max=100"`
	Website    string `form:"website" validate:"omitempty,max=255,url"`
	Phone      string `form:"phone" validate:"max=50"`
	Email      string `form:"email" validate:"omitempty,max=100,mailformat"`
	Address    string `form:"address" validate:"max=255"`
	City       string `form:"city" validate:"max=100"`
	State      string `form:"state" validate:"max=100"`
	Country    string `form:"country" validate:"max=100"`
	PostalCode string `form:"postal_code" validate:"max=20"`
	Notes      string `form:"notes"`
}

func companyFormFrom(rec *models.Company) CompanyForm {
	return CompanyForm{
		Name:       rec.Name,
		Industry:   rec.Industry,
		Website:    rec.Website,
		Phone:      rec.Phone,
		Email:      rec.Email,
		Address:    rec.Address,
		City:       rec.City,
		State:      rec.State,
		Country:    rec.Country,
		PostalCode: rec.PostalCode,
		Notes:      rec.Notes,
	}
}

func (f CompanyForm) apply(rec *models.Company) {
	rec.Name = f.Name
	rec.Industry = f.Industry
	rec.Website = f.Website
	rec.Phone = f.Phone
	rec.Email = f.Email
	rec.Address = f.Address
	rec.City = f.City
	rec.State = f.State
	rec.Country = f.Country
	rec.PostalCode = f.PostalCode
	rec.Notes = f.Notes
}

type CompanyController struct {
	Companies *repository.CompanyRepository
	Contacts  *repository.ContactRepository
	Deals     *repository.DealRepository
	PerPage   int
	Logger    *logrus.Entry
}

func NewCompanyController(db *gorm.DB, perPage int) *CompanyController {
	return &CompanyController{
		Companies: repository.NewCompanyRepository(db),
		Contacts:  repository.NewContactRepository(db),
		Deals:     repository.NewDealRepository(db),
		PerPage:   perPage,
		Logger:    logrus.WithField("component", "companies"),
	}
}

func (cc *CompanyController) List(c *fiber.Ctx) error {
	filter := repository.CompanyFilter{
		Search:   utils.Sanitize(c.Query("search")),
		Industry: utils.Sanitize(c.Query("industry")),
	}

	companies, page, err := listPage[models.CompanyRow](c, cc.Companies, filter, cc.PerPage)
	if err != nil {
		return err
	}

	return render(c, "companies/index", "Companies", "companies", fiber.Map{
		"Companies":  companies,
		"Filter":     filter,
		"Pagination": page,
		"BaseURL":    "/companies",
		"Query":      filterQuery("search", filter.Search, "industry", filter.Industry),
	})
}

// View shows the company with the contacts and deals attached to it.
func (cc *CompanyController) View(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/companies", session.FlashError, "Invalid company ID.")
	}

	ctx := c.UserContext()
	company, err := cc.Companies.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/companies", session.FlashError, "Company not found.")
	}
	if err != nil {
		return err
	}

	contacts, err := cc.Contacts.GetAll(ctx, repository.ContactFilter{CompanyID: id}, repository.All)
	if err != nil {
		return err
	}
	deals, err := cc.Deals.GetAll(ctx, repository.DealFilter{CompanyID: id}, repository.All)
	if err != nil {
		return err
	}

	return render(c, "companies/view", company.Name, "companies", fiber.Map{
		"Company":  company,
		"Contacts": contacts,
		"Deals":    deals,
	})
}

func (cc *CompanyController) New(c *fiber.Ctx) error {
	return cc.form(c, "/companies", 0, CompanyForm{}, nil)
}

func (cc *CompanyController) Create(c *fiber.Ctx) error {
	form, errs, err := cc.parse(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return cc.form(c, "/companies", 0, form, errs)
	}

	rec := &models.Company{}
	form.apply(rec)
	uid := currentUserID(c)
	rec.CreatedBy = &uid

	id, err := cc.Companies.Create(c.UserContext(), rec)
	if err != nil {
		utils.LogError("company_create_failed", err, map[string]interface{}{"user_id": uid})
		c.Status(fiber.StatusInternalServerError)
		return cc.form(c, "/companies", 0, form, utils.FieldErrors{"_": "Failed to create company."})
	}

	cc.Logger.WithFields(logrus.Fields{"id": id, "user_id": uid}).Info("Company created")
	return redirectWithFlash(c, fmt.Sprintf("/companies/%d", id), session.FlashSuccess, "Company created successfully.")
}

func (cc *CompanyController) Edit(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/companies", session.FlashError, "Invalid company ID.")
	}

	rec, err := cc.Companies.Find(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/companies", session.FlashError, "Company not found.")
	}
	if err != nil {
		return err
	}
	return cc.form(c, fmt.Sprintf("/companies/%d", id), id, companyFormFrom(rec), nil)
}

func (cc *CompanyController) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/companies", session.FlashError, "Invalid company ID.")
	}
	action := fmt.Sprintf("/companies/%d", id)

	form, errs, err := cc.parse(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return cc.form(c, action, id, form, errs)
	}

	rec := &models.Company{}
	form.apply(rec)

	err = cc.Companies.Update(c.UserContext(), id, rec)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/companies", session.FlashError, "Company not found.")
	}
	if err != nil {
		utils.LogError("company_update_failed", err, map[string]interface{}{"id": id})
		c.Status(fiber.StatusInternalServerError)
		return cc.form(c, action, id, form, utils.FieldErrors{"_": "Failed to update company."})
	}

	cc.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Company updated")
	return redirectWithFlash(c, action, session.FlashSuccess, "Company updated successfully.")
}

// Delete removes the company. Contacts and deals keep their now dangling
// company reference and show a placeholder.
func (cc *CompanyController) Delete(c *fiber.Ctx) error {
	id, ok := utils.ParseID(c.Query("id"))
	if !ok {
		return redirectWithFlash(c, "/companies", session.FlashError, "Invalid company ID.")
	}

	err := cc.Companies.Delete(c.UserContext(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return redirectWithFlash(c, "/companies", session.FlashError, "Company not found.")
	case err != nil:
		utils.LogError("company_delete_failed", err, map[string]interface{}{"id": id})
		return redirectWithFlash(c, "/companies", session.FlashError, "Failed to delete company.")
	}

	cc.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Company deleted")
	return redirectWithFlash(c, "/companies", session.FlashSuccess, "Company deleted successfully.")
}

func (cc *CompanyController) parse(c *fiber.Ctx) (CompanyForm, utils.FieldErrors, error) {
	var form CompanyForm
	if err := c.BodyParser(&form); err != nil {
		return form, nil, fiber.ErrBadRequest
	}
	utils.SanitizeFields(&form)
	return form, utils.ValidateStruct(form), nil
}

func (cc *CompanyController) form(c *fiber.Ctx, action string, id uint, form CompanyForm, errs utils.FieldErrors) error {
	title := "Add Company"
	if id != 0 {
		title = "Edit Company"
	}
	return render(c, "companies/form", title, "companies", fiber.Map{
		"Action":   action,
		"RecordID": id,
		"Form":     form,
		"Errors":   errs,
	})
}
