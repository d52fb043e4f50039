package controller

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"crmportal/models"
	"crmportal/repository"
	"crmportal/session"
	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	dateLayout        = "2006-01-02"
	dealActivityLimit = 10
)

type DealForm struct {
	Title             string `form:"title" validate:"required,max=200"`
	Description       string `form:"description"`
	Value             string `form:"value" validate:"omitempty,numeric"`
	Probability       string `form:"probability" validate:"omitempty,numeric"`
	Stage             string `form:"stage" validate:"required,oneof=qualification proposal negotiation closed_won closed_lost"`
	ExpectedCloseDate string `form:"expected_close_date" validate:"omitempty,datetime=2006-01-02"`
	ContactID         string `form:"contact_id" validate:"omitempty,numeric"`
	CompanyID         string `form:"company_id" validate:"omitempty,numeric"`
	AssignedTo        string `form:"assigned_to" validate:"omitempty,numeric"`
}

func dealFormFrom(rec *models.Deal) DealForm {
	form := DealForm{
		Title:       rec.Title,
		Description: rec.Description,
		Value:       strconv.FormatFloat(rec.Value, 'f', 2, 64),
		Probability: strconv.Itoa(rec.Probability),
		Stage:       rec.Stage,
		ContactID:   idValue(rec.ContactID),
		CompanyID:   idValue(rec.CompanyID),
		AssignedTo:  idValue(rec.AssignedTo),
	}
	if rec.ExpectedCloseDate != nil {
		form.ExpectedCloseDate = rec.ExpectedCloseDate.Format(dateLayout)
	}
	return form
}

// check adds the range rules the tags cannot express.
func (f DealForm) check(errs utils.FieldErrors) {
	if v, err := strconv.ParseFloat(f.Value, 64); err == nil && v < 0 {
		errs.Add("value", "Value must not be negative.")
	}
	if f.Probability != "" {
		p, err := strconv.Atoi(f.Probability)
		if err != nil || p < 0 || p > 100 {
			errs.Add("probability", "Probability must be a whole number between 0 and 100.")
		}
	}
}

// apply copies a validated form onto rec.
func (f DealForm) apply(c *fiber.Ctx, rec *models.Deal) {
	rec.Title = f.Title
	rec.Description = f.Description
	rec.Value, _ = strconv.ParseFloat(f.Value, 64)
	rec.Probability, _ = strconv.Atoi(f.Probability)
	rec.Stage = f.Stage
	rec.ExpectedCloseDate = nil
	if d, err := time.ParseInLocation(dateLayout, f.ExpectedCloseDate, time.Local); err == nil {
		rec.ExpectedCloseDate = &d
	}
	rec.ContactID = utils.OptionalID(f.ContactID)
	rec.CompanyID = utils.OptionalID(f.CompanyID)
	rec.AssignedTo = assignee(c, f.AssignedTo)
}

type DealController struct {
	Deals      *repository.DealRepository
	Contacts   *repository.ContactRepository
	Companies  *repository.CompanyRepository
	Users      *repository.UserRepository
	Activities *repository.ActivityRepository
	PerPage    int
	Logger     *logrus.Entry
}

func NewDealController(db *gorm.DB, perPage int) *DealController {
	return &DealController{
		Deals:      repository.NewDealRepository(db),
		Contacts:   repository.NewContactRepository(db),
		Companies:  repository.NewCompanyRepository(db),
		Users:      repository.NewUserRepository(db),
		Activities: repository.NewActivityRepository(db),
		PerPage:    perPage,
		Logger:     logrus.WithField("component", "deals"),
	}
}

func (dc *DealController) List(c *fiber.Ctx) error {
	filter := repository.DealFilter{
		Stage:  utils.Sanitize(c.Query("stage")),
		Search: utils.Sanitize(c.Query("search")),
	}

	deals, page, err := listPage[models.DealRow](c, dc.Deals, filter, dc.PerPage)
	if err != nil {
		return err
	}

	return render(c, "deals/index", "Deals", "deals", fiber.Map{
		"Deals":      deals,
		"Filter":     filter,
		"Stages":     models.DealStages,
		"Pagination": page,
		"BaseURL":    "/deals",
		"Query":      filterQuery("stage", filter.Stage, "search", filter.Search),
	})
}

func (dc *DealController) View(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/deals", session.FlashError, "Invalid deal ID.")
	}

	ctx := c.UserContext()
	deal, err := dc.Deals.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/deals", session.FlashError, "Deal not found.")
	}
	if err != nil {
		return err
	}

	activities, err := dc.Activities.GetAll(ctx, repository.ActivityFilter{DealID: id}, repository.Window{Limit: dealActivityLimit})
	if err != nil {
		return err
	}

	return render(c, "deals/view", deal.Title, "deals", fiber.Map{
		"Deal":       deal,
		"Activities": activities,
	})
}

func (dc *DealController) New(c *fiber.Ctx) error {
	form := DealForm{
		Stage:       models.StageQualification,
		Probability: "0",
		ContactID:   c.Query("contact_id"),
		CompanyID:   c.Query("company_id"),
	}
	return dc.form(c, "/deals", 0, form, nil)
}

func (dc *DealController) Create(c *fiber.Ctx) error {
	form, errs, err := dc.parse(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return dc.form(c, "/deals", 0, form, errs)
	}

	rec := &models.Deal{}
	form.apply(c, rec)
	uid := currentUserID(c)
	rec.CreatedBy = &uid

	id, err := dc.Deals.Create(c.UserContext(), rec)
	if err != nil {
		utils.LogError("deal_create_failed", err, map[string]interface{}{"user_id": uid})
		c.Status(fiber.StatusInternalServerError)
		return dc.form(c, "/deals", 0, form, utils.FieldErrors{"_": "Failed to create deal."})
	}

	dc.Logger.WithFields(logrus.Fields{"id": id, "user_id": uid}).Info("Deal created")
	return redirectWithFlash(c, fmt.Sprintf("/deals/%d", id), session.FlashSuccess, "Deal created successfully.")
}

func (dc *DealController) Edit(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/deals", session.FlashError, "Invalid deal ID.")
	}

	rec, err := dc.Deals.Find(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/deals", session.FlashError, "Deal not found.")
	}
	if err != nil {
		return err
	}
	return dc.form(c, fmt.Sprintf("/deals/%d", id), id, dealFormFrom(rec), nil)
}

func (dc *DealController) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/deals", session.FlashError, "Invalid deal ID.")
	}
	action := fmt.Sprintf("/deals/%d", id)

	form, errs, err := dc.parse(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return dc.form(c, action, id, form, errs)
	}

	rec := &models.Deal{}
	form.apply(c, rec)

	err = dc.Deals.Update(c.UserContext(), id, rec)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/deals", session.FlashError, "Deal not found.")
	}
	if err != nil {
		utils.LogError("deal_update_failed", err, map[string]interface{}{"id": id})
		c.Status(fiber.StatusInternalServerError)
		return dc.form(c, action, id, form, utils.FieldErrors{"_": "Failed to update deal."})
	}

	dc.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Deal updated")
	return redirectWithFlash(c, action, session.FlashSuccess, "Deal updated successfully.")
}

func (dc *DealController) Delete(c *fiber.Ctx) error {
	id, ok := utils.ParseID(c.Query("id"))
	if !ok {
		return redirectWithFlash(c, "/deals", session.FlashError, "Invalid deal ID.")
	}

	err := dc.Deals.Delete(c.UserContext(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return redirectWithFlash(c, "/deals", session.FlashError, "Deal not found.")
	case err != nil:
		utils.LogError("deal_delete_failed", err, map[string]interface{}{"id": id})
		return redirectWithFlash(c, "/deals", session.FlashError, "Failed to delete deal.")
	}

	dc.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Deal deleted")
	return redirectWithFlash(c, "/deals", session.FlashSuccess, "Deal deleted successfully.")
}

func (dc *DealController) parse(c *fiber.Ctx) (DealForm, utils.FieldErrors, error) {
	var form DealForm
	if err := c.BodyParser(&form); err != nil {
		return form, nil, fiber.ErrBadRequest
	}
	utils.SanitizeFields(&form)
	if form.Stage == "" {
		form.Stage = models.StageQualification
	}

	errs := utils.ValidateStruct(form)
	form.check(errs)

	ctx := c.UserContext()
	if err := checkReference(ctx, errs, "contact_id", "Selected contact does not exist.", utils.OptionalID(form.ContactID), dc.Contacts.Exists); err != nil {
		return form, nil, err
	}
	if err := checkReference(ctx, errs, "company_id", "Selected company does not exist.", utils.OptionalID(form.CompanyID), dc.Companies.Exists); err != nil {
		return form, nil, err
	}
	if err := checkReference(ctx, errs, "assigned_to", "Selected user does not exist.", utils.OptionalID(form.AssignedTo), dc.Users.Exists); err != nil {
		return form, nil, err
	}
	return form, errs, nil
}

func (dc *DealController) form(c *fiber.Ctx, action string, id uint, form DealForm, errs utils.FieldErrors) error {
	ctx := c.UserContext()
	contacts, err := dc.Contacts.ForSelect(ctx)
	if err != nil {
		return err
	}
	companies, err := dc.Companies.ForSelect(ctx)
	if err != nil {
		return err
	}
	users, err := dc.Users.ForSelect(ctx)
	if err != nil {
		return err
	}

	title := "Add Deal"
	if id != 0 {
		title = "Edit Deal"
	}
	return render(c, "deals/form", title, "deals", fiber.Map{
		"Action":    action,
		"RecordID":  id,
		"Form":      form,
		"Errors":    errs,
		"Contacts":  contacts,
		"Companies": companies,
		"Users":     users,
		"Stages":    models.DealStages,
	})
}
