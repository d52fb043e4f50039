package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crmportal/models"
	"crmportal/repository"
	"crmportal/session"
	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const datetimeLayout = "2006-01-02T15:04"

const statusLockedMessage = "Only scheduled activities can change status."

type ActivityForm struct {
	Type        string `form:"type" validate:"required,oneof=call meeting email task note"`
	Subject     string `form:"subject" validate:"required,max=200"`
	Description string `form:"description"`
	ScheduledAt string `form:"scheduled_at" validate:"omitempty,datetime=2006-01-02T15:04"`
	Status      string `form:"status" validate:"required,oneof=scheduled completed cancelled"`
	ContactID   string `form:"contact_id" validate:"omitempty,numeric"`
	CompanyID   string `form:"company_id" validate:"omitempty,numeric"`
	DealID      string `form:"deal_id" validate:"omitempty,numeric"`
	AssignedTo  string `form:"assigned_to" validate:"omitempty,numeric"`
}

func activityFormFrom(rec *models.Activity) ActivityForm {
	form := ActivityForm{
		Type:        rec.Type,
		Subject:     rec.Subject,
		Description: rec.Description,
		Status:      rec.Status,
		ContactID:   idValue(rec.ContactID),
		CompanyID:   idValue(rec.CompanyID),
		DealID:      idValue(rec.DealID),
		AssignedTo:  idValue(rec.AssignedTo),
	}
	if rec.ScheduledAt != nil {
		form.ScheduledAt = rec.ScheduledAt.Format(datetimeLayout)
	}
	return form
}

// apply copies every field except the status, which only moves through
// Activity.Transition.
func (f ActivityForm) apply(c *fiber.Ctx, rec *models.Activity) {
	rec.Type = f.Type
	rec.Subject = f.Subject
	rec.Description = f.Description
	rec.ScheduledAt = nil
	if t, err := time.ParseInLocation(datetimeLayout, f.ScheduledAt, time.Local); err == nil {
		rec.ScheduledAt = &t
	}
	rec.ContactID = utils.OptionalID(f.ContactID)
	rec.CompanyID = utils.OptionalID(f.CompanyID)
	rec.DealID = utils.OptionalID(f.DealID)
	rec.AssignedTo = assignee(c, f.AssignedTo)
}

type ActivityController struct {
	Activities *repository.ActivityRepository
	Contacts   *repository.ContactRepository
	Companies  *repository.CompanyRepository
	Deals      *repository.DealRepository
	Users      *repository.UserRepository
	PerPage    int
	Logger     *logrus.Entry
	now        func() time.Time
}

func NewActivityController(db *gorm.DB, perPage int) *ActivityController {
	return &ActivityController{
		Activities: repository.NewActivityRepository(db),
		Contacts:   repository.NewContactRepository(db),
		Companies:  repository.NewCompanyRepository(db),
		Deals:      repository.NewDealRepository(db),
		Users:      repository.NewUserRepository(db),
		PerPage:    perPage,
		Logger:     logrus.WithField("component", "activities"),
		now:        time.Now,
	}
}

func (ac *ActivityController) List(c *fiber.Ctx) error {
	filter := repository.ActivityFilter{
		Type:   utils.Sanitize(c.Query("type")),
		Status: utils.Sanitize(c.Query("status")),
	}

	activities, page, err := listPage[models.ActivityRow](c, ac.Activities, filter, ac.PerPage)
	if err != nil {
		return err
	}

	return render(c, "activities/index", "Activities", "activities", fiber.Map{
		"Activities": activities,
		"Filter":     filter,
		"Types":      models.ActivityTypes,
		"Statuses":   models.ActivityStatuses,
		"Pagination": page,
		"BaseURL":    "/activities",
		"Query":      filterQuery("type", filter.Type, "status", filter.Status),
	})
}

func (ac *ActivityController) View(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/activities", session.FlashError, "Invalid activity ID.")
	}

	activity, err := ac.Activities.GetByID(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/activities", session.FlashError, "Activity not found.")
	}
	if err != nil {
		return err
	}

	return render(c, "activities/view", activity.Subject, "activities", fiber.Map{
		"Activity": activity,
	})
}

// New prefills the references passed from a contact, company or deal page.
func (ac *ActivityController) New(c *fiber.Ctx) error {
	form := ActivityForm{
		Type:      models.ActivityCall,
		Status:    models.ActivityScheduled,
		ContactID: c.Query("contact_id"),
		CompanyID: c.Query("company_id"),
		DealID:    c.Query("deal_id"),
	}
	return ac.form(c, "/activities", 0, form, nil)
}

func (ac *ActivityController) Create(c *fiber.Ctx) error {
	form, errs, err := ac.parse(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return ac.form(c, "/activities", 0, form, errs)
	}

	rec := &models.Activity{}
	form.apply(c, rec)
	if err := rec.Transition(form.Status, ac.now()); err != nil {
		return err
	}
	uid := currentUserID(c)
	rec.CreatedBy = &uid

	id, err := ac.Activities.Create(c.UserContext(), rec)
	if err != nil {
		utils.LogError("activity_create_failed", err, map[string]interface{}{"user_id": uid})
		c.Status(fiber.StatusInternalServerError)
		return ac.form(c, "/activities", 0, form, utils.FieldErrors{"_": "Failed to create activity."})
	}

	ac.Logger.WithFields(logrus.Fields{"id": id, "user_id": uid}).Info("Activity created")
	return redirectWithFlash(c, fmt.Sprintf("/activities/%d", id), session.FlashSuccess, "Activity created successfully.")
}

func (ac *ActivityController) Edit(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/activities", session.FlashError, "Invalid activity ID.")
	}

	rec, err := ac.Activities.Find(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/activities", session.FlashError, "Activity not found.")
	}
	if err != nil {
		return err
	}
	return ac.form(c, fmt.Sprintf("/activities/%d", id), id, activityFormFrom(rec), nil)
}

func (ac *ActivityController) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/activities", session.FlashError, "Invalid activity ID.")
	}
	action := fmt.Sprintf("/activities/%d", id)

	form, errs, err := ac.parse(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	rec, err := ac.Activities.Find(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/activities", session.FlashError, "Activity not found.")
	}
	if err != nil {
		return err
	}

	if len(errs) == 0 {
		if err := rec.Transition(form.Status, ac.now()); errors.Is(err, models.ErrStatusLocked) {
			errs.Add("status", statusLockedMessage)
		} else if err != nil {
			return err
		}
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return ac.form(c, action, id, form, errs)
	}
	form.apply(c, rec)

	err = ac.Activities.Update(ctx, id, rec)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/activities", session.FlashError, "Activity not found.")
	}
	if err != nil {
		utils.LogError("activity_update_failed", err, map[string]interface{}{"id": id})
		c.Status(fiber.StatusInternalServerError)
		return ac.form(c, action, id, form, utils.FieldErrors{"_": "Failed to update activity."})
	}

	ac.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Activity updated")
	return redirectWithFlash(c, action, session.FlashSuccess, "Activity updated successfully.")
}

// Complete marks a scheduled activity as done.
func (ac *ActivityController) Complete(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return redirectWithFlash(c, "/activities", session.FlashError, "Invalid activity ID.")
	}
	action := fmt.Sprintf("/activities/%d", id)

	ctx := c.UserContext()
	rec, err := ac.Activities.Find(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return redirectWithFlash(c, "/activities", session.FlashError, "Activity not found.")
	}
	if err != nil {
		return err
	}

	if rec.Status != models.ActivityScheduled {
		return redirectWithFlash(c, action, session.FlashWarning, statusLockedMessage)
	}
	if err := rec.Transition(models.ActivityCompleted, ac.now()); err != nil {
		return err
	}
	if err := ac.Activities.Update(ctx, id, rec); err != nil {
		utils.LogError("activity_complete_failed", err, map[string]interface{}{"id": id})
		return redirectWithFlash(c, action, session.FlashError, "Failed to update activity.")
	}

	ac.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Activity completed")
	return redirectWithFlash(c, action, session.FlashSuccess, "Activity marked as completed.")
}

func (ac *ActivityController) Delete(c *fiber.Ctx) error {
	id, ok := utils.ParseID(c.Query("id"))
	if !ok {
		return redirectWithFlash(c, "/activities", session.FlashError, "Invalid activity ID.")
	}

	err := ac.Activities.Delete(c.UserContext(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return redirectWithFlash(c, "/activities", session.FlashError, "Activity not found.")
	case err != nil:
		utils.LogError("activity_delete_failed", err, map[string]interface{}{"id": id})
		return redirectWithFlash(c, "/activities", session.FlashError, "Failed to delete activity.")
	}

	ac.Logger.WithFields(logrus.Fields{"id": id, "user_id": currentUserID(c)}).Info("Activity deleted")
	return redirectWithFlash(c, "/activities", session.FlashSuccess, "Activity deleted successfully.")
}

func (ac *ActivityController) parse(c *fiber.Ctx) (ActivityForm, utils.FieldErrors, error) {
	var form ActivityForm
	if err := c.BodyParser(&form); err != nil {
		return form, nil, fiber.ErrBadRequest
	}
	utils.SanitizeFields(&form)
	if form.Status == "" {
		form.Status = models.ActivityScheduled
	}

	errs := utils.ValidateStruct(form)
	ctx := c.UserContext()
	refs := []struct {
		field, message string
		id             *uint
		exists         func(ctx context.Context, id uint) (bool, error)
	}{
		{"contact_id", "Selected contact does not exist.", utils.OptionalID(form.ContactID), ac.Contacts.Exists},
		{"company_id", "Selected company does not exist.", utils.OptionalID(form.CompanyID), ac.Companies.Exists},
		{"deal_id", "Selected deal does not exist.", utils.OptionalID(form.DealID), ac.Deals.Exists},
		{"assigned_to", "Selected user does not exist.", utils.OptionalID(form.AssignedTo), ac.Users.Exists},
	}
	for _, ref := range refs {
		if err := checkReference(ctx, errs, ref.field, ref.message, ref.id, ref.exists); err != nil {
			return form, nil, err
		}
	}
	return form, errs, nil
}

func (ac *ActivityController) form(c *fiber.Ctx, action string, id uint, form ActivityForm, errs utils.FieldErrors) error {
	ctx := c.UserContext()
	contacts, err := ac.Contacts.ForSelect(ctx)
	if err != nil {
		return err
	}
	companies, err := ac.Companies.ForSelect(ctx)
	if err != nil {
		return err
	}
	deals, err := ac.Deals.ForSelect(ctx)
	if err != nil {
		return err
	}
	users, err := ac.Users.ForSelect(ctx)
	if err != nil {
		return err
	}

	title := "Add Activity"
	if id != 0 {
		title = "Edit Activity"
	}
	return render(c, "activities/form", title, "activities", fiber.Map{
		"Action":    action,
		"RecordID":  id,
		"Form":      form,
		"Errors":    errs,
		"Contacts":  contacts,
		"Companies": companies,
		"Deals":     deals,
		"Users":     users,
		"Types":     models.ActivityTypes,
		"Statuses":  models.ActivityStatuses,
	})
}
