package controller

import (
	"time"

	"crmportal/models"
	"crmportal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const dashboardListSize = 5

type DashboardController struct {
	Contacts   *repository.ContactRepository
	Companies  *repository.CompanyRepository
	Deals      *repository.DealRepository
	Activities *repository.ActivityRepository
	Logger     *logrus.Entry
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{
		Contacts:   repository.NewContactRepository(db),
		Companies:  repository.NewCompanyRepository(db),
		Deals:      repository.NewDealRepository(db),
		Activities: repository.NewActivityRepository(db),
		Logger:     logrus.WithField("component", "dashboard"),
	}
}

// Index shows the summary cards, the pipeline and the current user's
// recent and upcoming work.
func (dc *DashboardController) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()
	uid := currentUserID(c)

	totalContacts, err := dc.Contacts.Count(ctx, nil)
	if err != nil {
		return err
	}
	totalCompanies, err := dc.Companies.Count(ctx, nil)
	if err != nil {
		return err
	}
	totalDeals, err := dc.Deals.Count(ctx, nil)
	if err != nil {
		return err
	}
	scheduled, err := dc.Activities.Count(ctx, repository.ActivityFilter{Status: models.ActivityScheduled})
	if err != nil {
		return err
	}

	byStatus, err := dc.Contacts.CountByStatus(ctx)
	if err != nil {
		return err
	}
	byStage, err := dc.Deals.CountByStage(ctx)
	if err != nil {
		return err
	}
	valueByStage, err := dc.Deals.ValueByStage(ctx)
	if err != nil {
		return err
	}

	recent, err := dc.Activities.GetAll(ctx, repository.ActivityFilter{AssignedTo: uid}, repository.Window{Limit: dashboardListSize})
	if err != nil {
		return err
	}
	upcoming, err := dc.Activities.Upcoming(ctx, uid, time.Now(), dashboardListSize)
	if err != nil {
		return err
	}
	recentContacts, err := dc.Contacts.GetAll(ctx, nil, repository.Window{Limit: dashboardListSize})
	if err != nil {
		return err
	}

	return render(c, "dashboard", "Dashboard", "dashboard", fiber.Map{
		"TotalContacts":       totalContacts,
		"TotalCompanies":      totalCompanies,
		"TotalDeals":          totalDeals,
		"ScheduledActivities": scheduled,
		"ContactStatuses":     models.ContactStatuses,
		"ContactsByStatus":    byStatus,
		"DealStages":          models.DealStages,
		"DealsByStage":        byStage,
		"ValueByStage":        valueByStage,
		"RecentActivities":    recent,
		"UpcomingActivities":  upcoming,
		"RecentContacts":      recentContacts,
	})
}
