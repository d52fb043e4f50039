package controller

import (
	"context"
	"net/url"
	"strconv"

	"crmportal/middleware"
	"crmportal/repository"
	"crmportal/session"
	"crmportal/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	layoutMain = "layouts/main"
	layoutAuth = "layouts/auth"
)

// render fills in the values every page layout reads and renders view
// inside the main layout.
func render(c *fiber.Ctx, view, title, nav string, data fiber.Map) error {
	return c.Render(view, pageData(c, title, nav, data), layoutMain)
}

func renderAuth(c *fiber.Ctx, view, title string, data fiber.Map) error {
	return c.Render(view, pageData(c, title, "", data), layoutAuth)
}

func pageData(c *fiber.Ctx, title, nav string, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["AppName"] = c.App().Config().AppName
	data["Nav"] = nav
	data["CSRF"] = middleware.CSRFToken(c)

	ident, _ := session.Current(c)
	data["User"] = ident

	data["Flash"] = nil
	if f, ok := session.PopFlash(session.From(c)); ok {
		data["Flash"] = &f
	}
	return data
}

// redirectWithFlash stores a one-shot message and sends the browser to path.
func redirectWithFlash(c *fiber.Ctx, path, kind, message string) error {
	if sess := session.From(c); sess != nil {
		session.SetFlash(sess, kind, message)
	}
	return c.Redirect(path, fiber.StatusSeeOther)
}

func pathID(c *fiber.Ctx) (uint, bool) {
	return utils.ParseID(c.Params("id"))
}

func currentUserID(c *fiber.Ctx) uint {
	ident, _ := session.Current(c)
	return ident.ID
}

// filterQuery encodes the non-empty filter values so pager links keep them.
// pairs alternate key and value.
func filterQuery(pairs ...string) string {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			values.Set(pairs[i], pairs[i+1])
		}
	}
	return values.Encode()
}

type lister[R any] interface {
	Count(ctx context.Context, filter repository.Filter) (int64, error)
	GetAll(ctx context.Context, filter repository.Filter, w repository.Window) ([]R, error)
}

// listPage counts the matches of filter, clamps the requested page and
// loads that page of rows.
func listPage[R any](c *fiber.Ctx, repo lister[R], filter repository.Filter, perPage int) ([]R, utils.Pagination, error) {
	ctx := c.UserContext()

	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, utils.Pagination{}, err
	}
	p := utils.Paginate(total, utils.ParsePage(c.Query("page")), perPage)

	rows, err := repo.GetAll(ctx, filter, repository.Window{Limit: p.PerPage, Offset: p.Offset})
	if err != nil {
		return nil, utils.Pagination{}, err
	}
	return rows, p, nil
}

// checkReference validates an optional foreign key. A missing target is a
// field error, a store failure is returned.
func checkReference(ctx context.Context, errs utils.FieldErrors, field, message string, id *uint, exists func(context.Context, uint) (bool, error)) error {
	if id == nil {
		return nil
	}
	ok, err := exists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		errs.Add(field, message)
	}
	return nil
}

// assignee is the submitted owner, or the current user when none was picked.
func assignee(c *fiber.Ctx, value string) *uint {
	if id := utils.OptionalID(value); id != nil {
		return id
	}
	if uid := currentUserID(c); uid != 0 {
		return &uid
	}
	return nil
}

// idValue renders an optional reference as a form value.
func idValue(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}
