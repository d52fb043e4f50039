package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	controller "crmportal/controllers"
	"crmportal/internal/testdb"
	"crmportal/models"
	"crmportal/repository"
	"crmportal/session"
	"crmportal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var csrfInput = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

func newTestApp(t *testing.T, db *gorm.DB, loginLimit int) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		AppName:      "CRM Test",
		Views:        views.NewEngine(),
		ErrorHandler: controller.ErrorHandler,
	})
	SetupRoutes(app, db, Options{
		Sessions:       session.NewStore(session.Config{}),
		CSRFSecret:     []byte("routes-test-secret"),
		CSRFLifetime:   time.Hour,
		PerPage:        10,
		LoginRateLimit: loginLimit,
	})
	return app
}

// browser replays the session cookie between requests.
type browser struct {
	t      *testing.T
	app    *fiber.App
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		if c.Name == "crm_session" {
			b.cookie = c
		}
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// token loads page and returns the CSRF token embedded in it.
func (b *browser) token(page string) string {
	b.t.Helper()
	_, body := b.get(page)
	m := csrfInput.FindStringSubmatch(body)
	require.Len(b.t, m, 2, "no token on %s", page)
	return m[1]
}

// submit posts form to action with a token taken from page.
func (b *browser) submit(page, action string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	form.Set("_csrf", b.token(page))
	return b.post(action, form)
}

func (b *browser) follow(resp *http.Response) (*http.Response, string) {
	b.t.Helper()
	require.Equal(b.t, fiber.StatusSeeOther, resp.StatusCode)
	return b.get(resp.Header.Get("Location"))
}

func (b *browser) login(username, password string) {
	b.t.Helper()
	resp, _ := b.submit("/login", "/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, fiber.StatusSeeOther, resp.StatusCode)
	require.Equal(b.t, "/dashboard", resp.Header.Get("Location"))
}

func createdID(t *testing.T, resp *http.Response, prefix string) uint {
	t.Helper()
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	var id uint
	_, err := fmt.Sscanf(resp.Header.Get("Location"), prefix+"%d", &id)
	require.NoError(t, err)
	return id
}

func TestLoginFlow(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	b := &browser{t: t, app: newTestApp(t, db, 10)}

	resp, _ := b.get("/")
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = b.get("/contacts")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, body := b.submit("/login", "/login", url.Values{"username": {"alice"}, "password": {""}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please enter both username and password.")

	resp, body = b.submit("/login", "/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid username or password.")
	assert.Contains(t, body, `value="alice"`)

	b.login("alice", "alice-pass")

	resp, body = b.get("/dashboard")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome, Alice!")
	assert.Contains(t, body, "Dashboard - CRM Test")
	assert.NotContains(t, body, `href="/users"`, "sales users get no user management link")

	resp, _ = b.get("/login")
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, _ = b.submit("/dashboard", "/logout", url.Values{})
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = b.get("/dashboard")
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginIsRateLimited(t *testing.T) {
	db := testdb.Open(t)
	b := &browser{t: t, app: newTestApp(t, db, 2)}

	for i := 0; i < 2; i++ {
		resp, _ := b.submit("/login", "/login", url.Values{"username": {"x"}, "password": {"y"}})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := b.submit("/login", "/login", url.Values{"username": {"x"}, "password": {"y"}})
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "Too many login attempts. Please try again later.")
}

func TestPostWithoutTokenIsRejected(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	b := &browser{t: t, app: newTestApp(t, db, 10)}
	b.login("alice", "alice-pass")

	resp, body := b.post("/contacts", url.Values{"first_name": {"A"}, "last_name": {"B"}})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "Invalid or expired security token.")

	n, err := repository.NewContactRepository(db).Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSignedOutPostGoesToLogin(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	b := &browser{t: t, app: newTestApp(t, db, 10)}

	resp, _ := b.post("/contacts", url.Values{"first_name": {"A"}, "last_name": {"B"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	b.login("alice", "alice-pass")
	token := b.token("/contacts/new")
	resp, _ = b.submit("/dashboard", "/logout", url.Values{})
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = b.post("/contacts", url.Values{"_csrf": {token}, "first_name": {"A"}, "last_name": {"B"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	n, err := repository.NewContactRepository(db).Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestContactPages(t *testing.T) {
	db := testdb.Open(t)
	owner := testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	contacts := repository.NewContactRepository(db)
	ctx := context.Background()

	b := &browser{t: t, app: newTestApp(t, db, 10)}
	b.login("alice", "alice-pass")

	// Invalid input re-renders the form with the submitted values.
	resp, body := b.submit("/contacts/new", "/contacts", url.Values{
		"last_name": {"Johnson"},
		"email":     {"not-an-email"},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "First name is required.")
	assert.Contains(t, body, "Email must be a valid email address.")
	assert.Contains(t, body, `value="Johnson"`)

	resp, _ = b.submit("/contacts/new", "/contacts", url.Values{
		"first_name": {"  John "},
		"last_name":  {"Johnson"},
		"email":      {"john@acme.test"},
		"status":     {models.ContactProspect},
	})
	id := createdID(t, resp, "/contacts/")

	_, body = b.follow(resp)
	assert.Contains(t, body, "Contact created successfully.")
	assert.Contains(t, body, "John Johnson")

	rec, err := contacts.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John", rec.FirstName)
	require.NotNil(t, rec.AssignedTo, "owner defaults to the current user")
	assert.Equal(t, owner.ID, *rec.AssignedTo)

	_, body = b.get("/contacts?search=JOHN")
	assert.Contains(t, body, "John Johnson")
	_, body = b.get("/contacts?status=" + models.ContactCustomer)
	assert.Contains(t, body, "No contacts found.")

	resp, _ = b.submit(fmt.Sprintf("/contacts/%d/edit", id), fmt.Sprintf("/contacts/%d", id), url.Values{
		"first_name": {"Johnny"},
		"last_name":  {"Johnson"},
		"status":     {models.ContactCustomer},
	})
	_, body = b.follow(resp)
	assert.Contains(t, body, "Contact updated successfully.")
	assert.Contains(t, body, "Johnny Johnson")

	rec, err = contacts.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ContactCustomer, rec.Status)
	assert.Empty(t, rec.Email, "update overwrites every field")

	resp, _ = b.get(fmt.Sprintf("/contacts/delete?id=%d", id))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	token := b.token("/contacts")
	resp, _ = b.get(fmt.Sprintf("/contacts/delete?id=%d&_csrf=%s", id, url.QueryEscape(token)))
	assert.Equal(t, "/contacts", resp.Header.Get("Location"))
	_, body = b.follow(resp)
	assert.Contains(t, body, "Contact deleted successfully.")

	token = b.token("/contacts")
	resp, _ = b.get(fmt.Sprintf("/contacts/delete?id=%d&_csrf=%s", id, url.QueryEscape(token)))
	_, body = b.follow(resp)
	assert.Contains(t, body, "Contact not found.")
}

func TestMissingRecordsRedirectToList(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	b := &browser{t: t, app: newTestApp(t, db, 10)}
	b.login("alice", "alice-pass")

	for _, tc := range []struct{ path, list, message string }{
		{"/contacts/999", "/contacts", "Contact not found."},
		{"/contacts/abc", "/contacts", "Invalid contact ID."},
		{"/companies/999/edit", "/companies", "Company not found."},
		{"/deals/999", "/deals", "Deal not found."},
		{"/activities/0", "/activities", "Invalid activity ID."},
	} {
		resp, _ := b.get(tc.path)
		assert.Equal(t, tc.list, resp.Header.Get("Location"), tc.path)
		_, body := b.follow(resp)
		assert.Contains(t, body, tc.message, tc.path)

		// The message is shown once.
		_, body = b.get(tc.list)
		assert.NotContains(t, body, tc.message, tc.path)
	}
}

func TestListPagination(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	companies := repository.NewCompanyRepository(db)
	for i := 1; i <= 23; i++ {
		_, err := companies.Create(context.Background(), &models.Company{Name: fmt.Sprintf("Company %02d", i)})
		require.NoError(t, err)
	}

	b := &browser{t: t, app: newTestApp(t, db, 10)}
	b.login("alice", "alice-pass")

	_, body := b.get("/companies")
	assert.Contains(t, body, "Showing page 1 of 3 (23 records)")

	_, body = b.get("/companies?page=3")
	assert.Contains(t, body, "Showing page 3 of 3 (23 records)")
	assert.Contains(t, body, "Company 01", "oldest rows are on the last page")

	_, body = b.get("/companies?page=99")
	assert.Contains(t, body, "Showing page 3 of 3 (23 records)")

	_, body = b.get("/companies?search=company+0")
	assert.Contains(t, body, "Company 09")
	assert.NotContains(t, body, "Company 10")
}

func TestDealValidation(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	b := &browser{t: t, app: newTestApp(t, db, 10)}
	b.login("alice", "alice-pass")

	resp, body := b.submit("/deals/new", "/deals", url.Values{
		"title":       {"Big deal"},
		"value":       {"abc"},
		"probability": {"150"},
		"contact_id":  {"42"},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Value must be a number.")
	assert.Contains(t, body, "Probability must be a whole number between 0 and 100.")
	assert.Contains(t, body, "Selected contact does not exist.")

	resp, _ = b.submit("/deals/new", "/deals", url.Values{
		"title":               {"Big deal"},
		"value":               {"12500.50"},
		"probability":         {"60"},
		"stage":               {models.StageProposal},
		"expected_close_date": {"2026-12-01"},
	})
	id := createdID(t, resp, "/deals/")

	_, body = b.follow(resp)
	assert.Contains(t, body, "$12,500.50")
	assert.Contains(t, body, "Proposal")
	assert.Contains(t, body, "Dec 01, 2026")

	deal, err := repository.NewDealRepository(db).Find(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 60, deal.Probability)
}

func TestActivityStatusRules(t *testing.T) {
	db := testdb.Open(t)
	owner := testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	activities := repository.NewActivityRepository(db)
	ctx := context.Background()

	b := &browser{t: t, app: newTestApp(t, db, 10)}
	b.login("alice", "alice-pass")

	resp, _ := b.submit("/activities/new", "/activities", url.Values{
		"type":         {models.ActivityCall},
		"subject":      {"Intro call"},
		"scheduled_at": {"2026-11-02T10:30"},
	})
	id := createdID(t, resp, "/activities/")

	rec, err := activities.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityScheduled, rec.Status)
	assert.Equal(t, owner.ID, *rec.AssignedTo)

	page := fmt.Sprintf("/activities/%d", id)
	resp, _ = b.submit(page, page+"/complete", url.Values{})
	_, body := b.follow(resp)
	assert.Contains(t, body, "Activity marked as completed.")

	rec, err = activities.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityCompleted, rec.Status)
	assert.NotNil(t, rec.CompletedAt)

	resp, body = b.submit(page+"/edit", page, url.Values{
		"type":    {models.ActivityCall},
		"subject": {"Intro call"},
		"status":  {models.ActivityScheduled},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Only scheduled activities can change status.")
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	db := testdb.Open(t)
	admin := testdb.User(t, db, "root", "root-pass", models.RoleAdmin, models.UserActive)
	testdb.User(t, db, "alice", "alice-pass", models.RoleSales, models.UserActive)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	sales := &browser{t: t, app: newTestApp(t, db, 10)}
	sales.login("alice", "alice-pass")
	resp, body := sales.get("/users")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "You do not have permission to access this page.")

	b := &browser{t: t, app: sales.app}
	b.login("root", "root-pass")
	resp, body = b.get("/users")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alice@example.com")

	resp, body = b.submit("/users/new", "/users", url.Values{
		"username":         {"bob"},
		"email":            {"alice@example.com"},
		"role":             {models.RoleSales},
		"status":           {models.UserActive},
		"password":         {"bob-pass"},
		"confirm_password": {"other"},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Email is already registered.")
	assert.Contains(t, body, "Confirm password does not match.")
	assert.NotContains(t, body, "bob-pass")

	resp, _ = b.submit("/users/new", "/users", url.Values{
		"username":         {"bob"},
		"email":            {"bob@example.com"},
		"first_name":       {"Bob"},
		"role":             {models.RoleManager},
		"status":           {models.UserActive},
		"password":         {"bob-pass"},
		"confirm_password": {"bob-pass"},
	})
	bobID := createdID(t, resp, "/users/")

	_, err := users.Authenticate(ctx, "bob", "bob-pass")
	require.NoError(t, err)

	token := b.token("/users")
	resp, _ = b.get(fmt.Sprintf("/users/delete?id=%d&_csrf=%s", admin.ID, url.QueryEscape(token)))
	_, body = b.follow(resp)
	assert.Contains(t, body, "You cannot delete your own account.")

	token = b.token("/users")
	resp, _ = b.get(fmt.Sprintf("/users/delete?id=%d&_csrf=%s", bobID, url.QueryEscape(token)))
	_, body = b.follow(resp)
	assert.Contains(t, body, "User deleted successfully.")

	ok, err := users.Exists(ctx, bobID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEditingOwnAccountUpdatesHeader(t *testing.T) {
	db := testdb.Open(t)
	admin := testdb.User(t, db, "root", "root-pass", models.RoleAdmin, models.UserActive)
	b := &browser{t: t, app: newTestApp(t, db, 10)}
	b.login("root", "root-pass")

	page := fmt.Sprintf("/users/%d", admin.ID)
	resp, _ := b.submit(page+"/edit", page, url.Values{
		"username":   {"root"},
		"email":      {"root@example.com"},
		"first_name": {"Grace"},
		"last_name":  {"Hopper"},
		"role":       {models.RoleAdmin},
		"status":     {models.UserActive},
	})
	require.Equal(t, page, resp.Header.Get("Location"))

	_, body := b.get("/dashboard")
	assert.Contains(t, body, "Welcome, Grace!")
	assert.Contains(t, body, "<strong>Grace Hopper</strong>")
}

func TestUnknownPage(t *testing.T) {
	db := testdb.Open(t)
	b := &browser{t: t, app: newTestApp(t, db, 10)}

	resp, body := b.get("/no-such-page")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "The requested page was not found.")
}
