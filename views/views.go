// Package views holds the page templates and the helpers they call.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"

	"crmportal/utils"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templates embed.FS

// NewEngine parses the embedded templates. Pages render inside
// "layouts/main"; the login and error pages use "layouts/auth".
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(Funcs())
	return engine
}

// Funcs is the template function map.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"statusBadge": utils.StatusBadge,
		"stageBadge":  utils.StageBadge,
		"label":       utils.Label,
		"alertClass":  utils.AlertClass,
		"formatDate":  utils.FormatDate,
		"formatTime":  utils.FormatDateTime,
		"currency":    utils.FormatCurrency,
		"placeholder": utils.Placeholder,
		"number":      number,
		"ref":         ref,
		"pageURL":     pageURL,
		"deleteURL":   deleteURL,
		"idString":    idString,
	}
}

func number(n int64) string {
	return humanize.Comma(n)
}

// ref dereferences an optional id; unset is 0.
func ref(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// pageURL keeps the active filters while moving to page.
func pageURL(base, query string, page int) string {
	values, _ := url.ParseQuery(query)
	if values == nil {
		values = url.Values{}
	}
	values.Set("page", strconv.Itoa(page))
	return base + "?" + values.Encode()
}

// deleteURL builds the confirmation link of a delete button.
func deleteURL(base string, id uint, token string) string {
	values := url.Values{}
	values.Set("id", idString(id))
	values.Set("_csrf", token)
	return base + "/delete?" + values.Encode()
}
