// Package view renders storefront pages as HTML from embedded templates, or
// as JSON view models for clients that ask for application/json.
package view

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unrolled/render"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/money"
	"github.com/noah-isme/storefront-toko/internal/security"
)

//go:embed templates/*.html
var templates embed.FS

// Page is the data handed to every template. Data holds the page model; it is
// also the JSON body for API clients.
type Page struct {
	Title     string
	CartCount int
	Errors    []string
	Notice    string
	CSRFToken string
	IdemKey   string
	AssetBase string
	Data      any
}

// Options configures the renderer.
type Options struct {
	Money       money.Formatter
	AssetBase   string
	Development bool
	Logger      zerolog.Logger
}

// Renderer writes pages and errors.
type Renderer struct {
	r         *render.Render
	assetBase string
	logger    zerolog.Logger
}

// New compiles the embedded templates.
func New(opts Options) *Renderer {
	m := opts.Money
	if m.Symbol == "" {
		m = money.Default
	}
	base := strings.TrimRight(opts.AssetBase, "/")
	return &Renderer{
		r: render.New(render.Options{
			Directory:     "templates",
			FileSystem:    &render.EmbedFileSystem{FS: templates},
			Layout:        "layout",
			Extensions:    []string{".html"},
			IsDevelopment: opts.Development,
			Funcs: []template.FuncMap{{
				"money": m.Format,
				"asset": func(path string) string {
					if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || base == "" {
						return path
					}
					return base + "/" + strings.TrimLeft(path, "/")
				},
				"add": func(a, b int) int { return a + b },
				"until": func(count int) []int {
					items := make([]int, count)
					for i := 0; i < count; i++ {
						items[i] = i + 1
					}
					return items
				},
			}},
		}),
		assetBase: base,
		logger:    opts.Logger,
	}
}

// WantsJSON reports whether the client prefers a JSON response.
func WantsJSON(r *http.Request) bool { return common.WantsJSON(r) }

// Render writes the page as HTML using template name, or as JSON.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	if WantsJSON(r) {
		body := map[string]any{"data": page.Data}
		if len(page.Errors) > 0 {
			body["errors"] = page.Errors
		}
		if page.Notice != "" {
			body["notice"] = page.Notice
		}
		common.JSON(w, status, body)
		return
	}
	if page.CSRFToken == "" {
		page.CSRFToken = security.Token(r.Context())
	}
	if page.IdemKey == "" {
		page.IdemKey = uuid.NewString()
	}
	page.AssetBase = v.assetBase
	if err := v.r.HTML(w, status, name, page); err != nil {
		v.logger.Error().Err(err).Str("template", name).Msg("render template")
	}
}

// Error renders err with the status its AppError mapping carries.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := common.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		v.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	if WantsJSON(r) {
		common.WriteError(w, err)
		return
	}
	page := Page{Title: "Something went wrong", Errors: Messages(err), Data: appErr}
	v.Render(w, r, appErr.HTTPStatus, "error", page)
}

// Redirect sends browsers to target after a form post. JSON clients get
// 204 No Content instead.
func (v *Renderer) Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if WantsJSON(r) {
		common.NoContent(w)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Messages flattens an error into user-facing lines. Validation errors yield
// one line per field.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	appErr := common.AsAppError(err)
	if fields, ok := appErr.Details.([]common.FieldError); ok && len(fields) > 0 {
		out := make([]string, 0, len(fields))
		for _, f := range fields {
			out = append(out, f.Message)
		}
		return out
	}
	return []string{appErr.Message}
}
