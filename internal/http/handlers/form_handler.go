package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/tbourn/go-form-collector/internal/domain"
	"github.com/tbourn/go-form-collector/internal/http/middleware"
)

//go:embed templates/form.html
var templatesFS embed.FS

var formTemplate = template.Must(template.ParseFS(templatesFS, "templates/form.html"))

type formPage struct {
	Title      string
	Nonce      string
	NameMaxLen int
}

// Form godoc
// @ID          form
// @Summary     Submission form
// @Description Serves the HTML page with the name/email form.
// @Tags        Form
// @Produce     html
// @Success     200  {string}  string  "HTML page"
// @Router      / [get]
func (h *Handlers) Form(c *gin.Context) {
	nonce := middleware.HTMLPolicy(c)
	c.Render(http.StatusOK, render.HTML{
		Template: formTemplate,
		Name:     "form.html",
		Data: formPage{
			Title:      "Demo Form",
			Nonce:      nonce,
			NameMaxLen: domain.NameMaxLen,
		},
	})
}
