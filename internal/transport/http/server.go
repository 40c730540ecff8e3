package http

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"

	"produce-lens/internal/bootstrap"
	"produce-lens/internal/transport/http/handler"
	"produce-lens/internal/transport/http/middleware"
	"produce-lens/internal/transport/http/response"
)

//go:embed web/*.html
var webFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	funcs := template.FuncMap{
		// previews are data URIs built server-side from the decoded upload
		"safeURL": func(s string) template.URL { return template.URL(s) },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(webFS, "web/*.html"))
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = app.Produce.MaxBytes()
	router.SetHTMLTemplate(Templates())

	healthHandler := handler.NewHealthHandler(app)
	pageHandler := handler.NewPageHandler(app.Produce, app.Config.App.Title)
	classifyHandler := handler.NewClassifyHandler(app.Produce)

	router.GET("/", pageHandler.Index)
	router.POST("/", pageHandler.Submit)
	router.GET("/healthz", healthHandler.Check)
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, 404, response.CodeNotFound, "route not found")
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthToken(app.Config.Auth.APIToken))
	v1.POST("/classify", classifyHandler.Classify)
	if app.Predictions != nil {
		predictionsHandler := handler.NewPredictionsHandler(app.Predictions)
		v1.GET("/predictions", predictionsHandler.List)
	}

	return router
}
