package dashboard

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
)

//go:embed templates/index.tmpl
var templatesFS embed.FS

// Router builds the gin engine serving the page, the JSON API, the websocket
// feed, health and metrics.
func (d *Dashboard) Router() (*gin.Engine, error) {
	router := gin.New()
	router.Use(ginzap.Ginzap(d.logger.Logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(d.logger.Logger, true))
	if len(d.cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: d.cfg.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}))
	}
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	tmpl, err := template.New("dashboard").ParseFS(templatesFS, "templates/index.tmpl")
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/", d.handleIndex)
	router.GET("/api/figures", d.handleFigures)
	router.POST("/api/refresh", d.handleRefresh)
	router.GET("/ws", d.handleWS)
	router.GET("/healthz", d.handleHealth)
	router.GET("/metrics", gin.WrapH(d.monitor.Handler()))

	return router, nil
}

func (d *Dashboard) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.tmpl", gin.H{
		"Title":             d.cfg.Title,
		"RefreshIntervalMs": d.cfg.RefreshInterval.Milliseconds(),
	})
}

func (d *Dashboard) handleFigures(c *gin.Context) {
	snap := d.Latest()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data yet"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (d *Dashboard) handleRefresh(c *gin.Context) {
	if !d.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "refresh rate exceeded"})
		return
	}
	snap, err := d.scheduler.Trigger()
	if err != nil {
		c.JSON(http.StatusBadGateway, snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (d *Dashboard) handleWS(c *gin.Context) {
	d.hub.ServeWS(c.Writer, c.Request, d.Latest())
}

func (d *Dashboard) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"ticks":   d.scheduler.Ticks(),
		"clients": d.hub.Clients(),
		"uptime":  time.Since(d.started).Round(time.Second).String(),
	}
	if snap := d.Latest(); snap != nil {
		body["lastTick"] = snap.Tick
		if snap.Error != nil {
			body["lastError"] = snap.Error
		}
	}
	c.JSON(http.StatusOK, body)
}
