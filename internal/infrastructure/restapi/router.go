package restapi

import (
	"net/http"

	"honeyfarmers/internal/app/port"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators of the router.
type Deps struct {
	Client         port.GameClient
	Logger         *zap.Logger
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter sets up and returns the Gin router.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(deps.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(RequestID())
	if deps.Logger != nil {
		router.Use(ZapLoggerMiddleware(deps.Logger))
	}
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := NewGameHandler(deps.Client)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/networks", h.Networks)

		v1.GET("/session", h.Session)
		v1.POST("/session/network", h.SwitchNetwork)
		v1.POST("/session/login", h.Login)
		v1.POST("/session/logout", h.Logout)

		v1.GET("/state", h.State)
		v1.POST("/state/refresh", h.Refresh)
		v1.GET("/wallet/balances", h.WalletBalances)

		actions := v1.Group("/actions")
		actions.POST("/claim", h.Claim)
		actions.POST("/feed", h.FeedBee)
		actions.POST("/upgrade", h.UpgradeHive)
		actions.POST("/unstake", h.Unstake)
		actions.POST("/stake", h.Stake)
		actions.POST("/deposit", h.Deposit)
		actions.POST("/withdraw", h.Withdraw)
	}

	return router
}
