package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"habitrack-backend/config"
	"habitrack-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	responses := mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	caching := responses.Cache()

	api := r.Group("/api")
	api.Use(rateLimiter, responses.Invalidate())
	{
		api.GET("/properties", caching, h.ListProperties)
		api.POST("/properties", h.CreateProperty)
		api.GET("/properties/:id", caching, h.GetProperty)
		api.PUT("/properties/:id", h.UpdateProperty)
		api.DELETE("/properties/:id", h.DeleteProperty)
		api.GET("/properties/:id/rooms", caching, h.GetRooms)

		api.GET("/session/property", h.GetCurrentProperty)
		api.PUT("/session/property", h.PutCurrentProperty)
		api.DELETE("/session/property", h.DeleteCurrentProperty)

		api.GET("/assets", caching, h.ListAssets)
		api.POST("/assets", h.CreateAsset)
		api.GET("/assets/:id", caching, h.GetAsset)
		api.PUT("/assets/:id", h.UpdateAsset)
		api.DELETE("/assets/:id", h.DeleteAsset)

		api.GET("/views/assets-by-room", caching, h.AssetsByRoom)
		api.GET("/views/properties-by-country", caching, h.PropertiesByCountry)
		api.GET("/categories", caching, GetCategories)

		api.GET("/profile", h.GetProfile)
		api.POST("/profile", h.CreateProfile)
		api.PUT("/profile", h.UpdateProfile)
		api.PUT("/profile/language", h.PutLanguage)
		api.DELETE("/profile", h.DeleteProfile)

		api.POST("/auth/otp", h.SendOTP)
		api.POST("/auth/otp/verify", h.VerifyOTP)
		api.POST("/auth/logout", h.Logout)
		api.GET("/auth/session", h.GetSession)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
