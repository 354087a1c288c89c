package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maxim190404/foodgram-st/internal/middleware"
	"github.com/maxim190404/foodgram-st/pkg/logger"
)

type Router struct {
	Users       *UserHandler
	Recipes     *RecipeHandler
	Ingredients *IngredientHandler
	Auth        *middleware.JWTConfig
	Logger      *logger.Logger
}

// Engine builds the gin engine with all API routes under /api.
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.Logger))
	engine.Use(middleware.CORS())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	engine.GET("/s/:token", r.Recipes.ResolveShortLink)

	required := middleware.NewJWTAuth(r.Auth)
	optional := middleware.NewOptionalJWTAuth(r.Auth)

	api := engine.Group("/api")
	{
		auth := api.Group("/auth/token")
		{
			auth.POST("/login", r.Users.Login)
			auth.POST("/logout", required, r.Users.Logout)
		}

		users := api.Group("/users")
		{
			users.GET("", optional, r.Users.List)
			users.POST("", r.Users.Register)
			users.GET("/me", required, r.Users.Me)
			users.PUT("/me/avatar", required, r.Users.SetAvatar)
			users.DELETE("/me/avatar", required, r.Users.DeleteAvatar)
			users.POST("/set_password", required, r.Users.SetPassword)
			users.GET("/subscriptions", required, r.Users.Subscriptions)
			users.GET("/:id", optional, r.Users.Get)
			users.POST("/:id/subscribe", required, r.Users.Subscribe)
			users.DELETE("/:id/subscribe", required, r.Users.Unsubscribe)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", r.Ingredients.List)
			ingredients.GET("/:id", r.Ingredients.Get)
		}

		recipes := api.Group("/recipes")
		{
			recipes.GET("", optional, r.Recipes.List)
			recipes.POST("", required, r.Recipes.Create)
			recipes.GET("/download_shopping_cart", required, r.Recipes.DownloadShoppingCart)
			recipes.GET("/:id", optional, r.Recipes.Get)
			recipes.PATCH("/:id", required, r.Recipes.Update)
			recipes.DELETE("/:id", required, r.Recipes.Delete)
			recipes.GET("/:id/get-link", r.Recipes.GetLink)
			recipes.POST("/:id/favorite", required, r.Recipes.AddFavorite)
			recipes.DELETE("/:id/favorite", required, r.Recipes.RemoveFavorite)
			recipes.POST("/:id/shopping_cart", required, r.Recipes.AddToCart)
			recipes.DELETE("/:id/shopping_cart", required, r.Recipes.RemoveFromCart)
		}
	}

	return engine
}
