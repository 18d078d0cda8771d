package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"iconbuzzer/internal/authz"
	"iconbuzzer/internal/handlers"
	"iconbuzzer/internal/middleware"
	"iconbuzzer/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	auth services.AuthService,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	categoryHandler *handlers.CategoryHandler,
	subCategoryHandler *handlers.SubCategoryHandler,
	iconHandler *handlers.IconHandler,
) *gin.Engine {

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": http.StatusOK, "message": "iconbuzzer api"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": http.StatusOK, "message": "ok"})
	})

	api := r.Group("/api")

	// ---- public
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.GET("/sent-otp", authHandler.SendOTP)
		authGroup.POST("/verify-otp", authHandler.VerifyOTP)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/forgot-password", authHandler.ForgotPassword)
		authGroup.PATCH("/reset-password", authHandler.ResetPassword)
		authGroup.GET("/verify", middleware.Gate(auth), authHandler.Verify)
	}

	// public catalog reads
	category := api.Group("/category")
	{
		category.GET("/list", categoryHandler.List)
		category.GET("/pagelist", categoryHandler.PageList)
		category.GET("/by/:id", categoryHandler.GetByID)
	}
	subcategory := api.Group("/subcategory")
	{
		subcategory.GET("/list/:categoryId", subCategoryHandler.ListByCategory)
		subcategory.GET("/pagelist/:categoryId", subCategoryHandler.PageList)
		subcategory.GET("/by/:id", subCategoryHandler.GetByID)
	}
	icon := api.Group("/icon")
	{
		icon.GET("/pagelist/:subCategoryId", iconHandler.PageList)
		icon.GET("/by/:id", iconHandler.GetByID)
		icon.PATCH("/download/:id", iconHandler.Download)
	}

	// ---- protected
	user := api.Group("/user", middleware.Gate(auth))
	{
		user.GET("/me", accountHandler.Me)
		user.PATCH("/update-me", accountHandler.UpdateMe)
		user.PATCH("/update-password", authHandler.UpdatePassword)

		admin := user.Group("", middleware.RequireRoles(authz.RoleAdmin))
		{
			admin.GET("/list", accountHandler.List)
			admin.GET("/pagelist", accountHandler.PageList)
			admin.GET("/by/:id", accountHandler.GetByID)
			admin.PATCH("/status/:id", accountHandler.SetStatus)
			admin.DELETE("/delete", accountHandler.Delete)
		}
	}

	// catalog writes are admin-only
	categoryAdmin := api.Group("/category", middleware.Gate(auth), middleware.RequireRoles(authz.RoleAdmin))
	{
		categoryAdmin.POST("", categoryHandler.Create)
		categoryAdmin.PUT("/:id", categoryHandler.Update)
		categoryAdmin.PATCH("/status/:id", categoryHandler.SetStatus)
		categoryAdmin.DELETE("/:id", categoryHandler.Delete)
	}
	subcategoryAdmin := api.Group("/subcategory", middleware.Gate(auth), middleware.RequireRoles(authz.RoleAdmin))
	{
		subcategoryAdmin.POST("", subCategoryHandler.Create)
		subcategoryAdmin.PUT("/:id", subCategoryHandler.Update)
		subcategoryAdmin.PATCH("/status/:id", subCategoryHandler.SetStatus)
		subcategoryAdmin.DELETE("/:id", subCategoryHandler.Delete)
	}
	iconAuthed := api.Group("/icon", middleware.Gate(auth))
	{
		iconAuthed.PATCH("/like/:id", iconHandler.Like)

		iconAdmin := iconAuthed.Group("", middleware.RequireRoles(authz.RoleAdmin))
		{
			iconAdmin.POST("", iconHandler.Create)
			iconAdmin.PUT("/:id", iconHandler.Update)
			iconAdmin.PATCH("/status/:id", iconHandler.SetStatus)
			iconAdmin.DELETE("/:id", iconHandler.Delete)
		}
	}

	return r
}
