package routes

import (
	"time"

	"edufolio/api/handler"
	"edufolio/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	AuthMiddleware middleware.AuthMiddleware
	CodeRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		AuthMiddleware: authMiddleware,
		CodeRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.POST("/auth/register", r.Auth.Register, r.CodeRate.Middleware())
	e.POST("/auth/register/code", r.Auth.SendRegisterCode, r.LoginRate.Middleware())
	e.POST("/auth/register/verify", r.Auth.VerifyRegister, r.CodeRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/password/forgot", r.Auth.PasswordForgot, r.LoginRate.Middleware())
	e.POST("/auth/password/reset", r.Auth.PasswordReset, r.CodeRate.Middleware())
	e.POST("/auth/refresh", r.Auth.Refresh, r.CodeRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, r.AuthMiddleware.RequireAuth)
	e.POST("/auth/logout-all", r.Auth.LogoutAll, r.AuthMiddleware.RequireAuth)

	e.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)
	e.PATCH("/me", r.Auth.UpdateProfile, r.AuthMiddleware.RequireAuth)
	e.POST("/me/email/code", r.Auth.SendProfileCode, r.AuthMiddleware.RequireAuth, r.LoginRate.Middleware())
	e.POST("/me/verify", r.Auth.VerifyProfileUpdate, r.AuthMiddleware.RequireAuth, r.CodeRate.Middleware())

	e.GET("/admin/users", r.Auth.AdminListUsers, r.AuthMiddleware.RequireAuth, middleware.RequireRole("admin"))
	e.PATCH("/admin/users/:id/role", r.Auth.AdminUpdateUserRole, r.AuthMiddleware.RequireAuth, middleware.RequireRole("admin"))
}
