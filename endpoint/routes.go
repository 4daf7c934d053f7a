package endpoint

import (
	"github.com/ariebrainware/medlink/middleware"
	"github.com/ariebrainware/medlink/model"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every MedLink route on r. The database and scheduler
// middlewares must already be installed on r.
func RegisterRoutes(r gin.IRouter, authLimit middleware.RateLimitConfig) {
	auth := r.Group("/auth")
	auth.POST("/register", middleware.RateLimiter(authLimit), Register)
	auth.POST("/login", middleware.RateLimiter(authLimit), Login)
	auth.POST("/forgot-password", middleware.RateLimiter(authLimit), ForgotPassword)
	auth.POST("/reset-password", middleware.RateLimiter(authLimit), ResetPassword)
	r.GET("/token/validate", ValidateToken)

	r.GET("/hospitals", ListHospitals)
	r.GET("/hospitals/:id", GetHospital)
	r.GET("/specializations", ListSpecializations)
	r.GET("/doctors", ListDoctors)

	protected := r.Group("/")
	protected.Use(middleware.ValidateLoginToken(), middleware.EndpointCallLogger())
	{
		protected.DELETE("/auth/logout", Logout)
		protected.PATCH("/user", UpdateUser)

		protected.GET("/appointments/slots", GetAvailableSlots)
		protected.POST("/appointments", CreateAppointment)
		protected.GET("/appointments/me", ListMyAppointments)
		protected.PATCH("/appointments/:id/status", UpdateAppointmentStatus)
		protected.POST("/reviews", SubmitReview)

		doctor := protected.Group("/doctor")
		doctor.Use(middleware.RequireRole(model.RoleIDDoctor))
		{
			doctor.GET("/me", GetMyDoctorProfile)
			doctor.PUT("/availability", ReplaceMyAvailability)
			doctor.POST("/profile-update-request", RequestProfileUpdate)
		}

		admin := protected.Group("/")
		admin.Use(middleware.RequireRole(model.RoleIDAdmin))
		{
			admin.GET("/doctors/stats", DoctorStats)
			admin.GET("/doctors/requests", ListChangeRequests)
			admin.POST("/doctors/requests/:id/process", ProcessChangeRequest)
			admin.POST("/doctors", CreateDoctor)
			admin.PUT("/doctors/:id", UpdateDoctor)
			admin.DELETE("/doctors/:id", DeleteDoctor)

			admin.POST("/hospitals", CreateHospital)
			admin.PUT("/hospitals/:id", UpdateHospital)
			admin.DELETE("/hospitals/:id", DeleteHospital)

			admin.POST("/specializations", CreateSpecialization)
			admin.DELETE("/specializations/:id", DeleteSpecialization)

			admin.GET("/users", ListUsers)
			admin.GET("/users/:id", GetUserInfo)
			admin.PATCH("/users/:id", AdminUpdateUser)
			admin.DELETE("/users/:id", DeleteUser)
		}
	}

	r.GET("/doctors/:id", GetDoctor)
}
