package http

import (
	"net/http"

	"tctc-backend/http/handlers"
	"tctc-backend/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware
func SetupRoutes() {
	public := middleware.EnableCORS
	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.EnableCORS(middleware.Protect(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.EnableCORS(middleware.Protect(middleware.Admin(h)))
	}

	// Method-qualified patterns never match OPTIONS, so preflight gets its
	// own catch-all.
	http.HandleFunc("OPTIONS /api/", public(func(w http.ResponseWriter, r *http.Request) {}))

	// User & auth APIs
	http.HandleFunc("POST /api/users/register", public(handlers.RegisterUser))
	http.HandleFunc("POST /api/users/login", public(handlers.LoginUser))
	http.HandleFunc("GET /api/users/verify/{token}", public(handlers.VerifyEmail))
	http.HandleFunc("POST /api/users/forgot-password", public(handlers.ForgotPassword))
	http.HandleFunc("PUT /api/users/reset-password/{token}", public(handlers.ResetPassword))
	http.HandleFunc("GET /api/users/profile", auth(handlers.GetUserProfile))
	http.HandleFunc("PUT /api/users/profile", auth(handlers.UpdateUserProfile))
	http.HandleFunc("POST /api/users/make-admin", auth(handlers.MakeAdminByCode))
	http.HandleFunc("GET /api/users", admin(handlers.GetAllUsers))
	http.HandleFunc("PUT /api/users/{id}/role", admin(handlers.UpdateUserRole))
	http.HandleFunc("DELETE /api/users/{id}", admin(handlers.DeleteUser))
	http.HandleFunc("POST /api/contact", public(handlers.SendContactMessage))

	// Course APIs
	http.HandleFunc("GET /api/courses", public(handlers.GetCourses))
	http.HandleFunc("GET /api/courses/{id}", public(handlers.GetCourseByID))
	http.HandleFunc("POST /api/courses", admin(handlers.CreateCourse))
	http.HandleFunc("PUT /api/courses/{id}", admin(handlers.UpdateCourse))
	http.HandleFunc("DELETE /api/courses/{id}", admin(handlers.DeleteCourse))

	// Admission APIs
	http.HandleFunc("POST /api/admissions", auth(handlers.ApplyForAdmission))
	http.HandleFunc("GET /api/admissions/my", auth(handlers.GetMyAdmissions))
	http.HandleFunc("GET /api/admissions", admin(handlers.GetAllAdmissions))
	http.HandleFunc("GET /api/admissions/{id}", auth(handlers.GetAdmissionByID))

	// Payment APIs
	http.HandleFunc("GET /api/payments/methods", public(handlers.GetPaymentChannels))
	http.HandleFunc("POST /api/payments/methods", admin(handlers.AddPaymentChannel))
	http.HandleFunc("DELETE /api/payments/methods/{id}", admin(handlers.DeletePaymentChannel))
	http.HandleFunc("POST /api/payments", auth(handlers.CreatePayment))
	http.HandleFunc("GET /api/payments", admin(handlers.GetAllPayments))
	http.HandleFunc("GET /api/payments/export", admin(handlers.ExportPayments))
	http.HandleFunc("GET /api/payments/my/downloads", auth(handlers.GetMyDownloads))
	http.HandleFunc("PUT /api/payments/{id}/verify", admin(handlers.VerifyPayment))
	http.HandleFunc("PUT /api/payments/{id}/reject", admin(handlers.RejectPayment))
	http.HandleFunc("DELETE /api/payments/{id}", admin(handlers.DeletePayment))

	// Product APIs
	http.HandleFunc("GET /api/products", public(handlers.GetProducts))
	http.HandleFunc("POST /api/products", admin(handlers.CreateProduct))
	http.HandleFunc("GET /api/products/{id}/download", auth(handlers.DownloadProduct))
	http.HandleFunc("DELETE /api/products/{id}", admin(handlers.DeleteProduct))

	// Online class APIs
	http.HandleFunc("POST /api/classes", admin(handlers.AddOnlineClass))
	http.HandleFunc("GET /api/classes/course/{courseId}", auth(handlers.GetClassesByCourse))
	http.HandleFunc("DELETE /api/classes/{id}", admin(handlers.DeleteOnlineClass))

	// Dashboard APIs
	http.HandleFunc("GET /api/dashboard", auth(handlers.GetStudentDashboard))
	http.HandleFunc("GET /api/dashboard/receipts/{id}", auth(handlers.GetReceipt))
	http.HandleFunc("GET /api/dashboard/receipts/{id}/pdf", auth(handlers.DownloadReceiptPDF))
	http.HandleFunc("GET /api/dashboard/stats", admin(handlers.GetAdminStats))
}
