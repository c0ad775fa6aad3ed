package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/api/handlers"
	"github.com/andresuchdata/pharmadesk/internal/api/middleware"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/metrics"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Sales      *service.SaleCoordinator
	Receipts   *service.ReceiptService
	Debts      *service.DebtService
	Medicines  *service.MedicineService
	Alerts     *service.AlertService
	Analytics  *service.AnalyticsService
	Pharmacies *service.PharmacyService
}

func NewRouter(services *Services, tokens *middleware.Tokens, allowedOrigins []string) *gin.Engine {
	handlers.RegisterValidation()

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if services == nil {
		return router
	}

	apiGroup := router.Group("/api/v1", middleware.Auth(tokens))

	staff := apiGroup.Group("", middleware.RequirePharmacy())
	{
		if services.Sales != nil {
			saleHandler := handlers.NewSaleHandler(services.Sales)
			staff.POST("/sales", saleHandler.RecordSale)
		}

		if services.Receipts != nil {
			receiptHandler := handlers.NewReceiptHandler(services.Receipts)
			staff.GET("/receipts", receiptHandler.ListReceipts)
			staff.GET("/receipts/:id", receiptHandler.GetReceipt)
		}

		if services.Debts != nil {
			debtHandler := handlers.NewDebtHandler(services.Debts)
			staff.GET("/debts", debtHandler.ListUnpaidDebts)
			staff.POST("/debts/:id/pay", debtHandler.MarkDebtPaid)
		}

		if services.Medicines != nil {
			medicineHandler := handlers.NewMedicineHandler(services.Medicines)
			medicines := staff.Group("/medicines")
			{
				medicines.GET("", medicineHandler.ListMedicines)
				medicines.POST("", medicineHandler.CreateMedicine)
				medicines.GET("/:id", medicineHandler.GetMedicine)
				medicines.PUT("/:id", medicineHandler.UpdateMedicine)
				medicines.DELETE("/:id", medicineHandler.DeleteMedicine)
				medicines.POST("/:id/restock", medicineHandler.Restock)
			}
		}

		if services.Alerts != nil {
			notificationHandler := handlers.NewNotificationHandler(services.Alerts)
			staff.GET("/notifications", notificationHandler.ListNotifications)
			staff.POST("/notifications/:id/confirm", notificationHandler.ConfirmNotification)
			staff.POST("/alerts/scan", notificationHandler.RunAlertScan)
		}

		if services.Analytics != nil {
			analyticsHandler := handlers.NewAnalyticsHandler(services.Analytics)
			staff.GET("/analytics/dashboard", analyticsHandler.GetDashboard)
		}
	}

	admin := apiGroup.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	{
		if services.Pharmacies != nil {
			pharmacyHandler := handlers.NewPharmacyHandler(services.Pharmacies)
			admin.GET("/pharmacies", pharmacyHandler.ListPharmacies)
			admin.POST("/pharmacies", pharmacyHandler.CreatePharmacy)
			admin.GET("/pharmacies/:id", pharmacyHandler.GetPharmacy)
			admin.POST("/pharmacies/:id/staff", pharmacyHandler.AddStaff)
		}

		if services.Receipts != nil {
			receiptHandler := handlers.NewReceiptHandler(services.Receipts)
			admin.GET("/receipts", receiptHandler.ListAllReceipts)
		}

		if services.Medicines != nil {
			medicineHandler := handlers.NewMedicineHandler(services.Medicines)
			admin.GET("/medicines", medicineHandler.ListAllMedicines)
		}

		if services.Debts != nil {
			debtHandler := handlers.NewDebtHandler(services.Debts)
			admin.GET("/debts", debtHandler.ListAllUnpaidDebts)

			adminDebts := admin.Group("/admin-debts")
			{
				adminDebts.GET("", debtHandler.ListAdminDebts)
				adminDebts.POST("", debtHandler.CreateAdminDebt)
				adminDebts.PUT("/:id", debtHandler.UpdateAdminDebt)
				adminDebts.DELETE("/:id", debtHandler.DeleteAdminDebt)
				adminDebts.POST("/:id/toggle-paid", debtHandler.ToggleAdminDebtPaid)
			}
		}

		if services.Analytics != nil {
			analyticsHandler := handlers.NewAnalyticsHandler(services.Analytics)
			admin.GET("/analytics/dashboard", analyticsHandler.GetAdminDashboard)
			admin.GET("/analytics/profit", analyticsHandler.GetProfitAnalytics)
		}

		if services.Alerts != nil {
			notificationHandler := handlers.NewNotificationHandler(services.Alerts)
			admin.GET("/notifications", notificationHandler.ListAllNotifications)
			admin.POST("/alerts/scan", notificationHandler.RunAdminAlertScan)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
