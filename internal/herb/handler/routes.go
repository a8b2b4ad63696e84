package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/middleware"
)

// StreamPath SSE路由，需排除在gzip之外
const StreamPath = "/api/v1/events/stream"

// RegisterRoutes 注册 /api/v1 下的全部业务路由
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtSecret string) {
	v1 := r.Group("/api/v1")

	// 认证 (无需登录)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
	}

	// 公开扫码与证书核验
	v1.GET("/qr/scan/:hash", h.QR.Scan)
	v1.GET("/qr/:id/image", h.QR.Image)
	v1.GET("/certificates/verify/:number", h.Certificate.VerifyCertificate)

	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtSecret))

	authorized.GET("/auth/me", h.Auth.Me)

	species := authorized.Group("/species")
	{
		species.GET("", h.Species.ListSpecies)
		species.GET("/:id", h.Species.GetSpecies)
		species.POST("", middleware.RequireRole(entity.RoleAdmin), h.Species.CreateSpecies)
		species.PUT("/:id", middleware.RequireRole(entity.RoleAdmin), h.Species.UpdateSpecies)
		species.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Species.DeleteSpecies)
	}

	collections := authorized.Group("/collections")
	{
		collections.GET("", h.Collection.ListCollections)
		collections.GET("/:id", h.Collection.GetCollection)
		collections.POST("", middleware.RequireOrgType(entity.OrgTypeFarmer), h.Collection.CreateCollection)
	}

	batches := authorized.Group("/batches")
	{
		batches.GET("", h.Batch.ListBatches)
		batches.GET("/export", h.Batch.ExportBatches)
		batches.GET("/:id", h.Batch.GetBatch)
		batches.POST("", middleware.RequireOrgType(entity.OrgTypeFarmer, entity.OrgTypeManufacturer), h.Batch.CreateBatch)
		batches.PUT("/:id/status", h.Batch.UpdateBatchStatus)
	}

	goods := authorized.Group("/finished-goods")
	{
		goods.GET("", h.FinishedGood.ListFinishedGoods)
		goods.GET("/:id", h.FinishedGood.GetFinishedGood)
		goods.GET("/:id/trace", h.FinishedGood.TraceFinishedGood)
		goods.POST("", middleware.RequireOrgType(entity.OrgTypeManufacturer), h.FinishedGood.CreateFinishedGood)
	}

	labOnly := middleware.RequireOrgType(entity.OrgTypeLabs)
	labTests := authorized.Group("/lab-tests")
	{
		labTests.GET("", h.Lab.ListLabTests)
		labTests.GET("/export", h.Lab.ExportLabTests)
		labTests.GET("/:id", h.Lab.GetLabTest)
		labTests.POST("", labOnly, h.Lab.CreateLabTest)
		labTests.PUT("/:id/status", labOnly, h.Lab.UpdateLabTestStatus)
	}

	certificates := authorized.Group("/certificates")
	{
		certificates.GET("", h.Certificate.ListCertificates)
		certificates.GET("/:id", h.Certificate.GetCertificate)
		certificates.GET("/:id/pdf", h.Certificate.DownloadPDF)
		certificates.PUT("/:id/revoke", labOnly, h.Certificate.RevokeCertificate)
	}

	distributor := authorized.Group("/distributor")
	distributor.Use(middleware.RequireOrgType(entity.OrgTypeDistributor))
	{
		distributor.GET("/inventory", h.Distributor.ListInventory)
		distributor.GET("/inventory/:id", h.Distributor.GetInventory)
		distributor.POST("/inventory", h.Distributor.ReceiveInventory)
		distributor.GET("/shipments", h.Distributor.ListShipments)
		distributor.GET("/shipments/:id", h.Distributor.GetShipment)
		distributor.POST("/shipments", h.Distributor.CreateShipment)
		distributor.PUT("/shipments/:id/status", h.Distributor.UpdateShipmentStatus)
	}

	qr := authorized.Group("/qr")
	{
		qr.GET("", h.QR.ListQRCodes)
		qr.POST("", h.QR.GenerateQRCode)
		qr.PUT("/:id/deactivate", h.QR.Deactivate)
	}

	documents := authorized.Group("/documents")
	{
		documents.GET("", h.Document.ListDocuments)
		documents.POST("", h.Document.Upload)
		documents.GET("/:id", h.Document.GetDocument)
		documents.GET("/:id/download", h.Document.DownloadDocument)
		documents.DELETE("/:id", h.Document.DeleteDocument)
	}

	events := authorized.Group("/events")
	{
		events.GET("", h.Event.ListEvents)
		events.GET("/stream", h.SSE.Stream)
		events.GET("/:id", h.Event.GetEvent)
	}

	// 平台管理
	admin := authorized.Group("/admin")
	admin.Use(middleware.RequireOrgType(entity.OrgTypeAdmin), middleware.RequireRole(entity.RoleAdmin))
	{
		admin.GET("/organizations", h.Admin.ListOrganizations)
		admin.GET("/organizations/:id", h.Admin.GetOrganization)
		admin.PUT("/organizations/:id/status", h.Admin.SetOrganizationStatus)
		admin.PUT("/users/:id/status", h.Admin.SetUserStatus)
		admin.GET("/actions", h.Admin.ListActions)
		admin.GET("/alerts", h.Admin.ListAlerts)
		admin.POST("/alerts", h.Admin.CreateAlert)
		admin.PUT("/alerts/:id/resolve", h.Admin.ResolveAlert)
		admin.GET("/dashboard", h.Admin.Dashboard)
	}
}
