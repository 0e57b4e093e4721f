package router

import (
	"carelog/backend/foundation/web"
	"carelog/backend/internal/auth"
	"carelog/backend/internal/middleware"
	"carelog/backend/internal/pkg/config"
	"carelog/backend/internal/pkg/repository/postgresql"
	"carelog/backend/internal/pkg/repository/redisdb"
	"carelog/backend/internal/repository/postgres/admin"
	"carelog/backend/internal/repository/postgres/attendance"
	"carelog/backend/internal/repository/postgres/worker"
	"carelog/backend/internal/service/summarizer"

	attendance_controller "carelog/backend/internal/controller/http/v1/attendance"
	auth_controller "carelog/backend/internal/controller/http/v1/auth"
	summary_controller "carelog/backend/internal/controller/http/v1/summary"
	worker_controller "carelog/backend/internal/controller/http/v1/worker"
)

type Router struct {
	*web.App
	postgresDB *postgresql.Database
	redisDB    *redisdb.Client
	cfg        *config.Config
	auth       *auth.Auth
}

func NewRouter(
	app *web.App,
	postgresDB *postgresql.Database,
	redisDB *redisdb.Client,
	cfg *config.Config,
	auth *auth.Auth,
) *Router {
	return &Router{
		app,
		postgresDB,
		redisDB,
		cfg,
		auth,
	}
}

func (r Router) Init() error {
	r.HandleMethodNotAllowed = true
	r.Use(middleware.CORS())

	// - postgresql
	adminPostgres := admin.NewRepository(r.postgresDB)
	workerPostgres := worker.NewRepository(r.postgresDB)
	attendancePostgres := attendance.NewRepository(r.postgresDB, workerPostgres, r.redisDB, r.cfg.Location())

	// - collaborators
	summarizerService := summarizer.NewService(r.cfg.AIBaseURL, r.cfg.AIAPIKey, r.cfg.AIModel, r.redisDB)

	// controller
	authController := auth_controller.NewController(adminPostgres, r.auth)
	workerController := worker_controller.NewController(workerPostgres)
	attendanceController := attendance_controller.NewController(attendancePostgres, r.redisDB, r.cfg.QRPayload)
	summaryController := summary_controller.NewController(attendancePostgres, summarizerService, r.cfg.Location())

	// #auth
	r.Post("/api/v1/sign-in", authController.SignIn)
	r.Post("/api/v1/refresh-token", authController.RefreshToken)

	// #attendance
	r.Post("/api/v1/attendance/submit", attendanceController.Submit)
	r.Get("/api/v1/attendance/list", attendanceController.GetList, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleDashboard))
	r.Get("/api/v1/attendance/live", attendanceController.Live, middleware.StreamAuthenticate(r.auth, auth.RoleAdmin, auth.RoleDashboard))
	r.Get("/api/v1/attendance/export", attendanceController.ExportApproved, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/attendance/qrcode", attendanceController.GetQrCode, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/attendance/qrposter", attendanceController.GetQrPoster, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/attendance/:id", attendanceController.GetDetailById, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Patch("/api/v1/attendance/:id/status", attendanceController.SetStatus, middleware.Authenticate(r.auth, auth.RoleAdmin))

	// #worker
	r.Get("/api/v1/worker/list", workerController.GetList, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/worker/export", workerController.ExportRoster, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/worker/:id", workerController.GetDetailById, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Post("/api/v1/worker/create", workerController.Create, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Put("/api/v1/worker/:id", workerController.UpdateAll, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Patch("/api/v1/worker/:id", workerController.UpdateColumns, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Delete("/api/v1/worker/:id", workerController.Delete, middleware.Authenticate(r.auth, auth.RoleAdmin))

	// #summary
	r.Get("/api/v1/summary", summaryController.GetDailySummary, middleware.Authenticate(r.auth, auth.RoleAdmin))

	return r.Run(r.cfg.ServerPort)
}
