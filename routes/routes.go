package routes

import (
	"academica_go/controllers"
	"academica_go/middleware"
	"academica_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	healthController := &controllers.HealthController{}
	authController := &controllers.AuthController{}
	userController := &controllers.UserController{}
	courseController := &controllers.CourseController{}
	groupController := &controllers.GroupController{}
	scheduleController := &controllers.ScheduleController{}
	attendanceController := &controllers.AttendanceController{}
	gradebookController := &controllers.GradebookController{}
	importController := &controllers.GradebookImportController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	wsController := controllers.NewWebSocketController(wsHub)

	app.Get("/health", healthController.Health)

	api := app.Group("/api")

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)

	// User management (admin)
	users := protected.Group("/users")
	users.Get("/", middleware.RequireTeacherOrAbove(), userController.GetUsers)
	users.Post("/", middleware.RequireAdmin(), userController.CreateUser)
	users.Put("/:id/status", middleware.RequireAdmin(), userController.UpdateUserStatus)

	// Course catalog
	courses := protected.Group("/courses")
	courses.Get("/", courseController.GetCourses)
	courses.Get("/:id", courseController.GetCourse)
	courses.Post("/", middleware.RequireAdmin(), courseController.CreateCourse)
	courses.Get("/:courseId/assignments", gradebookController.ListAssignments)
	courses.Get("/:courseId/average", middleware.RequireTeacherOrAbove(), gradebookController.GetCourseAverage)
	courses.Get("/:courseId/students/:studentId/average", gradebookController.GetStudentAverage)

	// Groups and rosters
	groups := protected.Group("/groups")
	groups.Get("/", groupController.GetGroups)
	groups.Get("/:id", groupController.GetGroup)
	groups.Post("/", middleware.RequireAdmin(), groupController.CreateGroup)
	groups.Post("/:id/members", middleware.RequireTeacherOrAbove(), groupController.AddMember)
	groups.Delete("/:id/members/:studentId", middleware.RequireTeacherOrAbove(), groupController.RemoveMember)

	// Weekly timetable
	schedules := protected.Group("/schedules", middleware.RequireTeacherOrAbove())
	schedules.Post("/check-conflict", scheduleController.CheckConflict)
	schedules.Post("/slots", scheduleController.CreateSlot)
	schedules.Put("/slots/:id", scheduleController.UpdateSlot)
	schedules.Delete("/slots/:id", scheduleController.DeactivateSlot)
	schedules.Get("/teachers/:teacherId", scheduleController.GetTeacherSchedule)

	// Attendance
	attendance := protected.Group("/attendance")
	attendance.Post("/sessions", middleware.RequireTeacherOrAbove(), attendanceController.SaveSession)
	attendance.Get("/groups/:groupId/session", attendanceController.GetSession)
	attendance.Get("/groups/:groupId/progress", middleware.RequireTeacherOrAbove(), attendanceController.GetSessionProgress)
	attendance.Get("/groups/:groupId/students/:studentId", attendanceController.GetCumulativeAttendance)
	attendance.Post("/justifications", attendanceController.FileJustification)
	attendance.Get("/justifications", middleware.RequireTeacherOrAbove(), attendanceController.ListJustifications)
	attendance.Put("/justifications/:id", middleware.RequireTeacherOrAbove(), attendanceController.DecideJustification)

	// Gradebook
	assignments := protected.Group("/assignments")
	assignments.Post("/", middleware.RequireTeacherOrAbove(), gradebookController.CreateAssignment)
	assignments.Put("/:id/scores", middleware.RequireTeacherOrAbove(), gradebookController.UpsertScore)
	assignments.Post("/:id/submissions", gradebookController.RecordSubmission)
	protected.Post("/import/grades", middleware.RequireTeacherOrAbove(), importController.Import)

	// Notifications
	notificationsGroup := protected.Group("/notifications")
	notificationsGroup.Get("/", notificationController.GetNotifications)
	notificationsGroup.Get("/unread-count", notificationController.GetUnreadCount)
	notificationsGroup.Put("/:id/read", notificationController.MarkAsRead)
	notificationsGroup.Put("/read-all", notificationController.MarkAllAsRead)

	// Activity logs (admin)
	logs := protected.Group("/logs", middleware.RequireAdmin())
	logs.Get("/", logController.GetActivityLogs)
	logs.Get("/archives", logController.GetArchives)
	logs.Get("/archives/:id/download", logController.DownloadArchive)
	logs.Post("/flush", logController.FlushLogs)
	logs.Post("/archive", logController.ArchiveLogs)

	// WebSocket stats
	ws := protected.Group("/ws")
	ws.Get("/stats", middleware.RequireAdmin(), wsController.GetWebSocketStats)

	// WebSocket connection endpoint with upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}
