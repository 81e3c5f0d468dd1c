package routes

import (
	"github.com/gofiber/fiber/v2"

	handlers "tabib.link/handlers/api"
	"tabib.link/middlewares"
)

// registerAPIRoutes mounts the /api/v1 surface. Registration and the
// professional directory are public; everything else sits behind the
// identity middleware.
func registerAPIRoutes(app *fiber.App) {
	userHandler := handlers.NewUserHandler()
	profileHandler := handlers.NewProfileHandler()
	rdvHandler := handlers.NewRdvHandler()
	annonceHandler := handlers.NewAnnonceHandler()
	notificationHandler := handlers.NewNotificationHandler()
	subscriptionHandler := handlers.NewSubscriptionHandler()
	statsHandler := handlers.NewStatsHandler()

	v1 := app.Group("/api/v1")

	// Public surface.
	v1.Post("/users", userHandler.Register)
	v1.Get("/professionals", userHandler.SearchProfessionals)
	v1.Get("/professionals/:id/profile", profileHandler.Get)
	v1.Get("/professionals/:id/availability", rdvHandler.CheckAvailability)
	v1.Get("/annonces", annonceHandler.ListActive)
	// Constrained so it never shadows the authenticated /annonces/mine route.
	v1.Get("/annonces/:id<int>", annonceHandler.Get)
	v1.Get("/subscriptions/plans", subscriptionHandler.ListPlans)

	// Authenticated surface.
	auth := v1.Group("", middlewares.AuthMiddleware())

	auth.Get("/users/me", userHandler.Me)
	auth.Put("/users/me", userHandler.UpdateMe)
	auth.Delete("/users/me", userHandler.DeleteMe)

	profile := auth.Group("/profile", middlewares.RequireProfessional())
	profile.Get("", profileHandler.GetMine)
	profile.Put("", profileHandler.UpdateMine)
	profile.Put("/vacation", profileHandler.SetVacation)

	auth.Post("/rdvs", rdvHandler.Create)
	auth.Get("/rdvs", rdvHandler.ListMine)
	auth.Get("/rdvs/:id", rdvHandler.Get)
	auth.Put("/rdvs/:id/status", rdvHandler.UpdateStatus)

	annonces := auth.Group("/annonces", middlewares.RequireProfessional())
	annonces.Get("/mine", annonceHandler.ListMine)
	annonces.Post("", annonceHandler.Create)
	annonces.Put("/:id", annonceHandler.Update)
	annonces.Delete("/:id", annonceHandler.Delete)

	auth.Get("/notifications", notificationHandler.List)
	auth.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	auth.Put("/notifications/:id/read", notificationHandler.MarkRead)

	subs := auth.Group("/subscriptions")
	subs.Get("/me", subscriptionHandler.GetMine)
	subs.Delete("/me", subscriptionHandler.Cancel)
	subs.Post("/checkout", subscriptionHandler.StartCheckout)
	subs.Post("/portal", subscriptionHandler.OpenPortal)
	subs.Get("/family", subscriptionHandler.ListFamilyMembers)
	subs.Post("/family", subscriptionHandler.AddFamilyMember)
	subs.Delete("/family/:id", subscriptionHandler.RemoveFamilyMember)

	auth.Get("/stats/me", middlewares.RequireProfessional(), statsHandler.Professional)
	auth.Get("/stats/admin", middlewares.RequireAdmin(), statsHandler.Admin)
}
