package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/rankingdbv/ranking-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса RankingDBV.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", h.Register)
		r.Post("/user/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/clubs", h.CreateClub)
			r.Get("/clubs/{clubID}/status", h.GetClubStatus)
			r.Put("/clubs/{clubID}/subscription", h.UpdateSubscription)

			r.Post("/members", h.CreateMember)
			r.Delete("/members/{id}", h.DeleteMember)
			r.Patch("/members/{id}/points", h.AdjustPoints)

			r.Get("/ranking", h.GetRanking)
			r.Get("/points/history", h.GetPointsHistory)

			r.Get("/store/products", h.ListProducts)
			r.Post("/store/products", h.CreateProduct)
			r.Delete("/store/products/{id}", h.DeleteProduct)
			r.Post("/store/buy", h.Buy)
			r.Get("/store/purchases", h.GetPurchases)
			r.Post("/store/purchases/{id}/apply", h.FulfillPurchase)

			r.Get("/notifications", h.GetNotifications)
			r.Get("/notifications/unread", h.GetUnreadCount)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)
			r.Post("/notifications/read-all", h.MarkAllNotificationsRead)

			r.Post("/payments/pix", h.CreatePixCharge)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
