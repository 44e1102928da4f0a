package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finance-dashboard/src/db"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/models"
	"finance-dashboard/src/services"
)

func GetAllUsers(users *services.UserService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.List(r.Context())
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Users retrieved", list)
	}
}

func CreateUser(users *services.UserService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			rp.Error(w, r, err)
			return
		}

		u, err := users.Create(r.Context(), req)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusCreated, "User created", u)
	}
}

// SetUserActive backs both the activate and the deactivate route.
func SetUserActive(users *services.UserService, active bool, rp Reporter) http.HandlerFunc {
	message := "User deactivated"
	if active {
		message = "User activated"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.SetActive(r.Context(), chi.URLParam(r, "id"), active)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, message, u)
	}
}

func ClearCache(cache *db.DashboardCache, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cache.Clear()
		rp.Logger.InfoContext(r.Context(), "dashboard cache cleared",
			logging.FieldUserID, currentUser(r).ID)
		writeSuccess(w, http.StatusOK, "Cache cleared", nil)
	}
}
