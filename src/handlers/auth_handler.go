package handlers

import (
	"net/http"

	"finance-dashboard/src/models"
	"finance-dashboard/src/services"
)

func Login(users *services.UserService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			rp.Error(w, r, err)
			return
		}

		resp, err := users.Login(r.Context(), req)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Login successful", resp)
	}
}

func GetProfile(users *services.UserService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := users.Profile(r.Context(), currentUser(r).ID)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Profile retrieved successfully", profile)
	}
}

func RefreshToken(users *services.UserService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := users.Refresh(r.Context(), currentUser(r).ID)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Token refreshed successfully", resp)
	}
}
