package web

import (
	"net/http"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/auth"
	"github.com/cabwad/hris/app/web/enums"
	"github.com/cabwad/hris/app/web/persistence"
)

// account is a user as returned by the API
type account struct {
	persistence.User
	Role string `json:"role"`
}

func toAccount(u persistence.User) account { return account{User: u, Role: u.Role()} }

// GET /api/account/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	s.writeStatus(w, http.StatusOK, "User details", toAccount(user))
}

// POST /api/account/change-password
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	req := struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}{}
	if err := decodeJSON(r, &req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		s.writeStatus(w, http.StatusBadRequest, "old_password and new_password are required", nil)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.OldPassword) {
		s.writeStatus(w, http.StatusBadRequest, "Old password is incorrect", nil)
		return
	}
	if len(req.NewPassword) < 8 {
		s.writeStatus(w, http.StatusBadRequest, "New password must be at least 8 characters", nil)
		return
	}
	if err := s.setPassword(r, user.ID, req.NewPassword); err != nil {
		s.writeStatus(w, http.StatusInternalServerError, "failed to change password", nil)
		return
	}
	log.Printf("[INFO] user %s changed password", user.Username)
	s.writeStatus(w, http.StatusOK, "Password changed successfully", nil)
}

// POST /api/account/admin/reset-password resets password of the user to the birthdate
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	admin, _ := userFromContext(r.Context())
	req := struct {
		UserID int64 `json:"user_id"`
	}{}
	if err := decodeJSON(r, &req); err != nil || req.UserID <= 0 {
		s.writeStatus(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	user, err := s.store.GetUser(r.Context(), req.UserID)
	if err != nil {
		s.writeStatus(w, storeErrorStatus(err), "User not found", nil)
		return
	}
	bd, err := time.Parse(time.DateOnly, user.Birthdate)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "User has no valid birthdate", nil)
		return
	}
	if err := s.setPassword(r, user.ID, auth.DefaultPassword(bd)); err != nil {
		s.writeStatus(w, http.StatusInternalServerError, "failed to reset password", nil)
		return
	}
	log.Printf("[INFO] password of %s reset by %s", user.Username, admin.Username)
	s.writeStatus(w, http.StatusOK, "Password reset to the default for "+user.Username, nil)
}

func (s *Server) setPassword(r *http.Request, id int64, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(r.Context(), id, hash); err != nil {
		log.Printf("[ERROR] failed to update password of user %d: %v", id, err)
		return err
	}
	return nil
}

// GET /api/account/list with is_active, user_type, page and page_size filters
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	pp := readPage(r)
	filter := persistence.UserFilter{Page: pp.store()}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			s.writeStatus(w, http.StatusBadRequest, "invalid is_active value", nil)
			return
		}
		filter.Active = &active
	}
	if v := r.URL.Query().Get("user_type"); v != "" {
		ut, err := enums.ParseUserType(v)
		if err != nil {
			s.writeStatus(w, http.StatusBadRequest, "invalid user_type, expected one of superadmin, admin, staff", nil)
			return
		}
		filter.UserType = ut
	}

	users, total, err := s.store.ListUsers(r.Context(), filter)
	if err != nil {
		log.Printf("[ERROR] failed to list users: %v", err)
		s.writeStatus(w, http.StatusInternalServerError, "failed to list accounts", nil)
		return
	}
	res := make([]account, 0, len(users))
	for _, u := range users {
		res = append(res, toAccount(u))
	}
	s.writeJSON(w, http.StatusOK, pp.paged(r, "Accounts retrieved successfully", total, res))
}

// POST /api/account/list creates an account, username and password derived from last name and birthdate
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Email     string `json:"email"`
		Birthdate string `json:"birthdate"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		IsAdmin   bool   `json:"is_admin"`
	}{}
	if err := decodeJSON(r, &req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	user, err := auth.NewUser(auth.NewUserParams{Email: req.Email, Birthdate: req.Birthdate,
		FirstName: req.FirstName, LastName: req.LastName, Admin: req.IsAdmin})
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.store.CreateUser(r.Context(), &user); err != nil {
		code := storeErrorStatus(err)
		if code == http.StatusInternalServerError {
			log.Printf("[ERROR] failed to create user %s: %v", user.Username, err)
		}
		s.writeStatus(w, code, "failed to create account: "+err.Error(), nil)
		return
	}
	admin, _ := userFromContext(r.Context())
	log.Printf("[INFO] account %s (%s) created by %s", user.Username, user.Role(), admin.Username)
	s.writeStatus(w, http.StatusCreated, "Account created successfully", toAccount(user))
}

// DELETE /api/account/list/{id}
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	admin, _ := userFromContext(r.Context())
	if admin.ID == id {
		s.writeStatus(w, http.StatusBadRequest, "You can't delete your own account", nil)
		return
	}
	target, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		s.writeStatus(w, storeErrorStatus(err), "Account not found", nil)
		return
	}
	if target.IsSuperuser && !admin.IsSuperuser {
		s.writeStatus(w, http.StatusForbidden, "Only super admins can delete super admin accounts", nil)
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		s.writeStatus(w, storeErrorStatus(err), "failed to delete account", nil)
		return
	}
	log.Printf("[INFO] account %s deleted by %s", target.Username, admin.Username)
	s.writeStatus(w, http.StatusOK, "Account deleted successfully", nil)
}
