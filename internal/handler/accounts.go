package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/service"
	"github.com/devaloi/agora/internal/upload"
)

// Register creates a user account.
func Register(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.RegisterInput
		if !decode(w, r, &in) {
			return
		}
		if _, err := users.Register(r.Context(), in); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusCreated, "User registered successfully")
	}
}

// Login issues an access token.
func Login(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.LoginInput
		if !decode(w, r, &in) {
			return
		}
		res, err := users.Login(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// Me returns the caller's account.
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, actor(r))
	}
}

// Profile returns the caller's freshly loaded account.
func Profile(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.Profile(r.Context(), actor(r).ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// UpdateProfile accepts a multipart form with optional username, email, bio
// and avatar fields, or a plain JSON body without the avatar.
func UpdateProfile(users *service.UserService, avatars *upload.AvatarStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.ProfileInput

		if isMultipart(r) {
			r.Body = http.MaxBytesReader(w, r.Body, avatars.MaxBytes()+maxBodyBytes)
			if err := r.ParseMultipartForm(avatars.MaxBytes()); err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid form data")
				return
			}
			in.Username = formValue(r, "username")
			in.Email = formValue(r, "email")
			in.Bio = formValue(r, "bio")

			file, _, err := r.FormFile("avatar")
			switch {
			case errors.Is(err, http.ErrMissingFile):
			case err != nil:
				writeMessage(w, http.StatusBadRequest, "Invalid avatar upload")
				return
			default:
				defer file.Close()
				url, err := avatars.Save(file)
				if err != nil {
					writeUploadError(w, r, err)
					return
				}
				in.AvatarURL = &url
			}
		} else if !decode(w, r, &in) {
			return
		}

		u, err := users.UpdateProfile(r.Context(), actor(r), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		writeMessage(w, http.StatusBadRequest, "Avatar must be 5MB or smaller")
	case errors.Is(err, upload.ErrUnsupportedType):
		writeMessage(w, http.StatusBadRequest, "Only .png, .jpg and .jpeg formats are allowed")
	default:
		writeError(w, r, err)
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formValue returns nil for fields absent from the form, so they stay
// untouched.
func formValue(r *http.Request, key string) *string {
	if _, ok := r.MultipartForm.Value[key]; !ok {
		return nil
	}
	v := r.FormValue(key)
	return &v
}

// ListUsers returns every regular account.
func ListUsers(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.ListUsers(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetUser returns one account.
func GetUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.GetUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// UpdateUser applies an admin edit.
func UpdateUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.UserUpdate
		if !decode(w, r, &in) {
			return
		}
		u, err := users.UpdateUser(r.Context(), chi.URLParam(r, "userID"), in)
		respondUser(w, r, u, err, "User updated successfully")
	}
}

// DeleteUser removes an account.
func DeleteUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := users.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "User deleted successfully")
	}
}

// ActivateUser re-enables an account.
func ActivateUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.Activate(r.Context(), chi.URLParam(r, "userID"))
		respondUser(w, r, u, err, "User activated successfully")
	}
}

// DeactivateUser disables an account.
func DeactivateUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.Deactivate(r.Context(), chi.URLParam(r, "userID"))
		respondUser(w, r, u, err, "User deactivated successfully")
	}
}

// BanUser bans an account for a number of days, or permanently.
func BanUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.BanInput
		if !decode(w, r, &in) {
			return
		}
		u, err := users.Ban(r.Context(), chi.URLParam(r, "userID"), in)
		respondUser(w, r, u, err, "User banned successfully")
	}
}

// UnbanUser lifts a ban.
func UnbanUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.Unban(r.Context(), chi.URLParam(r, "userID"))
		respondUser(w, r, u, err, "User unbanned successfully")
	}
}

func respondUser(w http.ResponseWriter, r *http.Request, u domain.User, err error, message string) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string      `json:"message"`
		User    domain.User `json:"user"`
	}{message, u})
}
