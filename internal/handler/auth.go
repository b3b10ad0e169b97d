package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/model"
	"github.com/dukerupert/steady/internal/store"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthHandler struct {
	accounts *store.AccountStore
	tokens   *auth.Tokens
	logger   *slog.Logger
}

func NewAuthHandler(accounts *store.AccountStore, tokens *auth.Tokens, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, logger: logger}
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if !emailPattern.MatchString(req.Email) {
		writeMessage(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if msg, ok := h.checkUnique(r.Context(), w, req.Username, req.Email); !ok {
		if msg != "" {
			writeMessage(w, http.StatusBadRequest, msg)
		}
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid role specified")
		return
	}

	h.register(w, r, &model.Account{
		Role:     role,
		FullName: strings.TrimSpace(req.FullName),
		Username: req.Username,
		Email:    req.Email,
	}, req.Password, nil)
}

type patientSignupRequest struct {
	FullName        string           `json:"fullName"`
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	Password        string           `json:"password"`
	ConfirmPassword string           `json:"confirmPassword"`
	Age             *int             `json:"age"`
	Doctor          int64            `json:"doctor"`
	FormA           model.IntakeForm `json:"formA"`
	DoctorNotes     string           `json:"doctorNotes"`
}

// PatientSignup handles POST /auth/patient/signup
func (h *AuthHandler) PatientSignup(w http.ResponseWriter, r *http.Request) {
	var req patientSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if !emailPattern.MatchString(req.Email) {
		writeMessage(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if msg, ok := h.checkUnique(r.Context(), w, req.Username, req.Email); !ok {
		if msg != "" {
			writeMessage(w, http.StatusBadRequest, msg)
		}
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeMessage(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	h.register(w, r, &model.Account{
		Role:        model.RolePatient,
		FullName:    strings.TrimSpace(req.FullName),
		Username:    req.Username,
		Email:       req.Email,
		Age:         req.Age,
		RiskProfile: req.FormA.RiskProfile(),
		DoctorNotes: req.DoctorNotes,
	}, req.Password, func(ctx context.Context, a *model.Account) error {
		if req.Doctor == 0 {
			return nil
		}
		doctor, err := h.accounts.GetByID(ctx, req.Doctor)
		if err != nil {
			return err
		}
		if doctor == nil || doctor.Role != model.RoleDoctor {
			h.logger.Warn("doctor not found, patient not added to roster", "doctor_id", req.Doctor, "patient_id", a.ID)
			return nil
		}
		return h.accounts.AddPatient(ctx, doctor.ID, a.ID)
	})
}

type doctorSignupRequest struct {
	FullName string          `json:"fullName"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Patients []int64         `json:"patients"`
	Location *model.Location `json:"location"`
	Bio      string          `json:"bio"`
}

// DoctorSignup handles POST /auth/doctor/signup
func (h *AuthHandler) DoctorSignup(w http.ResponseWriter, r *http.Request) {
	var req doctorSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Username == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields.")
		return
	}
	existing, err := h.accounts.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("check doctor email", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusBadRequest, "Email already in use.")
		return
	}
	if taken, err := h.accounts.GetByUsername(r.Context(), req.Username); err != nil {
		h.logger.Error("check doctor username", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	} else if taken != nil {
		writeMessage(w, http.StatusBadRequest, "Username is already taken")
		return
	}
	if req.Location == nil {
		writeMessage(w, http.StatusBadRequest, "Location is required.")
		return
	}
	if req.Location.Type != "Point" {
		writeMessage(w, http.StatusBadRequest, "Invalid location format.")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	h.register(w, r, &model.Account{
		Role:     model.RoleDoctor,
		FullName: strings.TrimSpace(req.FullName),
		Username: req.Username,
		Email:    req.Email,
		Location: req.Location,
		Bio:      req.Bio,
	}, req.Password, func(ctx context.Context, a *model.Account) error {
		for _, pid := range req.Patients {
			p, err := h.accounts.GetByID(ctx, pid)
			if err != nil {
				return err
			}
			if !p.IsPatient() {
				h.logger.Warn("skipping unknown patient in roster", "doctor_id", a.ID, "patient_id", pid)
				continue
			}
			if err := h.accounts.AddPatient(ctx, a.ID, pid); err != nil {
				return err
			}
		}
		return nil
	})
}

// checkUnique reports whether username and email are free. On a lookup
// failure it writes the response itself and returns an empty message.
func (h *AuthHandler) checkUnique(ctx context.Context, w http.ResponseWriter, username, email string) (string, bool) {
	if username != "" {
		taken, err := h.accounts.GetByUsername(ctx, username)
		if err != nil {
			h.logger.Error("check username", "error", err)
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return "", false
		}
		if taken != nil {
			return "Username is already taken", false
		}
	}
	taken, err := h.accounts.GetByEmail(ctx, email)
	if err != nil {
		h.logger.Error("check email", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return "", false
	}
	if taken != nil {
		return "Email is already taken", false
	}
	return "", true
}

// register hashes the password, stores the account, runs after (if any),
// sets the session cookie and answers 201 with the account.
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, a *model.Account, password string, after func(context.Context, *model.Account) error) {
	ctx := r.Context()

	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	a.PasswordHash = hash

	created, err := h.accounts.Create(ctx, a)
	if err != nil {
		h.logger.Error("create account", "role", a.Role, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if after != nil {
		if err := after(ctx, created); err != nil {
			h.logger.Error("finish signup", "account_id", created.ID, "error", err)
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}
	if err := h.accounts.LoadRelations(ctx, created); err != nil {
		h.logger.Error("load account relations", "account_id", created.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := h.tokens.SetCookie(w, created.ID, created.Role); err != nil {
		h.logger.Error("issue token", "account_id", created.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("account registered", "account_id", created.ID, "role", created.Role)
	writeJSON(w, http.StatusCreated, created)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login. Username may also be an email address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	a, err := h.accounts.GetByLogin(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if a == nil || !auth.CheckPassword(a.PasswordHash, req.Password) {
		writeMessage(w, http.StatusBadRequest, "Invalid username or password")
		return
	}
	if err := h.accounts.LoadRelations(r.Context(), a); err != nil {
		h.logger.Error("load account relations", "account_id", a.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := h.tokens.SetCookie(w, a.ID, a.Role); err != nil {
		h.logger.Error("issue token", "account_id", a.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokens.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, err := h.accounts.GetByID(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		h.logger.Error("get current account", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if a == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err := h.accounts.LoadRelations(r.Context(), a); err != nil {
		h.logger.Error("load account relations", "account_id", a.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DoctorPatients handles GET /doctor/{id}/patients
func (h *AuthHandler) DoctorPatients(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Doctor ID is required.")
		return
	}

	doctor, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get doctor", "doctor_id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if doctor == nil || doctor.Role != model.RoleDoctor {
		writeMessage(w, http.StatusNotFound, "Doctor not found.")
		return
	}

	patients, err := h.accounts.ListPatients(r.Context(), id)
	if err != nil {
		h.logger.Error("list doctor patients", "doctor_id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if patients == nil {
		patients = []model.Account{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": patients})
}
