package handler

import (
	"encoding/json"
	"net/http"

	"github.com/classifieds-api/internal/pkg/validate"
)

// StatusEnvelope is the uniform {success,msg} response every domain outcome
// uses, success and failure alike, so clients only inspect `success`.
type StatusEnvelope struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

// ValidationEnvelope wraps field-level validation failures (HTTP 400).
type ValidationEnvelope struct {
	Errors []validate.FieldError `json:"errors"`
}

// Response messages, kept identical across handlers so tests and clients can
// match on them.
const (
	msgUserExists      = "User already exists"
	msgCheckEmail      = "Please check your email and verify your account"
	msgProvideEmail    = "Please provide your email"
	msgProvideCode     = "Please provide a code"
	msgUserNotFound    = "User not found"
	msgAlreadyVerified = "You are already verified"
	msgInvalidCode     = "Invalid Code"
	msgVerified        = "Verification Successful. Please log in"
	msgUserNotExists   = "User not exists"
	msgNotVerified     = "User not verified"
	msgWrongPassword   = "Password doesn't match"
	msgLoginSuccess    = "login success"
	msgLoggedOut       = "Successfully logged out"
	msgServerError     = "Something went wrong"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, httpStatus int, success bool, msg string) {
	writeJSON(w, httpStatus, StatusEnvelope{Success: success, Msg: msg})
}

func writeValidation(w http.ResponseWriter, errs []validate.FieldError) {
	writeJSON(w, http.StatusBadRequest, ValidationEnvelope{Errors: errs})
}

// writeInternal hides store/hasher causes behind one generic outcome.
func writeInternal(w http.ResponseWriter) {
	writeStatus(w, http.StatusInternalServerError, false, msgServerError)
}
