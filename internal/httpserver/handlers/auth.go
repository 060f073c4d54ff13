package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/logger"
	"github.com/verdantlabs/leafsight/internal/otp"
)

type sendOTPRequest struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
}

type sendOTPResponse struct {
	Success   bool   `json:"success"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SendEmailOTP issues a verification code for an email address.
func SendEmailOTP(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendOTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, sendOTPResponse{Success: false, Error: "Invalid request body"})
			return
		}

		if req.UserID == "" || req.Email == "" {
			writeJSON(w, http.StatusBadRequest, sendOTPResponse{
				Success: false,
				Error:   "Missing required fields: userId or email",
			})
			return
		}

		expiresAt, err := d.OTP.Issue(r.Context(), req.UserID, req.Email, req.FirstName)
		if err != nil {
			d.Logger.Error("failed to issue verification code", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, sendOTPResponse{
				Success: false,
				Error:   "Failed to send verification email",
			})
			return
		}

		writeJSON(w, http.StatusOK, sendOTPResponse{
			Success:   true,
			ExpiresAt: expiresAt.UnixMilli(),
		})
	}
}

type verifyOTPRequest struct {
	UserID      string `json:"userId"`
	OTPType     string `json:"otpType"`
	Code        string `json:"code"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type verifyOTPResponse struct {
	Verified  bool   `json:"verified"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

// VerifyOTP checks a submitted verification code.
func VerifyOTP(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyOTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, verifyOTPResponse{Verified: false, Error: "Invalid request body"})
			return
		}

		identifier := req.Email
		if identifier == "" {
			identifier = req.PhoneNumber
		}

		if req.UserID == "" || req.OTPType == "" || req.Code == "" || identifier == "" {
			writeJSON(w, http.StatusBadRequest, verifyOTPResponse{
				Verified: false,
				Error:    "Missing required fields",
			})
			return
		}

		err := d.OTP.Verify(r.Context(), req.UserID, req.OTPType, identifier, req.Code)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, verifyOTPResponse{Verified: true})
		case errors.Is(err, otp.ErrNotFound):
			writeJSON(w, http.StatusBadRequest, verifyOTPResponse{
				Verified:  false,
				Error:     "No verification code found. Please request a new code.",
				ErrorType: "not_found",
			})
		case errors.Is(err, otp.ErrExpired):
			writeJSON(w, http.StatusBadRequest, verifyOTPResponse{
				Verified:  false,
				Error:     "Verification code has expired. Please request a new code.",
				ErrorType: "expired",
			})
		case errors.Is(err, otp.ErrMismatch):
			writeJSON(w, http.StatusBadRequest, verifyOTPResponse{
				Verified:  false,
				Error:     "Invalid verification code. Please try again.",
				ErrorType: "invalid",
			})
		default:
			d.Logger.Error("failed to verify code", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, verifyOTPResponse{
				Verified: false,
				Error:    "Failed to verify code",
			})
		}
	}
}
