package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"loanledger/src/model"
)

var walletAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

type userStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByWalletAddress(ctx context.Context, walletAddress string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

type registerUserPayload struct {
	WalletAddress string `json:"wallet_address"`
	Email         string `json:"email,omitempty"`
	Passphrase    string `json:"passphrase,omitempty"`
}

// RegisterUserHandler creates a borrower record keyed by wallet address.
func RegisterUserHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerUserPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid user registration payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		wallet := strings.ToLower(strings.TrimSpace(payload.WalletAddress))
		if !walletAddressPattern.MatchString(wallet) {
			http.Error(w, "invalid wallet address", http.StatusBadRequest)
			return
		}

		existing, err := users.GetByWalletAddress(r.Context(), wallet)
		if err != nil {
			logger.WithError(err).Error("failed to look up user")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if existing != nil {
			http.Error(w, "user already registered", http.StatusConflict)
			return
		}

		user := &model.User{
			WalletAddress: wallet,
			Email:         strings.TrimSpace(payload.Email),
		}

		if payload.Passphrase != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(payload.Passphrase), bcrypt.DefaultCost)
			if err != nil {
				logger.WithError(err).Error("failed to hash passphrase")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			user.PassphraseHash = string(hash)
		}

		if err := users.Create(r.Context(), user); err != nil {
			logger.WithError(err).Error("failed to create user")
			http.Error(w, "Unable to register user", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

// GetUserHandler returns a borrower profile.
func GetUserHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet := strings.ToLower(chi.URLParam(r, "wallet"))

		user, err := users.GetByWalletAddress(r.Context(), wallet)
		if err != nil {
			logger.WithError(err).Error("failed to fetch user")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// UpdateBankAccountHandler updates the fiat payout details of a borrower.
func UpdateBankAccountHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet := strings.ToLower(chi.URLParam(r, "wallet"))

		user, err := users.GetByWalletAddress(r.Context(), wallet)
		if err != nil {
			logger.WithError(err).Error("failed to fetch user")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}

		var payload model.UpdateBankAccountPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid bank account payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.BankName != nil {
			user.BankName = strings.TrimSpace(*payload.BankName)
		}
		if payload.AccountNumber != nil {
			user.AccountNumber = strings.TrimSpace(*payload.AccountNumber)
		}
		if payload.RoutingNumber != nil {
			user.RoutingNumber = strings.TrimSpace(*payload.RoutingNumber)
		}

		if err := users.Save(r.Context(), user); err != nil {
			logger.WithError(err).Error("failed to update bank account")
			http.Error(w, "Unable to update bank account", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
