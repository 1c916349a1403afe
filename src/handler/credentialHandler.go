package handler

import (
	"context"
	"net/http"

	"loanledger/src/ledger"
	"loanledger/src/model"
	"loanledger/src/repository"
	"loanledger/src/scoring"
)

type credentialReader interface {
	FindByPositionID(ctx context.Context, positionID uint) (*model.Credential, error)
}

// GetCredentialHandler returns the credit credential of a position.
func GetCredentialHandler(credentials credentialReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parsePositionID(r)
		if !ok {
			http.Error(w, "invalid positionID", http.StatusBadRequest)
			return
		}

		credential, err := credentials.FindByPositionID(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if credential == nil {
			writeDomainError(w, ledger.ErrPositionNotFound)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"credential": credential,
			"score_band": scoring.Band(credential.CreditScore),
		})
	}
}

func DefaultGetCredentialHandler() http.HandlerFunc {
	return GetCredentialHandler(repository.NewCredentialRepository())
}
