package handler

import (
	"encoding/json"
	"net/http"

	"slotkeeper/internal/registry/models"
	dErrors "slotkeeper/pkg/domain-errors"
)

// NetworkResponse is the occupancy and configuration snapshot of a network.
type NetworkResponse struct {
	NetUID                    uint16               `json:"netuid"`
	Params                    models.NetworkParams `json:"params"`
	Occupied                  uint16               `json:"occupied"`
	RegistrationsThisBlock    uint16               `json:"registrations_this_block"`
	RegistrationsThisInterval uint16               `json:"registrations_this_interval"`
}

// SlotsResponse is the dense slot listing of a network.
type SlotsResponse struct {
	NetUID uint16        `json:"netuid"`
	Slots  []models.Slot `json:"slots"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	description := err.Error()
	if code == dErrors.CodeInternal {
		// Internal details stay in the logs.
		description = "internal server error"
	}
	writeJSON(w, dErrors.HTTPStatus(code), errorResponse{
		Error:       string(code),
		Description: description,
	})
}
