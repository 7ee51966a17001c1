package video

import (
	"encoding/json"
	"errors"
	"net/http"

	"carscene-server/modules/common/apperr"
	"github.com/gorilla/mux"
)

type VideoHandler struct {
	service *Service
}

func NewVideoHandler(service *Service) *VideoHandler {
	return &VideoHandler{
		service: service,
	}
}

// SubmitJob handles clip generation requests.
// This endpoint debits credits and adds the job to the Redis queue.
func (h *VideoHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req VideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid request body"))
		return
	}

	result, err := h.service.SubmitJob(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetJob returns the status of a video job.
func (h *VideoHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]

	job, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(err))

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		json.NewEncoder(w).Encode(appErr)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"code":    string(apperr.ErrPersistence),
		"message": err.Error(),
	})
}
