package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"carscene-server/modules/common/apperr"
	"github.com/gorilla/mux"
)

type GenerationHandler struct {
	saga    *Coordinator
	records RecordStore
}

func NewGenerationHandler(saga *Coordinator, records RecordStore) *GenerationHandler {
	return &GenerationHandler{
		saga:    saga,
		records: records,
	}
}

// Generate handles new composite generation requests.
// The saga runs synchronously; progress events go out over the websocket hub.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid request body"))
		return
	}

	// 요청 연결이 끊겨도 사가는 끝까지 진행됨
	result, err := h.saga.Execute(context.Background(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Revise handles the one-time revision of an existing generation.
func (h *GenerationHandler) Revise(w http.ResponseWriter, r *http.Request) {
	var req RevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid request body"))
		return
	}

	if req.OriginalGenerationID == "" {
		writeError(w, apperr.New(apperr.ErrValidation, "originalGenerationId is required"))
		return
	}

	result, err := h.saga.ExecuteRevision(context.Background(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetGeneration returns a stored generation record by id.
func (h *GenerationHandler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	generationID := vars["generationId"]

	record, err := h.records.GetGeneration(r.Context(), generationID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
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
