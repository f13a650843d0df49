package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/desert-planet/internal/logger"
	"github.com/jwebster45206/desert-planet/pkg/state"
	"github.com/jwebster45206/desert-planet/pkg/storage"
)

const (
	savesPath       = "/v1/saves"
	maxSaveBodySize = 4 << 20
)

type ListSavesResponse struct {
	Saves []string `json:"saves"`
}

type SaveHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSaveHandler(storage storage.Storage, logger *slog.Logger) *SaveHandler {
	return &SaveHandler{
		storage: storage,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for save documents
// Routes:
// GET /v1/saves           - List save IDs
// POST /v1/saves          - Create a save (save_id assigned if empty)
// GET /v1/saves/{id}      - Read a save
// PUT /v1/saves/{id}      - Create or replace a save
// DELETE /v1/saves/{id}   - Delete a save
func (h *SaveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	saveID := strings.Trim(strings.TrimPrefix(r.URL.Path, savesPath), "/")
	if strings.Contains(saveID, "/") {
		logger.WithSaveID(h.logger, saveID).Warn("Invalid save ID")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid save ID")
		return
	}

	if saveID == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			h.logger.Warn("Method not allowed for saves collection", "method", r.Method)
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleRead(w, r, saveID)
	case http.MethodPut:
		h.handleReplace(w, r, saveID)
	case http.MethodDelete:
		h.handleDelete(w, r, saveID)
	default:
		h.logger.Warn("Method not allowed for save endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT, DELETE")
	}
}

// readGameState decodes the request body and writes a 400 on failure.
func (h *SaveHandler) readGameState(w http.ResponseWriter, r *http.Request) (*state.GameState, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSaveBodySize))
	if err != nil {
		h.logger.Warn("Failed to read request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}

	gs, err := state.FromJSON(body)
	if err != nil {
		var decodeErr *state.DecodeError
		if errors.As(err, &decodeErr) {
			h.logger.Warn("Invalid save document", "error", err, "path", decodeErr.Path)
		}
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return gs, true
}

func (h *SaveHandler) writeGameState(w http.ResponseWriter, status int, gs *state.GameState) {
	data, err := gs.ToJSON()
	if err != nil {
		h.logger.Error("Failed to encode game state", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to encode game state")
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write game state response", "error", err)
	}
}

func (h *SaveHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.storage.ListSaves(r.Context())
	if err != nil {
		h.logger.Error("Failed to list saves", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list saves")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ListSavesResponse{Saves: ids}); err != nil {
		h.logger.Error("Failed to encode save list", "error", err)
	}
}

func (h *SaveHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.readGameState(w, r)
	if !ok {
		return
	}

	if gs.Metadata.SaveID == "" {
		gs.Metadata.SaveID = uuid.New().String()
	}
	saveID := gs.Metadata.SaveID
	log := logger.WithSaveID(h.logger, saveID)
	if strings.Contains(saveID, "/") {
		writeError(w, h.logger, http.StatusBadRequest, "save_id must not contain '/'")
		return
	}

	if err := h.storage.CreateGameState(r.Context(), saveID, gs); err != nil {
		if errors.Is(err, storage.ErrSaveExists) {
			log.Warn("Save already exists")
			writeError(w, h.logger, http.StatusConflict, "Save already exists; use PUT to replace it")
			return
		}
		log.Error("Failed to create save", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game state")
		return
	}

	log.Info("Save created")
	w.Header().Set("Location", savesPath+"/"+saveID)
	h.writeGameState(w, http.StatusCreated, gs)
}

func (h *SaveHandler) handleRead(w http.ResponseWriter, r *http.Request, saveID string) {
	log := logger.WithSaveID(h.logger, saveID)
	gs, err := h.storage.LoadGameState(r.Context(), saveID)
	if err != nil {
		log.Error("Failed to load game state", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return
	}
	if gs == nil {
		log.Warn("Save not found")
		writeError(w, h.logger, http.StatusNotFound, "Save not found")
		return
	}

	h.writeGameState(w, http.StatusOK, gs)
}

// handleReplace stores the body under saveID. The path wins over any
// save_id in the body.
func (h *SaveHandler) handleReplace(w http.ResponseWriter, r *http.Request, saveID string) {
	gs, ok := h.readGameState(w, r)
	if !ok {
		return
	}
	gs.Metadata.SaveID = saveID

	log := logger.WithSaveID(h.logger, saveID)
	if err := h.storage.SaveGameState(r.Context(), saveID, gs); err != nil {
		log.Error("Failed to save game state", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game state")
		return
	}

	log.Debug("Save replaced")
	h.writeGameState(w, http.StatusOK, gs)
}

func (h *SaveHandler) handleDelete(w http.ResponseWriter, r *http.Request, saveID string) {
	log := logger.WithSaveID(h.logger, saveID)
	if err := h.storage.DeleteGameState(r.Context(), saveID); err != nil {
		log.Error("Failed to delete game state", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game state")
		return
	}
	log.Debug("Save deleted")
	w.WriteHeader(http.StatusNoContent)
}
