package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/module/coordinator"
	"github.com/theref/dkg-coordinator/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIHandler provides the implementation of each of the REST API routes over
// the ritual coordinator.
type APIHandler struct {
	coordinator *coordinator.Coordinator
	logger      zerolog.Logger
}

func NewAPIHandler(c *coordinator.Coordinator, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		coordinator: c,
		logger:      logger.With().Str("component", "rest_api").Logger(),
	}
}

// RitualsGet returns a summary of every ritual in the registry.
func (api *APIHandler) RitualsGet(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	count, err := api.coordinator.NumberOfRituals()
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	summaries := make([]*ritualSummary, 0, count)
	for id := ritual.ID(0); id < ritual.ID(count); id++ {
		state, err := api.coordinator.RitualStatus(id)
		if err != nil {
			api.coordinationError(w, err, errorLogger)
			return
		}
		summaries = append(summaries, &ritualSummary{ID: uint32(id), State: state.String()})
	}

	api.jsonResponse(w, http.StatusOK, summaries, errorLogger)
}

// RitualsPost creates a new ritual and returns its registry position.
func (api *APIHandler) RitualsPost(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	var req createRitualRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err), errorLogger)
		return
	}

	id, err := api.coordinator.InitiateRitual(req.Initiator, req.Providers, req.Authority)
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	api.jsonResponse(w, http.StatusCreated, createRitualResponse{ID: uint32(id)}, errorLogger)
}

// RitualsIdGet returns the full ritual record with its derived state.
func (api *APIHandler) RitualsIdGet(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	id, ok := api.ritualID(w, r, errorLogger)
	if !ok {
		return
	}

	rit, err := api.coordinator.GetRitual(id)
	if errors.Is(err, storage.ErrNotFound) {
		api.errorResponse(w, http.StatusNotFound, fmt.Sprintf("ritual %d not found", id), errorLogger)
		return
	}
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	state, err := api.coordinator.RitualStatus(id)
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	includeTranscript := r.URL.Query().Get("include_transcript") == "true"
	api.jsonResponse(w, http.StatusOK, toRitualResponse(rit, state, includeTranscript), errorLogger)
}

// RitualsIdStatusGet returns the derived state only. An unknown id is not an
// error: it reads as NON_INITIATED.
func (api *APIHandler) RitualsIdStatusGet(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	id, ok := api.ritualID(w, r, errorLogger)
	if !ok {
		return
	}

	state, err := api.coordinator.RitualStatus(id)
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}
	active, err := api.coordinator.IsRitualActive(id)
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	api.jsonResponse(w, http.StatusOK, statusResponse{ID: uint32(id), State: state.String(), Active: active}, errorLogger)
}

// RitualsIdParticipantsGet returns the ritual's participant records, with
// optional pagination.
func (api *APIHandler) RitualsIdParticipantsGet(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	id, ok := api.ritualID(w, r, errorLogger)
	if !ok {
		return
	}

	query := r.URL.Query()
	offset, ok := api.uint32Query(w, query.Get("offset"), "offset", errorLogger)
	if !ok {
		return
	}
	limit, ok := api.uint32Query(w, query.Get("limit"), "limit", errorLogger)
	if !ok {
		return
	}
	includeTranscript := query.Get("include_transcript") == "true"

	participants, err := api.coordinator.GetParticipants(id, offset, limit, includeTranscript)
	if errors.Is(err, storage.ErrNotFound) {
		api.errorResponse(w, http.StatusNotFound, fmt.Sprintf("ritual %d not found", id), errorLogger)
		return
	}
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	resp := make([]*participantResponse, 0, len(participants))
	for _, p := range participants {
		resp = append(resp, toParticipantResponse(p, includeTranscript))
	}
	api.jsonResponse(w, http.StatusOK, resp, errorLogger)
}

// RitualsIdTranscriptsPost admits a first-round transcript submission.
func (api *APIHandler) RitualsIdTranscriptsPost(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	id, ok := api.ritualID(w, r, errorLogger)
	if !ok {
		return
	}

	var req postTranscriptRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err), errorLogger)
		return
	}

	err = api.coordinator.PostTranscript(req.Operator, id, req.Transcript)
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RitualsIdAggregationsPost admits a second-round aggregation submission.
func (api *APIHandler) RitualsIdAggregationsPost(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	id, ok := api.ritualID(w, r, errorLogger)
	if !ok {
		return
	}

	var req postAggregationRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err), errorLogger)
		return
	}

	publicKey, err := ritual.G1PointFromBytes(req.PublicKey)
	if err != nil {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid public key: %s", err), errorLogger)
		return
	}

	err = api.coordinator.PostAggregation(req.Operator, id, req.AggregatedTranscript, publicKey, req.DecryptionRequestStaticKey)
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ProvidersAddressPublicKeyPut records a provider's public key, effective for
// rituals created from this point on.
func (api *APIHandler) ProvidersAddressPublicKeyPut(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	provider, ok := api.providerAddress(w, r, errorLogger)
	if !ok {
		return
	}

	var req providerKeyRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err), errorLogger)
		return
	}

	key, err := ritual.G2PointFromBytes(req.PublicKey)
	if err != nil {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid public key: %s", err), errorLogger)
		return
	}

	err = api.coordinator.SetProviderPublicKey(provider, key)
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ProvidersAddressPublicKeyGet returns a provider's public key as applicable
// to the ritual given in the ritual_id query parameter.
func (api *APIHandler) ProvidersAddressPublicKeyGet(w http.ResponseWriter, r *http.Request) {
	errorLogger := api.requestLogger(r)

	provider, ok := api.providerAddress(w, r, errorLogger)
	if !ok {
		return
	}
	ritualID, ok := api.uint32Query(w, r.URL.Query().Get("ritual_id"), "ritual_id", errorLogger)
	if !ok {
		return
	}

	key, err := api.coordinator.GetProviderPublicKey(provider, ritual.ID(ritualID))
	if errors.Is(err, storage.ErrNotFound) {
		api.errorResponse(w, http.StatusNotFound, fmt.Sprintf("no public key on record for provider %s and ritual %d", provider.Hex(), ritualID), errorLogger)
		return
	}
	if err != nil {
		api.coordinationError(w, err, errorLogger)
		return
	}

	api.jsonResponse(w, http.StatusOK, providerKeyResponse{Provider: provider, PublicKey: key.Bytes()}, errorLogger)
}

func (api *APIHandler) requestLogger(r *http.Request) zerolog.Logger {
	return api.logger.With().Str("request_url", r.URL.String()).Logger()
}

func (api *APIHandler) ritualID(w http.ResponseWriter, r *http.Request, errorLogger zerolog.Logger) (ritual.ID, bool) {
	idParam := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid ritual id %q", idParam), errorLogger)
		return 0, false
	}
	return ritual.ID(id), true
}

func (api *APIHandler) providerAddress(w http.ResponseWriter, r *http.Request, errorLogger zerolog.Logger) (common.Address, bool) {
	addressParam := mux.Vars(r)["address"]
	if !common.IsHexAddress(addressParam) {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid provider address %q", addressParam), errorLogger)
		return common.Address{}, false
	}
	return common.HexToAddress(addressParam), true
}

func (api *APIHandler) uint32Query(w http.ResponseWriter, val, name string, errorLogger zerolog.Logger) (uint32, bool) {
	if val == "" {
		return 0, true
	}
	parsed, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		api.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, val), errorLogger)
		return 0, false
	}
	return uint32(parsed), true
}

// coordinationError maps the coordination error taxonomy to HTTP status
// codes: precondition violations are caller errors, everything else is a
// server fault.
func (api *APIHandler) coordinationError(w http.ResponseWriter, err error, errorLogger zerolog.Logger) {
	switch {
	case coordinator.IsWrongRoundError(err), coordinator.IsAlreadySubmittedError(err), coordinator.IsAggregationMismatchError(err):
		api.errorResponse(w, http.StatusConflict, err.Error(), errorLogger)
	case ritual.IsParticipantNotFoundError(err):
		api.errorResponse(w, http.StatusNotFound, err.Error(), errorLogger)
	case errors.Is(err, storage.ErrNotFound):
		api.errorResponse(w, http.StatusNotFound, err.Error(), errorLogger)
	case coordinator.IsPreconditionError(err):
		api.errorResponse(w, http.StatusBadRequest, err.Error(), errorLogger)
	default:
		errorLogger.Error().Err(err).Msg("internal error handling request")
		api.errorResponse(w, http.StatusInternalServerError, "internal error", errorLogger)
	}
}

func (api *APIHandler) jsonResponse(w http.ResponseWriter, code int, payload any, errorLogger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	encoded, err := json.Marshal(payload)
	if err != nil {
		errorLogger.Error().Err(err).Msg("failed to encode response")
		api.errorResponse(w, http.StatusInternalServerError, "error generating response", errorLogger)
		return
	}
	w.WriteHeader(code)
	_, err = w.Write(encoded)
	if err != nil {
		errorLogger.Error().Err(err).Msg("failed to write response")
	}
}

func (api *APIHandler) errorResponse(w http.ResponseWriter, code int, msg string, errorLogger zerolog.Logger) {
	errorLogger.Debug().Int("status", code).Str("msg", msg).Msg("request rejected")
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
