package rest

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/theref/dkg-coordinator/model/ritual"
)

// ritualResponse is the full JSON representation of a ritual record together
// with its currently derived state.
type ritualResponse struct {
	ID                uint32                 `json:"id"`
	Initiator         common.Address         `json:"initiator"`
	Authority         common.Address         `json:"authority"`
	InitTimestamp     time.Time              `json:"init_timestamp"`
	DKGSize           uint32                 `json:"dkg_size"`
	Threshold         uint32                 `json:"threshold"`
	TotalTranscripts  uint32                 `json:"total_transcripts"`
	TotalAggregations uint32                 `json:"total_aggregations"`
	State             string                 `json:"state"`
	PublicKey         *hexutil.Bytes         `json:"public_key,omitempty"`
	Participants      []*participantResponse `json:"participants"`
}

type participantResponse struct {
	Provider         common.Address `json:"provider"`
	TranscriptDigest common.Hash    `json:"transcript_digest"`
	Aggregated       bool           `json:"aggregated"`
	Transcript       hexutil.Bytes  `json:"transcript,omitempty"`
}

type ritualSummary struct {
	ID    uint32 `json:"id"`
	State string `json:"state"`
}

type statusResponse struct {
	ID     uint32 `json:"id"`
	State  string `json:"state"`
	Active bool   `json:"active"`
}

type createRitualRequest struct {
	Initiator common.Address   `json:"initiator"`
	Authority common.Address   `json:"authority"`
	Providers []common.Address `json:"providers"`
}

type createRitualResponse struct {
	ID uint32 `json:"id"`
}

type postTranscriptRequest struct {
	Operator   common.Address `json:"operator"`
	Transcript hexutil.Bytes  `json:"transcript"`
}

type postAggregationRequest struct {
	Operator                   common.Address `json:"operator"`
	AggregatedTranscript       hexutil.Bytes  `json:"aggregated_transcript"`
	PublicKey                  hexutil.Bytes  `json:"public_key"`
	DecryptionRequestStaticKey hexutil.Bytes  `json:"decryption_request_static_key"`
}

type providerKeyRequest struct {
	PublicKey hexutil.Bytes `json:"public_key"`
}

type providerKeyResponse struct {
	Provider  common.Address `json:"provider"`
	PublicKey hexutil.Bytes  `json:"public_key"`
}

func toRitualResponse(r *ritual.Ritual, state ritual.State, includeTranscript bool) *ritualResponse {
	resp := &ritualResponse{
		ID:                uint32(r.ID),
		Initiator:         r.Initiator,
		Authority:         r.Authority,
		InitTimestamp:     r.InitTimestamp,
		DKGSize:           r.DKGSize,
		Threshold:         r.Threshold,
		TotalTranscripts:  r.TotalTranscripts,
		TotalAggregations: r.TotalAggregations,
		State:             state.String(),
		Participants:      make([]*participantResponse, 0, len(r.Participants)),
	}
	if r.PublicKey != nil {
		pk := hexutil.Bytes(r.PublicKey.Bytes())
		resp.PublicKey = &pk
	}
	for _, p := range r.Participants {
		resp.Participants = append(resp.Participants, toParticipantResponse(p, includeTranscript))
	}
	return resp
}

func toParticipantResponse(p *ritual.Participant, includeTranscript bool) *participantResponse {
	resp := &participantResponse{
		Provider:         p.Provider,
		TranscriptDigest: p.TranscriptDigest,
		Aggregated:       p.Aggregated,
	}
	if includeTranscript {
		resp.Transcript = p.Transcript
	}
	return resp
}
