package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/theref/dkg-coordinator/admin"
	"github.com/theref/dkg-coordinator/admin/commands"
	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/module/coordinator"
	"github.com/theref/dkg-coordinator/storage"
)

var _ commands.AdminCommand = (*ReadRitualCommand)(nil)

// ReadRitualCommand is an admin command which dumps a ritual record together
// with its currently derived state.
type ReadRitualCommand struct {
	coordinator *coordinator.Coordinator
}

func NewReadRitualCommand(c *coordinator.Coordinator) *ReadRitualCommand {
	return &ReadRitualCommand{
		coordinator: c,
	}
}

func (r *ReadRitualCommand) Handler(_ context.Context, req *admin.CommandRequest) (any, error) {
	id := req.ValidatorData.(ritual.ID)

	rit, err := r.coordinator.GetRitual(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, admin.NewInvalidAdminReqErrorf("ritual %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read ritual %d: %w", id, err)
	}

	state, err := r.coordinator.RitualStatus(id)
	if err != nil {
		return nil, fmt.Errorf("could not derive state of ritual %d: %w", id, err)
	}

	participants := make([]map[string]any, 0, len(rit.Participants))
	for _, p := range rit.Participants {
		participants = append(participants, map[string]any{
			"provider":         p.Provider.Hex(),
			"transcriptDigest": p.TranscriptDigest.Hex(),
			"aggregated":       p.Aggregated,
		})
	}

	res := map[string]any{
		"id":                uint32(rit.ID),
		"initiator":         rit.Initiator.Hex(),
		"authority":         rit.Authority.Hex(),
		"initTimestamp":     rit.InitTimestamp,
		"dkgSize":           rit.DKGSize,
		"threshold":         rit.Threshold,
		"totalTranscripts":  rit.TotalTranscripts,
		"totalAggregations": rit.TotalAggregations,
		"state":             state.String(),
		"participants":      participants,
	}
	if rit.PublicKey != nil {
		res["publicKey"] = rit.PublicKey.String()
	}

	return res, nil
}

// Validator validates the request.
// Returns admin.InvalidAdminReqError for invalid/malformed requests.
func (r *ReadRitualCommand) Validator(req *admin.CommandRequest) error {
	mval, ok := req.Data.(map[string]any)
	if !ok {
		return admin.NewInvalidAdminReqFormatError("expected map[string]any")
	}

	val, ok := mval["ritual"]
	if !ok {
		return admin.NewInvalidAdminReqErrorf("the 'ritual' field is required")
	}

	// JSON numbers decode as float64
	id, ok := val.(float64)
	if !ok || id < 0 || id != float64(uint32(id)) {
		return admin.NewInvalidAdminReqParameterError("ritual", "must be a non-negative ritual id", val)
	}

	req.ValidatorData = ritual.ID(id)
	return nil
}
