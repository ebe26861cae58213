package common

import (
	"context"

	"github.com/theref/dkg-coordinator/admin"
	"github.com/theref/dkg-coordinator/admin/commands"
	"github.com/theref/dkg-coordinator/module/updatable_configs"
)

var _ commands.AdminCommand = (*GetConfigCommand)(nil)

// GetConfigCommand is an admin command which retrieves the current value of a
// dynamically updatable config field, or of all fields when no name is given.
type GetConfigCommand struct {
	configs *updatable_configs.Manager
}

func NewGetConfigCommand(configs *updatable_configs.Manager) *GetConfigCommand {
	return &GetConfigCommand{
		configs: configs,
	}
}

func (g *GetConfigCommand) Handler(_ context.Context, req *admin.CommandRequest) (any, error) {
	if name, ok := req.ValidatorData.(string); ok && name != "" {
		field, _ := g.configs.GetField(name)
		return map[string]any{field.Name: field.Get()}, nil
	}

	res := make(map[string]any)
	for _, field := range g.configs.AllFields() {
		res[field.Name] = field.Get()
	}
	return res, nil
}

// Validator validates the request.
// Returns admin.InvalidAdminReqError for invalid/malformed requests.
func (g *GetConfigCommand) Validator(req *admin.CommandRequest) error {
	// no data means: return all fields
	if req.Data == nil {
		return nil
	}

	name, ok := req.Data.(string)
	if !ok {
		return admin.NewInvalidAdminReqFormatError("expected a config field name string")
	}

	_, ok = g.configs.GetField(name)
	if !ok {
		return admin.NewInvalidAdminReqErrorf("unknown config field: %s", name)
	}

	req.ValidatorData = name
	return nil
}
