package admin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CommandRequest is a parsed admin command invocation. Validator functions
// may set ValidatorData, which persists when the request reaches the Handler.
type CommandRequest struct {
	Data          any
	ValidatorData any
}

// CommandHandler applies a validated admin request and returns the values to
// display to the request's initiator.
type CommandHandler func(ctx context.Context, request *CommandRequest) (any, error)

// CommandValidator checks that a request forms a valid command invocation.
// It must return InvalidAdminReqError for invalid requests.
type CommandValidator func(request *CommandRequest) error

type command struct {
	validator CommandValidator
	handler   CommandHandler
}

// CommandRunner dispatches admin commands received over HTTP to their
// registered handlers.
type CommandRunner struct {
	mu       sync.RWMutex
	log      zerolog.Logger
	commands map[string]command
}

func NewCommandRunner(log zerolog.Logger) *CommandRunner {
	return &CommandRunner{
		log:      log.With().Str("component", "admin_server").Logger(),
		commands: make(map[string]command),
	}
}

// RegisterHandler makes the given command available under the given name.
// Re-registering a name replaces the previous command.
func (r *CommandRunner) RegisterHandler(name string, validator CommandValidator, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = command{validator: validator, handler: handler}
}

// RunCommand validates and executes a single admin command.
func (r *CommandRunner) RunCommand(ctx context.Context, name string, data any) (any, error) {
	r.mu.RLock()
	cmd, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NewInvalidAdminReqErrorf("invalid command: %s", name)
	}

	request := &CommandRequest{Data: data}
	err := cmd.validator(request)
	if err != nil {
		return nil, err
	}

	result, err := cmd.handler(ctx, request)
	if err != nil {
		return nil, err
	}

	r.log.Info().Str("command", name).Msg("admin command executed")
	return result, nil
}

type runCommandRequest struct {
	CommandName string `json:"commandName"`
	Data        any    `json:"data"`
}

// ServeHTTP handles `POST /admin/run_command` requests carrying a JSON body
// with the command name and its data.
func (r *CommandRunner) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	var body runCommandRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.CommandName == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("commandName is required"))
		return
	}

	result, err := r.RunCommand(req.Context(), body.CommandName, body.Data)
	if err != nil {
		if IsInvalidAdminReqError(err) {
			writeError(w, http.StatusBadRequest, err)
		} else {
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"output": result})
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
}

// Server is the http server exposing the admin command endpoint, bound to
// localhost only.
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

func NewServer(log zerolog.Logger, port uint, runner *CommandRunner) *Server {
	addr := "localhost:" + strconv.Itoa(int(port))

	mux := http.NewServeMux()
	mux.Handle("/admin/run_command", runner)

	return &Server{
		server: &http.Server{Addr: addr, Handler: mux},
		log:    log.With().Str("component", "admin_server").Logger(),
	}
}

// Ready starts the server and returns a channel that closes once it is
// accepting requests.
func (s *Server) Ready() <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		s.log.Info().Str("address", s.server.Addr).Msg("admin server started")
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.log.Err(err).Msg("admin server failed")
		}
	}()
	go func() {
		close(ready)
	}()
	return ready
}

// Done shuts the server down and returns a channel that closes when shutdown
// is complete.
func (s *Server) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.server.Shutdown(ctx)
		cancel()
		close(done)
	}()
	return done
}
