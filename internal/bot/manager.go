package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mjai-relay/mjai-relay/internal/mjapi"
	"go.uber.org/zap"
)

// Credentials identifies the MJAPI account. A SessionID takes precedence
// over user/secret login; an empty User triggers registration under a
// generated name.
type Credentials struct {
	User      string
	Secret    string
	SessionID string
}

// ModelSelection names the remote model to use per game variant. Empty or
// unknown selections fall back to the first model the service offers for
// that variant.
type ModelSelection struct {
	Model4P string
	Model3P string
}

// Manager owns the service account and the remote bot lifecycle that
// brackets game sessions. Construction logs in (or registers), discovers the
// available models and derives the supported game modes; Close releases the
// remote resources.
type Manager struct {
	client *mjapi.Client
	relay  Config
	logger *zap.Logger

	model4P   string
	model3P   string
	supported []Mode
	usage     int
}

// NewManager authenticates against the service and validates the model
// selection. A service offering no models at all is a fatal setup error.
func NewManager(ctx context.Context, client *mjapi.Client, creds Credentials, sel ModelSelection, relay Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		client: client,
		relay:  relay.withDefaults(),
		logger: logger,
	}
	if err := m.login(ctx, creds); err != nil {
		return nil, err
	}
	if err := m.configureModels(ctx, sel); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) login(ctx context.Context, creds Credentials) error {
	if creds.SessionID != "" {
		return m.client.LoginWithSession(ctx, creds.SessionID)
	}

	user := creds.User
	if user == "" {
		user = "bot-" + uuid.NewString()[:6]
		m.logger.Info("no username configured, registering a generated one",
			zap.String("user", user),
		)
	}
	secret := creds.Secret
	if secret == "" {
		registered, err := m.client.Register(ctx, user)
		if err != nil {
			return err
		}
		secret = registered
		// The service never reveals the secret again; the operator must
		// persist it to reuse this account.
		m.logger.Warn("registered new account, save these credentials",
			zap.String("user", user),
			zap.String("secret", secret),
		)
	}
	return m.client.Login(ctx, user, secret)
}

func (m *Manager) configureModels(ctx context.Context, sel ModelSelection) error {
	models, err := m.client.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return fmt.Errorf("no models available from service")
	}

	models4P := filterModels(models, "4p")
	models3P := filterModels(models, "3p")
	m.logger.Info("available models",
		zap.Strings("models_4p", models4P),
		zap.Strings("models_3p", models3P),
	)

	if len(models4P) > 0 {
		m.model4P = pickModel(models4P, sel.Model4P, m.logger)
		m.supported = append(m.supported, Mode4P)
	}
	if len(models3P) > 0 {
		m.model3P = pickModel(models3P, sel.Model3P, m.logger)
		m.supported = append(m.supported, Mode3P)
	}

	if usage, err := m.client.Usage(ctx); err == nil {
		m.usage = usage
	} else {
		m.logger.Warn("could not fetch usage", zap.Error(err))
	}
	return nil
}

// SupportedModes returns the game modes the discovered models can serve.
func (m *Manager) SupportedModes() []Mode {
	return m.supported
}

// Usage returns the account usage counter as of the last refresh.
func (m *Manager) Usage() int {
	return m.usage
}

// ModelFor returns the model name serving the given mode.
func (m *Manager) ModelFor(mode Mode) (string, error) {
	var model string
	switch mode {
	case Mode4P:
		model = m.model4P
	case Mode3P:
		model = m.model3P
	}
	if model == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	return model, nil
}

// StartGame starts a remote bot for one game and returns the session that
// relays its events. The remote side sizes its message buffer to the relay
// bound, so sequence ids wrap consistently on both ends.
func (m *Manager) StartGame(ctx context.Context, seat int, mode Mode) (*Session, error) {
	model, err := m.ModelFor(mode)
	if err != nil {
		return nil, err
	}
	if err := m.client.StartBot(ctx, seat, m.relay.Bound, model); err != nil {
		return nil, err
	}
	m.logger.Info("game started",
		zap.Int("seat", seat),
		zap.String("mode", string(mode)),
		zap.String("model", model),
	)
	return NewSession(seat, mode, m.relay, m.client, m.logger)
}

// StopGame releases the remote bot after a game ends.
func (m *Manager) StopGame(ctx context.Context) error {
	return m.client.StopBot(ctx)
}

// Close stops any remote bot, refreshes the usage counter and logs out.
func (m *Manager) Close(ctx context.Context) error {
	if err := m.client.StopBot(ctx); err != nil {
		m.logger.Debug("stop bot on close", zap.Error(err))
	}
	if usage, err := m.client.Usage(ctx); err == nil {
		m.usage = usage
		m.logger.Info("final usage", zap.Int("usage", usage))
	}
	if err := m.client.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func filterModels(models []string, variant string) []string {
	var out []string
	for _, m := range models {
		if strings.Contains(m, variant) {
			out = append(out, m)
		}
	}
	return out
}

func pickModel(available []string, selected string, logger *zap.Logger) string {
	for _, m := range available {
		if m == selected {
			return m
		}
	}
	if selected != "" {
		logger.Warn("selected model not available, falling back",
			zap.String("selected", selected),
			zap.String("fallback", available[0]),
		)
	}
	return available[0]
}
