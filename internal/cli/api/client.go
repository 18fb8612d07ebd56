package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yndnr/stockvoice-go/internal/cli/gateway"
)

// Webhook methods, formats and plans accepted by the backend.
const (
	WebhookPOST = "POST"
	WebhookPUT  = "PUT"

	FormatJSON     = "JSON"
	FormatFormData = "FORM_DATA"

	PlanFree    = "free"
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// ClientConfig is the user's integration configuration.
type ClientConfig struct {
	UserID        string `json:"userId" yaml:"userId"`
	WhatsAppJID   string `json:"whatsappJID" yaml:"whatsappJID"`
	CompanyName   string `json:"companyName" yaml:"companyName"`
	WebhookURL    string `json:"webhookUrl" yaml:"webhookUrl"`
	WebhookMethod string `json:"webhookMethod" yaml:"webhookMethod"`
	WebhookFormat string `json:"webhookFormat" yaml:"webhookFormat"`
	APIToken      string `json:"apiToken" yaml:"apiToken"`
	Plan          string `json:"plan" yaml:"plan"`
}

// ApplyDefaults fills the optional enumerations.
func (c *ClientConfig) ApplyDefaults() {
	if c.WebhookMethod == "" {
		c.WebhookMethod = WebhookPOST
	}
	if c.WebhookFormat == "" {
		c.WebhookFormat = FormatJSON
	}
	if c.Plan == "" {
		c.Plan = PlanFree
	}
}

// Validate checks required fields and enumerations.
func (c ClientConfig) Validate() error {
	if strings.TrimSpace(c.WhatsAppJID) == "" {
		return fmt.Errorf("%w: whatsapp JID is required", ErrInvalid)
	}
	if strings.TrimSpace(c.CompanyName) == "" {
		return fmt.Errorf("%w: company name is required", ErrInvalid)
	}

	u, err := url.Parse(c.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: webhook URL must be an absolute http(s) URL", ErrInvalid)
	}

	switch c.WebhookMethod {
	case WebhookPOST, WebhookPUT:
	default:
		return fmt.Errorf("%w: webhook method must be POST or PUT, got %q", ErrInvalid, c.WebhookMethod)
	}

	switch c.WebhookFormat {
	case FormatJSON, FormatFormData:
	default:
		return fmt.Errorf("%w: webhook format must be JSON or FORM_DATA, got %q", ErrInvalid, c.WebhookFormat)
	}

	switch c.Plan {
	case PlanFree, PlanBasic, PlanPremium:
	default:
		return fmt.Errorf("%w: plan must be free, basic or premium, got %q", ErrInvalid, c.Plan)
	}
	return nil
}

type clientResponse struct {
	Client *ClientConfig `json:"client"`
}

func clientPath(userID string) string {
	return "/clients/" + url.PathEscape(userID)
}

// GetClientConfig fetches the configuration of the logged-in user.
// A missing record or an empty company name yields ErrNoConfig.
func (s *Service) GetClientConfig(ctx context.Context) (*ClientConfig, error) {
	sess, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	var resp clientResponse
	if err := s.gw.Get(ctx, clientPath(sess.UserID), nil, &resp); err != nil {
		if gateway.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %w", ErrNoConfig, err)
		}
		return nil, fmt.Errorf("get client config: %w", err)
	}

	if resp.Client == nil || resp.Client.CompanyName == "" {
		return nil, ErrNoConfig
	}
	return resp.Client, nil
}

// SaveOutcome tells whether a save created or updated the configuration.
type SaveOutcome string

const (
	SaveCreated SaveOutcome = "created"
	SaveUpdated SaveOutcome = "updated"
)

// SaveResult is the outcome of SaveClientConfig.
type SaveResult struct {
	Outcome SaveOutcome
	Message string
}

func (s *Service) prepare(cfg ClientConfig) (ClientConfig, error) {
	sess, err := s.requireSession()
	if err != nil {
		return cfg, err
	}
	cfg.UserID = sess.UserID
	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

// UpdateClientConfig replaces the existing configuration.
func (s *Service) UpdateClientConfig(ctx context.Context, cfg ClientConfig) (string, error) {
	cfg, err := s.prepare(cfg)
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := s.gw.Put(ctx, clientPath(cfg.UserID), cfg, &resp); err != nil {
		return "", fmt.Errorf("update client config: %w", err)
	}
	return resp.Message, nil
}

// CreateClientConfig registers a new configuration.
func (s *Service) CreateClientConfig(ctx context.Context, cfg ClientConfig) (string, error) {
	cfg, err := s.prepare(cfg)
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := s.gw.Post(ctx, "/clients", cfg, &resp); err != nil {
		return "", fmt.Errorf("create client config: %w", err)
	}
	return resp.Message, nil
}

// SaveClientConfig updates the configuration, creating it when the update
// answers 404. Any other update failure is returned without a create attempt.
func (s *Service) SaveClientConfig(ctx context.Context, cfg ClientConfig) (SaveResult, error) {
	msg, err := s.UpdateClientConfig(ctx, cfg)
	if err == nil {
		return SaveResult{Outcome: SaveUpdated, Message: msg}, nil
	}
	if !gateway.IsNotFound(err) {
		return SaveResult{}, err
	}

	msg, err = s.CreateClientConfig(ctx, cfg)
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Outcome: SaveCreated, Message: msg}, nil
}
