package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/yndnr/stockvoice-go/internal/cli/gateway"
)

func validConfig() ClientConfig {
	return ClientConfig{
		WhatsAppJID: "5521999999999@s.whatsapp.net",
		CompanyName: "Loja da Ana",
		WebhookURL:  "https://loja.example.com/api/estoque",
	}
}

func TestClientConfig_ApplyDefaults(t *testing.T) {
	var c ClientConfig
	c.ApplyDefaults()
	if c.WebhookMethod != WebhookPOST || c.WebhookFormat != FormatJSON || c.Plan != PlanFree {
		t.Errorf("defaults = %+v", c)
	}

	c = ClientConfig{WebhookMethod: WebhookPUT, WebhookFormat: FormatFormData, Plan: PlanPremium}
	c.ApplyDefaults()
	if c.WebhookMethod != WebhookPUT || c.WebhookFormat != FormatFormData || c.Plan != PlanPremium {
		t.Errorf("explicit values overwritten: %+v", c)
	}
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr bool
	}{
		{"valid", func(*ClientConfig) {}, false},
		{"missing jid", func(c *ClientConfig) { c.WhatsAppJID = "" }, true},
		{"missing company", func(c *ClientConfig) { c.CompanyName = " " }, true},
		{"relative webhook", func(c *ClientConfig) { c.WebhookURL = "/api/estoque" }, true},
		{"ftp webhook", func(c *ClientConfig) { c.WebhookURL = "ftp://x.com/a" }, true},
		{"bad method", func(c *ClientConfig) { c.WebhookMethod = "PATCH" }, true},
		{"bad format", func(c *ClientConfig) { c.WebhookFormat = "XML" }, true},
		{"bad plan", func(c *ClientConfig) { c.Plan = "gold" }, true},
		{"basic plan", func(c *ClientConfig) { c.Plan = PlanBasic }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.ApplyDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error should wrap ErrInvalid: %v", err)
			}
		})
	}
}

func TestClientConfig_JSONFields(t *testing.T) {
	data, _ := json.Marshal(ClientConfig{UserID: "u1", WhatsAppJID: "j", APIToken: ""})
	var m map[string]any
	json.Unmarshal(data, &m)

	for _, key := range []string{"userId", "whatsappJID", "companyName", "webhookUrl", "webhookMethod", "webhookFormat", "apiToken", "plan"} {
		if _, ok := m[key]; !ok {
			t.Errorf("field %q missing from %s", key, data)
		}
	}
}

func TestGetClientConfig_NotAuthenticated(t *testing.T) {
	svc, fb, _ := newTestService(t)

	_, err := svc.GetClientConfig(t.Context())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
	if len(fb.callLog()) != 0 {
		t.Error("nothing should be dispatched while anonymous")
	}
}

func TestGetClientConfig_None(t *testing.T) {
	svc, _, store := loggedIn(t)

	_, err := svc.GetClientConfig(t.Context())
	if !errors.Is(err, ErrNoConfig) {
		t.Fatalf("error = %v, want ErrNoConfig", err)
	}
	if !gateway.IsNotFound(err) {
		t.Error("ErrNoConfig from a 404 should keep the gateway error")
	}
	if _, ok := store.Read(); !ok {
		t.Error("404 must not clear the session")
	}
}

func TestGetClientConfig_EmptyCompany(t *testing.T) {
	svc, fb, _ := loggedIn(t)
	fb.setClient(ClientConfig{UserID: "u-ana"})

	_, err := svc.GetClientConfig(t.Context())
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("error = %v, want ErrNoConfig", err)
	}
}

func TestSaveClientConfig_CreateThenUpdate(t *testing.T) {
	svc, fb, _ := loggedIn(t)
	base := len(fb.callLog())

	res, err := svc.SaveClientConfig(t.Context(), validConfig())
	if err != nil {
		t.Fatalf("first save error = %v", err)
	}
	if res.Outcome != SaveCreated || res.Message != "Cliente cadastrado" {
		t.Errorf("first save = %+v", res)
	}

	want := []string{"PUT /clients/u-ana", "POST /clients"}
	if got := fb.callLog()[base:]; !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	stored := fb.client("u-ana")
	if stored.UserID != "u-ana" || stored.Plan != PlanFree || stored.WebhookMethod != WebhookPOST {
		t.Errorf("stored = %+v", stored)
	}

	cfg := validConfig()
	cfg.Plan = PlanPremium
	res, err = svc.SaveClientConfig(t.Context(), cfg)
	if err != nil {
		t.Fatalf("second save error = %v", err)
	}
	if res.Outcome != SaveUpdated {
		t.Errorf("second save outcome = %v", res.Outcome)
	}

	got, err := svc.GetClientConfig(t.Context())
	if err != nil {
		t.Fatalf("GetClientConfig() error = %v", err)
	}
	if got.Plan != PlanPremium || got.CompanyName != "Loja da Ana" {
		t.Errorf("config = %+v", got)
	}
}

func TestSaveClientConfig_OtherFailureNoCreate(t *testing.T) {
	svc, fb, _ := loggedIn(t)
	fb.setFailPut(http.StatusInternalServerError)
	base := len(fb.callLog())

	_, err := svc.SaveClientConfig(t.Context(), validConfig())
	if !errors.Is(err, gateway.ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
	if got := fb.callLog()[base:]; len(got) != 1 {
		t.Errorf("calls = %v, want only the PUT", got)
	}
}

func TestSaveClientConfig_InvalidNotSent(t *testing.T) {
	svc, fb, _ := loggedIn(t)
	base := len(fb.callLog())

	cfg := validConfig()
	cfg.WebhookURL = "not a url"
	_, err := svc.SaveClientConfig(t.Context(), cfg)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("error = %v, want ErrInvalid", err)
	}
	if len(fb.callLog()) != base {
		t.Error("invalid config should not be sent")
	}
}

func TestSaveClientConfig_NotAuthenticated(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SaveClientConfig(t.Context(), validConfig())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("error = %v, want ErrNotAuthenticated", err)
	}
}
