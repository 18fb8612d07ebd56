package api

import (
	"context"
	"fmt"
	"net/url"
)

// ArtifactKind classifies a pairing artifact.
type ArtifactKind int

const (
	// ArtifactNone means the bot is connected or no code is available yet.
	ArtifactNone ArtifactKind = iota
	ArtifactQRCode
	ArtifactPairingCode
)

// String returns the kind name.
func (k ArtifactKind) String() string {
	switch k {
	case ArtifactQRCode:
		return "qr_code"
	case ArtifactPairingCode:
		return "pairing_code"
	default:
		return "none"
	}
}

// PairingArtifact is the answer of /bot/qr and /connect/whatsapp/{id}.
// Its contents are opaque to the console.
type PairingArtifact struct {
	Message     string `json:"message" yaml:"message"`
	QRCode      string `json:"qrCode,omitempty" yaml:"qrCode,omitempty"`
	PairingCode string `json:"pairingCode,omitempty" yaml:"pairingCode,omitempty"`
}

// Kind returns the artifact kind. A pairing code wins over a QR code.
func (a PairingArtifact) Kind() ArtifactKind {
	switch {
	case a.PairingCode != "":
		return ArtifactPairingCode
	case a.QRCode != "":
		return ArtifactQRCode
	default:
		return ArtifactNone
	}
}

// Value returns the code to display for the artifact kind.
func (a PairingArtifact) Value() string {
	switch a.Kind() {
	case ArtifactPairingCode:
		return a.PairingCode
	case ArtifactQRCode:
		return a.QRCode
	default:
		return ""
	}
}

// FetchPairingArtifact reads the current QR or pairing code.
func (s *Service) FetchPairingArtifact(ctx context.Context) (PairingArtifact, error) {
	if _, err := s.requireSession(); err != nil {
		return PairingArtifact{}, err
	}

	var a PairingArtifact
	if err := s.gw.Get(ctx, "/bot/qr", nil, &a); err != nil {
		return PairingArtifact{}, fmt.Errorf("fetch pairing code: %w", err)
	}
	return a, nil
}

// ConnectWhatsApp starts a pairing session for the logged-in user.
func (s *Service) ConnectWhatsApp(ctx context.Context) (PairingArtifact, error) {
	sess, err := s.requireSession()
	if err != nil {
		return PairingArtifact{}, err
	}

	var a PairingArtifact
	path := "/connect/whatsapp/" + url.PathEscape(sess.UserID)
	if err := s.gw.Post(ctx, path, struct{}{}, &a); err != nil {
		return PairingArtifact{}, fmt.Errorf("connect whatsapp: %w", err)
	}
	return a, nil
}

// DisconnectWhatsApp ends the pairing session and returns the backend message.
func (s *Service) DisconnectWhatsApp(ctx context.Context) (string, error) {
	sess, err := s.requireSession()
	if err != nil {
		return "", err
	}

	var resp messageResponse
	path := "/disconnect/whatsapp/" + url.PathEscape(sess.UserID)
	if err := s.gw.Post(ctx, path, struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("disconnect whatsapp: %w", err)
	}
	return resp.Message, nil
}
