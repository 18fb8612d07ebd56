// Package main provides the entry point for stockvoice-cli.
//
// stockvoice-cli configures the WhatsApp stock voice bot from a terminal:
//
//   - Account registration and sign-in (the session is kept on disk)
//   - Integration configuration (webhook, plan, WhatsApp JID)
//   - Product listing
//   - WhatsApp pairing with a terminal QR code or a pairing code
//
// Usage:
//
//	stockvoice-cli login --email ana@loja.com --password ...
//	stockvoice-cli product list --search queijo
//	stockvoice-cli whatsapp qr --watch
//	stockvoice-cli shell
package main
