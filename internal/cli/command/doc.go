// Package command defines the stockvoice-cli commands with urfave/cli/v2.
//
//   - root.go: application, global flags, lazily built runtime
//   - auth.go: register, login, logout, whoami
//   - client.go: integration configuration (client show, client save)
//   - product.go: product list
//   - whatsapp.go: WhatsApp pairing (connect, disconnect, qr)
//   - config.go: CLI configuration (config show, validate, init)
//   - shell.go: interactive shell running the commands in-process
//
// Commands parse flags, call the api service and print through the
// formatter selected by --output.
package command
