package output

import (
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"
)

// PairURL is where a pairing code is entered.
const PairURL = "https://web.whatsapp.com/pair"

// RenderQR draws text as a QR code using half-block characters.
func RenderQR(w io.Writer, text string) {
	qrterminal.GenerateHalfBlock(text, qrterminal.M, w)
}

// RenderPairingCode prints a pairing code with entry instructions.
func RenderPairingCode(w io.Writer, code string) {
	fmt.Fprintf(w, "Pairing code: %s\n", code)
	fmt.Fprintf(w, "Open WhatsApp > Linked devices > Link with phone number, or visit %s\n", PairURL)
}
