package conversation

import "github.com/PabloGalante/messenger/internal/domain"

// Thread keeps the messages exchanged between me and them, in fetched order.
// Thread(msgs, a, b) and Thread(msgs, b, a) are equal.
func Thread(msgs []domain.Message, me, them string) []domain.Message {
	out := []domain.Message{}
	for _, m := range msgs {
		if (m.Sender == me && m.Receiver == them) || (m.Sender == them && m.Receiver == me) {
			out = append(out, m)
		}
	}
	return out
}
