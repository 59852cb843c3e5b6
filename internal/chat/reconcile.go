package chat

import "mentor-chat/internal/domain"

// Outcome describe qué decidió la reconciliación sobre un evento entrante.
type Outcome int

const (
	// OutcomeAppended: mensaje nuevo, agregado al final.
	OutcomeAppended Outcome = iota
	// OutcomePatched: mensaje conocido, se fijó su marca de lectura.
	OutcomePatched
	// OutcomeDuplicate: reenvío sin información nueva, lista sin cambios.
	OutcomeDuplicate
	// OutcomeOrphanReceipt: acuse de lectura para un mensaje que esta
	// sesión no conoce; se descarta y el llamador lo registra como anomalía.
	OutcomeOrphanReceipt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAppended:
		return "appended"
	case OutcomePatched:
		return "patched"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeOrphanReceipt:
		return "orphan_receipt"
	}
	return "unknown"
}

// Reconcile decide cómo fusionar un evento entrante con la lista actual.
// Es una función total: nunca falla, en el peor caso es un no-op.
//
// Los mensajes nuevos se agregan siempre al final: el orden de entrega del
// transporte se respeta tal cual, sin reordenar por created_at. La marca de
// lectura es monótona: una vez fijada no se borra ni retrocede, por lo que
// aplicar el mismo evento dos veces deja la lista idéntica.
func Reconcile(current []domain.Message, incoming domain.Message) ([]domain.Message, Outcome) {
	for i, m := range current {
		if m.ID != incoming.ID {
			continue
		}
		// Reenvío de un mensaje ya conocido: solo interesa la marca de
		// lectura y solo si todavía no estaba fijada.
		if !incoming.HasReadMarker() || m.HasReadMarker() {
			return current, OutcomeDuplicate
		}
		out := make([]domain.Message, len(current))
		copy(out, current)
		patched := m
		readAt := *incoming.ReadAt
		patched.ReadAt = &readAt
		patched.Read = true
		out[i] = patched
		return out, OutcomePatched
	}

	// Un acuse puro (marca de lectura sin cuerpo) sobre un mensaje que no
	// conocemos no tiene dónde aplicarse.
	if incoming.HasReadMarker() && incoming.Body == "" {
		return current, OutcomeOrphanReceipt
	}

	out := make([]domain.Message, len(current)+1)
	copy(out, current)
	out[len(current)] = incoming
	return out, OutcomeAppended
}
