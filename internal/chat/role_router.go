package chat

import "mentor-chat/internal/domain"

// ResolveRole decide bajo qué rol se instancia la sesión de chat.
// Con exactamente una capacidad el rol se autoselecciona; con ambas el
// usuario debe elegir (la elección vive solo lo que dura la sesión); sin
// ninguna no se crea sesión.
func ResolveRole(user domain.User) (domain.Role, error) {
	switch {
	case user.IsMentor() && user.IsStudent():
		return "", domain.ErrRoleChoiceRequired
	case user.IsMentor():
		return domain.RoleMentor, nil
	case user.IsStudent():
		return domain.RoleStudent, nil
	}
	return "", domain.ErrAccessDenied
}
