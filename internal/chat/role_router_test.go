package chat

import (
	"errors"
	"testing"

	"mentor-chat/internal/domain"
)

func TestResolveRoleAutoSelects(t *testing.T) {
	role, err := ResolveRole(domain.User{Roles: []string{domain.RoleNameStudent}})
	if err != nil || role != domain.RoleStudent {
		t.Fatalf("expected student role, got %q err=%v", role, err)
	}

	role, err = ResolveRole(domain.User{Roles: []string{domain.RoleNameMentor}})
	if err != nil || role != domain.RoleMentor {
		t.Fatalf("expected mentor role, got %q err=%v", role, err)
	}
}

func TestResolveRoleBothRequireChoice(t *testing.T) {
	_, err := ResolveRole(domain.User{Roles: []string{domain.RoleNameStudent, domain.RoleNameMentor}})
	if !errors.Is(err, domain.ErrRoleChoiceRequired) {
		t.Fatalf("expected ErrRoleChoiceRequired, got %v", err)
	}
}

func TestResolveRoleNoneIsDenied(t *testing.T) {
	_, err := ResolveRole(domain.User{Roles: []string{"ROLE_ADMIN"}})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}
