package domain

import "testing"

func TestUserRoleHelpers(t *testing.T) {
	student := User{Roles: []string{RoleNameStudent}}
	if !student.IsStudent() || student.IsMentor() {
		t.Fatalf("expected student-only, got %v", student.Roles)
	}

	mentor := User{Roles: []string{RoleNameMentor}}
	if !mentor.IsMentor() || mentor.IsStudent() {
		t.Fatalf("expected mentor-only, got %v", mentor.Roles)
	}

	both := User{Roles: []string{RoleNameStudent, RoleNameMentor}}
	if !both.IsStudent() || !both.IsMentor() {
		t.Fatalf("expected both roles, got %v", both.Roles)
	}

	none := User{Roles: []string{"ROLE_ADMIN"}}
	if none.IsStudent() || none.IsMentor() {
		t.Fatalf("expected no chat roles, got %v", none.Roles)
	}
}
