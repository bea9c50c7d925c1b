package role

import "testing"

func TestParse(t *testing.T) {
	for _, s := range []string{"admin", "superadmin", "rep", "photographer", "editor", "client"} {
		if _, err := Parse(s); err != nil {
			t.Fatalf("expected %q to parse: %v", s, err)
		}
	}
	if _, err := Parse("manager"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestCapabilityClasses(t *testing.T) {
	if !RoleSuperAdmin.AdminClass() || !RoleAdmin.AdminClass() {
		t.Fatalf("admin and superadmin are admin-class")
	}
	if RoleRep.AdminClass() {
		t.Fatalf("rep is not admin-class")
	}
	if !RoleRep.RepClass() || !RoleAdmin.RepClass() {
		t.Fatalf("rep and admin-class roles are rep-class")
	}
	if RoleClient.RepClass() || RolePhotographer.RepClass() {
		t.Fatalf("client and photographer are not rep-class")
	}
	if !RoleClient.IsClient() || RoleRep.IsClient() {
		t.Fatalf("IsClient must hold exactly for the client role")
	}
}
