package sourcing

import (
	"testing"

	"github.com/Abukstech/folocom/internal/user"
)

func TestViewAndCancelPredicates(t *testing.T) {
	r := &Request{ID: "req-1", UserID: "owner"}

	if !CanView("owner", user.RoleBuyer, r) {
		t.Fatalf("expected owner can view")
	}
	if !CanView("someone-else", user.RoleAdmin, r) {
		t.Fatalf("expected admin can view")
	}
	if CanView("someone-else", user.RoleBuyer, r) {
		t.Fatalf("expected stranger cannot view")
	}
	if CanView("owner", user.RoleBuyer, nil) {
		t.Fatalf("expected nil record not viewable")
	}

	if !CanCancel("owner", user.RoleMechanic, r) {
		t.Fatalf("expected owner can cancel")
	}
	if !CanCancel("ops", user.RoleAdmin, r) {
		t.Fatalf("expected admin can cancel")
	}
	if CanCancel("someone-else", user.RoleSeller, r) {
		t.Fatalf("expected stranger cannot cancel")
	}

	if !CanDelete("owner", user.RoleBuyer, r) || !CanDelete("ops", user.RoleAdmin, r) {
		t.Fatalf("expected owner and admin can delete")
	}
	if CanDelete("someone-else", user.RoleBuyer, r) {
		t.Fatalf("expected stranger cannot delete")
	}
}

func TestSelfEditExcludesStaff(t *testing.T) {
	r := &Request{ID: "req-1", UserID: "owner"}

	if !CanSelfEdit("owner", r) {
		t.Fatalf("expected owner can self-edit")
	}
	// 自助修改只看归属：管理员不是归属人就不能走这条通道
	if CanSelfEdit("admin-user", r) {
		t.Fatalf("expected non-owner (even staff) cannot self-edit")
	}

	if !CanAcceptQuote("owner", r) {
		t.Fatalf("expected owner can accept quote")
	}
	if CanAcceptQuote("admin-user", r) {
		t.Fatalf("expected non-owner cannot accept quote")
	}
}

func TestListAllStaffOnly(t *testing.T) {
	if !CanListAll(user.RoleAdmin) {
		t.Fatalf("expected admin can list all")
	}
	for _, role := range []user.Role{user.RoleBuyer, user.RoleSeller, user.RoleMechanic} {
		if CanListAll(role) {
			t.Fatalf("expected %s cannot list all", role)
		}
	}
}
