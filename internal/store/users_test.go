package store

import (
	"context"
	"testing"

	"github.com/erazemk/ewaste/internal/db"
	"github.com/erazemk/ewaste/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, " Ops@Campus.edu ", "Ops Desk", "hash123", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Email != "ops@campus.edu" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Name != "Ops Desk" {
		t.Errorf("expected name 'Ops Desk', got %q", user.Name)
	}
	if user.Role != model.RoleUser {
		t.Errorf("expected role 'user', got %q", user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "ops@campus.edu" {
		t.Errorf("expected email 'ops@campus.edu', got %q", got.Email)
	}

	missing, err := GetUser(ctx, database, 999)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestGetUserByEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice@campus.edu", "", "hash", model.RoleAdmin)

	user, err := GetUserByEmail(ctx, database, "ALICE@campus.edu")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("expected admin, got %q", user.Role)
	}

	missing, err := GetUserByEmail(ctx, database, "bob@campus.edu")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListAndCountUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a@x.io", "", "hash", model.RoleUser)
	CreateUser(ctx, database, "b@x.io", "", "hash", model.RoleManager)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	n, err := CountUsers(ctx, database)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}
}

func TestDeleteUserFreesEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme@x.io", "", "hash", model.RoleUser)
	DeleteUser(ctx, database, user.ID)

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	if found, _ := GetUserByEmail(ctx, database, "deleteme@x.io"); found != nil {
		t.Error("expected deleted user to be hidden from email lookup")
	}

	if _, err := CreateUser(ctx, database, "deleteme@x.io", "", "hash", model.RoleUser); err != nil {
		t.Errorf("expected email reuse after delete, got %v", err)
	}
}

func TestUpdateUserRoleAndPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pw@x.io", "", "oldhash", model.RoleUser)
	UpdateUserPassword(ctx, database, user.ID, "newhash")
	UpdateUserRole(ctx, database, user.ID, model.RoleManager)

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
	if got.Role != model.RoleManager {
		t.Errorf("expected manager, got %q", got.Role)
	}
}
