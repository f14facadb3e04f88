package validate_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/app/system/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type signup struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,signuprole"`
}

type decide struct {
	RequestID string `json:"requestId" validate:"required,objectid"`
	Status    string `json:"status" validate:"required,decision"`
}

func TestStruct_Valid(t *testing.T) {
	err := validate.Struct(signup{Name: "Ada", Email: "ada@example.com", Password: "secret1", Role: "student"})
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestStruct_FieldMapUsesJSONNames(t *testing.T) {
	err := validate.Struct(signup{Name: "   ", Email: "nope", Password: "123", Role: "admin"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, apierr.Invalid) {
		t.Fatalf("expected Invalid kind, got %v", err)
	}
	e, _ := apierr.As(err)
	for _, field := range []string{"name", "email", "password", "role"} {
		if _, ok := e.Fields[field]; !ok {
			t.Errorf("expected field %q in %v", field, e.Fields)
		}
	}
	if got := e.Fields["name"]; got != "this field cannot be blank" {
		t.Errorf("name message = %q", got)
	}
}

func TestStruct_ObjectIDAndDecision(t *testing.T) {
	tests := []struct {
		name  string
		in    decide
		valid bool
	}{
		{"approve", decide{primitive.NewObjectID().Hex(), "approved"}, true},
		{"reject", decide{primitive.NewObjectID().Hex(), "rejected"}, true},
		{"pending is not a decision", decide{primitive.NewObjectID().Hex(), "pending"}, false},
		{"bad id", decide{"xyz", "approved"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.in)
			if (err == nil) != tt.valid {
				t.Errorf("Struct(%+v) err = %v, want valid=%v", tt.in, err, tt.valid)
			}
		})
	}
}

func TestVar(t *testing.T) {
	if !validate.Var("join_project", "requesttype") {
		t.Error("join_project should be a valid request type")
	}
	if validate.Var("join", "requesttype") {
		t.Error("join should not be a valid request type")
	}
}
