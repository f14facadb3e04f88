package ideastore_test

import (
	"testing"

	ideastore "github.com/dalemusser/fypcollab/internal/app/store/ideas"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/fypcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AuthorScopedWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	idea, err := store.Create(ctx, models.SupervisorIdea{Title: "Graph DB", Description: "d", Domain: "data", Author: author})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if ok, err := store.Update(ctx, idea.ID, stranger, "x", "y", "z"); err != nil || ok {
		t.Errorf("stranger Update = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := store.Update(ctx, idea.ID, author, "Graph DBs", "d2", "data"); err != nil || !ok {
		t.Errorf("author Update = (%v, %v), want (true, nil)", ok, err)
	}
	got, err := store.GetByID(ctx, idea.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Graph DBs" {
		t.Errorf("title = %q, want Graph DBs", got.Title)
	}

	if ok, _ := store.Delete(ctx, idea.ID, stranger); ok {
		t.Error("stranger should not delete the idea")
	}
	if ok, err := store.Delete(ctx, idea.ID, author); err != nil || !ok {
		t.Errorf("author Delete = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	for _, idea := range []models.SupervisorIdea{
		{Title: "one", Domain: "ai", Author: a},
		{Title: "two", Domain: "web", Author: a},
		{Title: "three", Domain: "ai", Author: b},
	} {
		if _, err := store.Create(ctx, idea); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		domain string
		want   int
	}{
		{"all", "", 3},
		{"ai", "ai", 2},
		{"none", "games", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.domain)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("List(%q) = %d, want %d", tt.domain, len(got), tt.want)
			}
		})
	}

	mine, err := store.ListByAuthor(ctx, a)
	if err != nil || len(mine) != 2 {
		t.Errorf("ListByAuthor = (%d, %v), want 2", len(mine), err)
	}
	if n, err := store.DeleteByAuthor(ctx, a); err != nil || n != 2 {
		t.Errorf("DeleteByAuthor = (%d, %v), want 2", n, err)
	}
}
