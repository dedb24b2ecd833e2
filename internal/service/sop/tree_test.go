package sop

import (
	"context"
	"testing"

	models "rxops/internal/domain/models/sop"
)

func strPtr(s string) *string { return &s }

func TestBuildTree(t *testing.T) {
	tests := []struct {
		name      string
		nodes     []models.Node
		wantRoots []string // expected root IDs in order
	}{
		{
			name:      "empty collection",
			nodes:     nil,
			wantRoots: []string{},
		},
		{
			name: "flat roots ordered by sort_order",
			nodes: []models.Node{
				{ID: "b", DocumentID: "d1", SortOrder: 1},
				{ID: "a", DocumentID: "d1", SortOrder: 0},
				{ID: "c", DocumentID: "d1", SortOrder: 2},
			},
			wantRoots: []string{"a", "b", "c"},
		},
		{
			name: "orphan falls back to root",
			nodes: []models.Node{
				{ID: "a", DocumentID: "d1", SortOrder: 0},
				{ID: "x", DocumentID: "d1", ParentID: strPtr("missing"), SortOrder: 5},
			},
			wantRoots: []string{"a", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := BuildTree("d1", tt.nodes)

			if tree.DocumentID != "d1" {
				t.Errorf("DocumentID = %q, want %q", tree.DocumentID, "d1")
			}
			if len(tree.Roots) != len(tt.wantRoots) {
				t.Fatalf("got %d roots, want %d", len(tree.Roots), len(tt.wantRoots))
			}
			for i, want := range tt.wantRoots {
				if tree.Roots[i].ID != want {
					t.Errorf("root[%d] = %q, want %q", i, tree.Roots[i].ID, want)
				}
			}
		})
	}
}

func TestBuildTreeNesting(t *testing.T) {
	nodes := []models.Node{
		{ID: "root", DocumentID: "d1", SortOrder: 0},
		{ID: "child2", DocumentID: "d1", ParentID: strPtr("root"), SortOrder: 1},
		{ID: "child1", DocumentID: "d1", ParentID: strPtr("root"), SortOrder: 0},
		{ID: "grand", DocumentID: "d1", ParentID: strPtr("child1"), SortOrder: 0},
	}

	tree := BuildTree("d1", nodes)

	if len(tree.Roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(tree.Roots))
	}
	root := tree.Roots[0]
	if len(root.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(root.Children))
	}
	if root.Children[0].ID != "child1" || root.Children[1].ID != "child2" {
		t.Errorf("children out of order: %q, %q", root.Children[0].ID, root.Children[1].ID)
	}
	if len(root.Children[0].Children) != 1 || root.Children[0].Children[0].ID != "grand" {
		t.Errorf("grandchild not nested under child1")
	}
}

func TestBuildTreeRoundTrip(t *testing.T) {
	// Flatten must walk depth-first in display order
	nodes := []models.Node{
		{ID: "a", DocumentID: "d1", SortOrder: 0},
		{ID: "a1", DocumentID: "d1", ParentID: strPtr("a"), SortOrder: 0},
		{ID: "b", DocumentID: "d1", SortOrder: 1},
	}

	tree := BuildTree("d1", nodes)
	flat := tree.Flatten()

	want := []string{"a", "a1", "b"}
	if len(flat) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(flat), len(want))
	}
	for i, id := range want {
		if flat[i].ID != id {
			t.Errorf("flat[%d] = %q, want %q", i, flat[i].ID, id)
		}
	}
}

func TestTreeServiceScopesToOrg(t *testing.T) {
	ctx := context.Background()
	docRepo := newFakeDocumentRepo()
	nodeRepo := newFakeNodeRepo()
	docRepo.Create(ctx, &models.Document{ID: "d1", OrgID: "org-a", Status: models.StatusDraft})

	svc := NewTreeService(docRepo, nodeRepo, nil, testLogger())

	if _, err := svc.GetTree(ctx, "org-a", "d1"); err != nil {
		t.Fatalf("same-org read failed: %v", err)
	}
	if _, err := svc.GetTree(ctx, "org-b", "d1"); err == nil {
		t.Fatal("cross-org read should fail")
	}
}
