package archive

import (
	"context"
	"testing"

	"mercator-hq/archivist/pkg/archive/policy"
	"mercator-hq/archivist/pkg/content"
	"mercator-hq/archivist/pkg/content/storage"
)

func TestDecide(t *testing.T) {
	const (
		old     = `{status: COMPLETED, created: "2023-01-01T00:00:00.000Z"}`
		recent  = `{status: COMPLETED, created: "2024-12-01T00:00:00.000Z"}`
		broken  = `{status: COMPLETED, created: "garbage"}`
		pending = `{status: IN_PROGRESS, created: "2023-01-01T00:00:00.000Z"}`
	)

	tests := []struct {
		name           string
		children       string
		wantKind       DecisionKind
		wantEligible   int
		wantClassified int
		wantSubfolders int
	}{
		{
			name:     "empty folder",
			children: "[]",
			wantKind: DecisionSkip,
		},
		{
			name:           "all eligible",
			children:       `[{name: a, content: true, metadata: ` + old + `}, {name: b, content: true, metadata: ` + old + `}]`,
			wantKind:       DecisionMoveWholeFolder,
			wantEligible:   2,
			wantClassified: 2,
		},
		{
			name:           "mixed",
			children:       `[{name: a, content: true, metadata: ` + old + `}, {name: b, content: true, metadata: ` + recent + `}]`,
			wantKind:       DecisionMovePartial,
			wantEligible:   1,
			wantClassified: 2,
		},
		{
			name:           "indeterminate blocks whole move",
			children:       `[{name: a, content: true, metadata: ` + old + `}, {name: b, content: true, metadata: ` + broken + `}]`,
			wantKind:       DecisionMovePartial,
			wantEligible:   1,
			wantClassified: 2,
		},
		{
			name:           "none eligible",
			children:       `[{name: a, content: true, metadata: ` + recent + `}, {name: b, content: true, metadata: ` + pending + `}]`,
			wantKind:       DecisionSkip,
			wantClassified: 2,
		},
		{
			name:           "subfolders are not classified",
			children:       `[{name: a, content: true, metadata: ` + old + `}, {name: sub, children: [{name: x, content: true, metadata: ` + recent + `}]}]`,
			wantKind:       DecisionMoveWholeFolder,
			wantEligible:   1,
			wantClassified: 1,
			wantSubfolders: 1,
		},
		{
			name:           "only subfolders",
			children:       `[{name: sub1}, {name: sub2}]`,
			wantKind:       DecisionSkip,
			wantSubfolders: 2,
		},
	}

	p, err := policy.New(policy.ModeStatusAndCreationDate, policy.DefaultKeys())
	if err != nil {
		t.Fatalf("policy.New() failed: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := storage.NewMemoryStorage()
			seed(t, repo, "root: /A\nnodes:\n  - name: F\n    children: "+tt.children+"\n")

			ctx := context.Background()
			session, err := repo.Session(ctx)
			if err != nil {
				t.Fatalf("Session() failed: %v", err)
			}
			defer session.Close()

			folder, err := session.Resolve(ctx, "/A/F")
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}

			d, err := Decide(ctx, session, p, folder, testCutoff)
			if err != nil {
				t.Fatalf("Decide() failed: %v", err)
			}
			if d.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", d.Kind, tt.wantKind)
			}
			if len(d.Eligible) != tt.wantEligible {
				t.Errorf("len(Eligible) = %d, want %d", len(d.Eligible), tt.wantEligible)
			}
			if len(d.Classified) != tt.wantClassified {
				t.Errorf("len(Classified) = %d, want %d", len(d.Classified), tt.wantClassified)
			}
			if len(d.Subfolders) != tt.wantSubfolders {
				t.Errorf("len(Subfolders) = %d, want %d", len(d.Subfolders), tt.wantSubfolders)
			}
		})
	}
}

func TestDecide_ChildrenError(t *testing.T) {
	repo := storage.NewMemoryStorage()
	seed(t, repo, "root: /A\nnodes:\n  - name: F\n")
	repo.FailOn(storage.OpChildren, "/A/F", errBoom)

	ctx := context.Background()
	session, _ := repo.Session(ctx)
	defer session.Close()

	p, _ := policy.New(policy.ModePublishDate, policy.Keys{})
	_, err := Decide(ctx, session, p, &content.Node{Path: "/A/F", Name: "F"}, testCutoff)
	if err == nil {
		t.Fatal("Decide() expected error")
	}
}

func TestDecisionKind_String(t *testing.T) {
	tests := map[DecisionKind]string{
		DecisionSkip:            "skip",
		DecisionMoveWholeFolder: "move_whole_folder",
		DecisionMovePartial:     "move_partial",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
