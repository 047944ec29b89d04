package manifest

import (
	"context"
	"testing"
)

type fakeRepo struct{ closed bool }

func (f *fakeRepo) RecordRun(ctx context.Context, run Run) error { return nil }
func (f *fakeRepo) Close() error                                 { f.closed = true; return nil }

func TestRegisterAndNew(t *testing.T) {
	want := &fakeRepo{}
	Register("fake", func(ctx context.Context, cfg Config) (Repository, error) {
		return want, nil
	})

	repo, err := New(context.Background(), Config{Kind: "fake", DSN: "x"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if repo != want {
		t.Fatal("New did not return the registered repository")
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "no-such-backend"})
	if err == nil {
		t.Fatal("New with an unregistered kind should fail")
	}
	want := "unsupported manifest.kind=no-such-backend"
	if err.Error() != want {
		t.Fatalf("error = %q; want %q", err.Error(), want)
	}
}

func TestListKinds_ReturnsCopy(t *testing.T) {
	Register("copytest", func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	kinds := ListKinds()
	found := false
	for _, k := range kinds {
		if k == "copytest" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListKinds = %v; want it to contain copytest", kinds)
	}

	// Mutating the returned slice must not reach the registry.
	for i := range kinds {
		kinds[i] = "mutated"
	}
	if _, err := New(context.Background(), Config{Kind: "copytest"}); err != nil {
		t.Fatalf("registry was affected by mutating ListKinds result: %v", err)
	}
}

func TestRegister_Replaces(t *testing.T) {
	first := &fakeRepo{}
	second := &fakeRepo{}
	Register("replace-me", func(ctx context.Context, cfg Config) (Repository, error) {
		return first, nil
	})
	Register("replace-me", func(ctx context.Context, cfg Config) (Repository, error) {
		return second, nil
	})

	repo, err := New(context.Background(), Config{Kind: "replace-me"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if repo != second {
		t.Fatal("Register did not replace the existing factory")
	}
}
