package bbs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) ServerStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		if c, ok := store.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	})
	return store
}

func TestSQLiteStore_CreateListDelete(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, PostInput{
		Name:      "Taro",
		Content:   "Hello\nWorld",
		DeleteKey: "pass123",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.ID == "" || post.CreatedAt.IsZero() {
		t.Fatalf("incomplete created post: %+v", post)
	}
	if post.Content != "Hello\nWorld" {
		t.Errorf("content = %q, want embedded newline preserved", post.Content)
	}

	posts, err := store.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != post.ID {
		t.Fatalf("got %v, want the created post", posts)
	}

	if err := store.DeletePost(ctx, post.ID, "wrong"); !errors.Is(err, ErrWrongDeleteKey) {
		t.Fatalf("wrong key: got %v, want ErrWrongDeleteKey", err)
	}
	if err := store.DeletePost(ctx, post.ID, "pass123"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if err := store.DeletePost(ctx, post.ID, "pass123"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("second delete: got %v, want ErrPostNotFound", err)
	}
	if posts, _ := store.ListPosts(ctx); len(posts) != 0 {
		t.Fatal("posts remain after delete")
	}
}

func TestSQLiteStore_Validation(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.CreatePost(context.Background(), PostInput{Name: "  ", Content: "x", DeleteKey: ""})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	want := []string{"お名前を入力してください", "削除キーを入力してください"}
	if len(verr.Errors) != len(want) {
		t.Fatalf("got %v, want %v", verr.Errors, want)
	}
	for i := range want {
		if verr.Errors[i] != want[i] {
			t.Errorf("error[%d] = %q, want %q", i, verr.Errors[i], want[i])
		}
	}
}

func TestSQLiteStore_Escaping(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, PostInput{
		Name:      "<Taro>",
		Content:   `"quoted" & 'single' /slash/`,
		DeleteKey: "k",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.Name != "&lt;Taro&gt;" {
		t.Errorf("name = %q, want escaped", post.Name)
	}
	if post.Content != "&quot;quoted&quot; &amp; &#x27;single&#x27; &#x2F;slash&#x2F;" {
		t.Errorf("content = %q, want escaped", post.Content)
	}

	// The listing must return exactly what create returned.
	posts, err := store.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if posts[0].Name != post.Name || posts[0].Content != post.Content {
		t.Errorf("listed post %+v differs from created %+v", posts[0], post)
	}
}

func TestSQLiteStore_OrderingAndCap(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < ListLimit+5; i++ {
		_, err := store.CreatePost(ctx, PostInput{
			Name:      "Taro",
			Content:   fmt.Sprintf("post %d", i),
			DeleteKey: "k",
		})
		if err != nil {
			t.Fatalf("CreatePost %d failed: %v", i, err)
		}
	}

	posts, err := store.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != ListLimit {
		t.Fatalf("got %d posts, want %d", len(posts), ListLimit)
	}
	if posts[0].Content != fmt.Sprintf("post %d", ListLimit+4) {
		t.Errorf("first post = %q, want the newest", posts[0].Content)
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].CreatedAt.After(posts[i-1].CreatedAt) {
			t.Fatalf("posts out of order at %d", i)
		}
	}
}

func TestSQLiteStore_DeleteEdgeCases(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.DeletePost(ctx, "12345", "k"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("unknown id: got %v, want ErrPostNotFound", err)
	}
	if err := store.DeletePost(ctx, "not-a-number", "k"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("malformed id: got %v, want ErrPostNotFound", err)
	}
	if err := store.DeletePost(ctx, "1", "   "); !errors.Is(err, ErrMissingDeleteKey) {
		t.Errorf("blank key: got %v, want ErrMissingDeleteKey", err)
	}
}

func TestSQLiteStore_Counter(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if n, err := store.VisitCount(ctx); err != nil || n != 0 {
		t.Fatalf("fresh VisitCount = %d, %v, want 0", n, err)
	}
	for want := int64(1); want <= 5; want++ {
		n, err := store.IncrementVisits(ctx)
		if err != nil {
			t.Fatalf("IncrementVisits failed: %v", err)
		}
		if n != want {
			t.Errorf("count = %d, want %d", n, want)
		}
	}
	if n, _ := store.VisitCount(ctx); n != 5 {
		t.Errorf("final count = %d, want 5", n)
	}
}
