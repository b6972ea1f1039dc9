package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "skylog.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// tick gives every write a distinct, increasing timestamp.
func tick(s *Store) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	var n int
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestAddAndGetRecord(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	id, err := s.AddRecord(ctx, "flights", "u1", map[string]any{"from": "LAX", "numOfGuests": 2})
	if err != nil {
		t.Fatalf("AddRecord() error = %v", err)
	}
	if id == "" {
		t.Fatal("AddRecord() returned empty id")
	}

	doc, err := s.GetRecord(ctx, "flights", id)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if doc.Owner != "u1" || doc.Collection != "flights" {
		t.Errorf("GetRecord() owner/collection = %q/%q", doc.Owner, doc.Collection)
	}
	want := map[string]any{"from": "LAX", "numOfGuests": float64(2)}
	if diff := cmp.Diff(want, doc.Data); diff != "" {
		t.Errorf("GetRecord() data mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.GetRecord(context.Background(), "flights", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord() error = %v, want ErrNotFound", err)
	}
}

func TestQueryNewestFirstAndScoped(t *testing.T) {
	s := openTemp(t)
	tick(s)
	ctx := context.Background()

	for _, n := range []string{"AA1", "AA2", "AA3"} {
		if _, err := s.AddRecord(ctx, "flights", "u1", map[string]any{"flightNumber": n}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.AddRecord(ctx, "flights", "u2", map[string]any{"flightNumber": "DL9"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddRecord(ctx, "users", "u1", map[string]any{"email": "a@b.c"}); err != nil {
		t.Fatal(err)
	}

	docs, err := s.Query(ctx, "flights", "u1")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	var got []string
	for _, d := range docs {
		got = append(got, d.Data["flightNumber"].(string))
	}
	if diff := cmp.Diff([]string{"AA3", "AA2", "AA1"}, got); diff != "" {
		t.Errorf("Query() order mismatch (-want +got):\n%s", diff)
	}
}

func TestSetRecordMergePreservesFields(t *testing.T) {
	s := openTemp(t)
	tick(s)
	ctx := context.Background()

	if err := s.SetRecord(ctx, "users", "u1", "u1", map[string]any{
		"email": "pat@example.com", "firstName": "Pat", "createdAt": "2024-01-01",
	}, true); err != nil {
		t.Fatalf("SetRecord(create) error = %v", err)
	}
	first, _ := s.GetRecord(ctx, "users", "u1")

	if err := s.SetRecord(ctx, "users", "u1", "u1", map[string]any{
		"firstName": "Patricia", "lastLogin": "2024-06-01",
	}, true); err != nil {
		t.Fatalf("SetRecord(merge) error = %v", err)
	}

	doc, err := s.GetRecord(ctx, "users", "u1")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"email":     "pat@example.com",
		"firstName": "Patricia",
		"createdAt": "2024-01-01",
		"lastLogin": "2024-06-01",
	}
	if diff := cmp.Diff(want, doc.Data); diff != "" {
		t.Errorf("merged data mismatch (-want +got):\n%s", diff)
	}
	if !doc.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", first.CreatedAt, doc.CreatedAt)
	}
	if !doc.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", first.UpdatedAt, doc.UpdatedAt)
	}
}

func TestSetRecordReplace(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_ = s.SetRecord(ctx, "users", "u1", "u1", map[string]any{"a": "1", "b": "2"}, false)
	_ = s.SetRecord(ctx, "users", "u1", "u1", map[string]any{"b": "3"}, false)

	doc, err := s.GetRecord(ctx, "users", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]any{"b": "3"}, doc.Data); diff != "" {
		t.Errorf("replaced data mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchDeliversSnapshots(t *testing.T) {
	s := openTemp(t)
	tick(s)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		sizes []int
	)
	sub := s.Watch(ctx, "flights", "u1", func(snap Snapshot) {
		if snap.Err != nil {
			t.Errorf("snapshot error: %v", snap.Err)
		}
		mu.Lock()
		sizes = append(sizes, len(snap.Docs))
		mu.Unlock()
	})

	_, _ = s.AddRecord(ctx, "flights", "u1", map[string]any{"n": 1})
	_, _ = s.AddRecord(ctx, "flights", "u2", map[string]any{"n": 2})
	_, _ = s.AddRecord(ctx, "flights", "u1", map[string]any{"n": 3})

	sub.Unsubscribe()
	_, _ = s.AddRecord(ctx, "flights", "u1", map[string]any{"n": 4})

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]int{0, 1, 2}, sizes); diff != "" {
		t.Errorf("snapshot sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchDropsOvertakenSnapshots(t *testing.T) {
	s := openTemp(t)

	var (
		mu   sync.Mutex
		seqs []uint64
	)
	sub := s.Watch(context.Background(), "flights", "u1", func(snap Snapshot) {
		mu.Lock()
		seqs = append(seqs, snap.seq)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	mu.Lock()
	first := seqs[0]
	mu.Unlock()

	h := s.hub("flights", "u1")
	h.Publish(Snapshot{seq: first + 2})
	h.Publish(Snapshot{seq: first + 1})
	h.Publish(Snapshot{seq: first})

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]uint64{first, first + 2}, seqs); diff != "" {
		t.Errorf("delivered seqs mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchIgnoresQueryStartedEarlier(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	// A result from a query that started before Watch's own first query
	// arrives late and must not replace anything newer.
	stale := s.snapshot(ctx, "flights", "u1")
	var got []int
	sub := s.Watch(ctx, "flights", "u1", func(snap Snapshot) {
		got = append(got, len(snap.Docs))
	})
	defer sub.Unsubscribe()

	_, _ = s.AddRecord(ctx, "flights", "u1", map[string]any{"n": 1})
	s.hub("flights", "u1").Publish(stale)

	if diff := cmp.Diff([]int{0, 1}, got); diff != "" {
		t.Errorf("sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchEndsWithContext(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu    sync.Mutex
		calls int
	)
	sub := s.Watch(ctx, "flights", "u1", func(Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	cancel()
	h := s.hub("flights", "u1")
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("watch still subscribed after its context was canceled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, _ = s.AddRecord(context.Background(), "flights", "u1", map[string]any{"n": 1})
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want only the initial snapshot", calls)
	}
}

func TestFollowSeesOtherConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skylog.db")
	reader, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	writer, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	snaps := make(chan Snapshot, 8)
	done := make(chan error, 1)
	go func() {
		done <- reader.Follow(ctx, "flights", "u1", func(s Snapshot) { snaps <- s })
	}()

	first := <-snaps
	if len(first.Docs) != 0 {
		t.Fatalf("initial snapshot has %d docs, want 0", len(first.Docs))
	}

	if _, err := writer.AddRecord(context.Background(), "flights", "u1", map[string]any{"n": 1}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-snaps:
			if len(snap.Docs) == 1 {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("Follow() error = %v", err)
				}
				return
			}
		case <-deadline:
			cancel()
			t.Fatal("Follow() did not deliver the external write")
		}
	}
}

func TestFollowRequiresSQLite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := New(db, DriverMySQL)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Follow(context.Background(), "flights", "u1", func(Snapshot) {}); err == nil {
		t.Error("Follow() on mysql should fail")
	}
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := New(db, DriverMySQL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.newID = func() string { return "id-1" }
	s.now = func() time.Time { return time.UnixMilli(1717236000000) }
	return s, mock
}

func TestAddRecordSQL(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("id-1", "flights", "u1", `{"from":"LAX"}`, int64(1717236000000), int64(1717236000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := s.AddRecord(context.Background(), "flights", "u1", map[string]any{"from": "LAX"})
	if err != nil {
		t.Fatalf("AddRecord() error = %v", err)
	}
	if id != "id-1" {
		t.Errorf("AddRecord() id = %q", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAddRecordFailure(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO documents").WillReturnError(errors.New("disk full"))

	if _, err := s.AddRecord(context.Background(), "flights", "u1", map[string]any{}); err == nil {
		t.Error("AddRecord() expected error")
	}
}

func TestSetRecordRollsBackOnUpdateFailure(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT data FROM documents").
		WithArgs("users", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(`{"a":"1"}`))
	mock.ExpectExec("UPDATE documents").WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	err := s.SetRecord(context.Background(), "users", "u1", "u1", map[string]any{"b": "2"}, true)
	if err == nil {
		t.Fatal("SetRecord() expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryDecodesRows(t *testing.T) {
	s, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"id", "collection", "owner", "data", "created_at", "updated_at"}).
		AddRow("b", "flights", "u1", `{"n":2}`, int64(2000), int64(2000)).
		AddRow("a", "flights", "u1", `{"n":1}`, int64(1000), int64(1000))
	mock.ExpectQuery("SELECT id, collection, owner, data, created_at, updated_at FROM documents").
		WithArgs("flights", "u1").
		WillReturnRows(rows)

	docs, err := s.Query(context.Background(), "flights", "u1")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	want := []Document{
		{ID: "b", Collection: "flights", Owner: "u1", Data: map[string]any{"n": float64(2)},
			CreatedAt: time.UnixMilli(2000), UpdatedAt: time.UnixMilli(2000)},
		{ID: "a", Collection: "flights", Owner: "u1", Data: map[string]any{"n": float64(1)},
			CreatedAt: time.UnixMilli(1000), UpdatedAt: time.UnixMilli(1000)},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Errorf("Query() mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryCorruptDocument(t *testing.T) {
	s, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"id", "collection", "owner", "data", "created_at", "updated_at"}).
		AddRow("a", "flights", "u1", `{not json`, int64(1), int64(1))
	mock.ExpectQuery("SELECT id").WillReturnRows(rows)

	if _, err := s.Query(context.Background(), "flights", "u1"); err == nil {
		t.Error("Query() expected decode error")
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("postgres", "x"); err == nil {
		t.Error("Open() expected error for unknown driver")
	}
}

func TestOpenInvalidMySQLDSN(t *testing.T) {
	if _, err := Open(DriverMySQL, "not a dsn"); err == nil {
		t.Error("Open() expected DSN error")
	}
}
