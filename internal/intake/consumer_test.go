package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	service "github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/service/alert"
	apierrors "github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/errors"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/model/alert"
)

// fakeReader replays a fixed set of payloads, then reports cancellation.
type fakeReader struct {
	payloads [][]byte
	pos      int
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if f.pos >= len(f.payloads) {
		return kafka.Message{}, context.Canceled
	}
	msg := kafka.Message{Value: f.payloads[f.pos], Offset: int64(f.pos)}
	f.pos++
	return msg, nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

// fakeStore records inserted alerts; other Store methods are unused by the
// intake path.
type fakeStore struct {
	inserted map[int64]*alert.Alert
	failWith error
}

func newFakeStore() *fakeStore { return &fakeStore{inserted: make(map[int64]*alert.Alert)} }

func (f *fakeStore) InsertAlert(_ context.Context, a *alert.Alert) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.inserted[a.ID]; ok {
		return apierrors.ErrDuplicateID
	}
	f.inserted[a.ID] = a
	return nil
}

func (f *fakeStore) GetAlert(context.Context, int64) (*alert.Alert, error) { return nil, nil }
func (f *fakeStore) ListAlerts(context.Context, alert.ReadState, int, int) (alert.Alerts, int, error) {
	return nil, 0, nil
}
func (f *fakeStore) MarkRead(context.Context, int64) (*alert.Alert, error) { return nil, nil }
func (f *fakeStore) MarkAllRead(context.Context) (int64, error)            { return 0, nil }
func (f *fakeStore) DeleteAlert(context.Context, int64) error              { return nil }
func (f *fakeStore) CountUnread(context.Context) (int64, error)            { return 0, nil }

type fakeDedup struct {
	seen map[int64]bool
	err  error
}

func (f *fakeDedup) Seen(_ context.Context, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen[id] {
		return true, nil
	}
	if f.seen == nil {
		f.seen = make(map[int64]bool)
	}
	f.seen[id] = true
	return false, nil
}

func runConsumer(t *testing.T, st *fakeStore, dedup DedupChecker, payloads ...[]byte) error {
	t.Helper()
	c := newConsumer(&fakeReader{payloads: payloads}, service.New(st, nil), dedup, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.Run(ctx)
}

func TestRunIngestsValidEvents(t *testing.T) {
	st := newFakeStore()
	err := runConsumer(t, st, nil,
		[]byte(`{"id":1,"type":"asset-condition","severity":"high","title":"revisión","created_at":"2026-05-10T12:00:00Z"}`),
		[]byte(`{"id":2,"type":"approval-pending","severity":"low","title":"aprobación","created_at":"2026-05-10T12:01:00Z","asset":{"id":"B-1","code":"INV-1","name":"Silla"}}`),
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 2 {
		t.Fatalf("inserted %d alerts, want 2", len(st.inserted))
	}
	a := st.inserted[2]
	if a.Asset == nil || a.Asset.Code != "INV-1" {
		t.Errorf("asset ref lost: %+v", a.Asset)
	}
	if a.Read {
		t.Error("ingested alert marked read")
	}
}

func TestRunDropsBadEvents(t *testing.T) {
	st := newFakeStore()
	err := runConsumer(t, st, nil,
		[]byte(`not json`),
		[]byte(`{"id":3,"severity":"urgent","title":"x","created_at":"2026-05-10T12:00:00Z"}`),
		[]byte(`{"id":0,"severity":"low","title":"x","created_at":"2026-05-10T12:00:00Z"}`),
		[]byte(`{"id":4,"type":"t","severity":"low","title":"ok","created_at":"2026-05-10T12:00:00Z"}`),
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 1 {
		t.Fatalf("inserted %d alerts, want only the valid one", len(st.inserted))
	}
	if _, ok := st.inserted[4]; !ok {
		t.Error("valid event after poison messages not ingested")
	}
}

func TestRunDeduplicates(t *testing.T) {
	st := newFakeStore()
	ev := []byte(`{"id":7,"type":"t","severity":"medium","title":"x","created_at":"2026-05-10T12:00:00Z"}`)
	if err := runConsumer(t, st, &fakeDedup{}, ev, ev, ev); err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 1 {
		t.Fatalf("inserted %d alerts, want 1", len(st.inserted))
	}
}

func TestRunToleratesDedupOutage(t *testing.T) {
	// Dedup failing must not block ingest; the store's uniqueness check
	// still keeps redeliveries out.
	st := newFakeStore()
	ev := []byte(`{"id":8,"type":"t","severity":"medium","title":"x","created_at":"2026-05-10T12:00:00Z"}`)
	if err := runConsumer(t, st, &fakeDedup{err: errors.New("redis down")}, ev, ev); err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 1 {
		t.Fatalf("inserted %d alerts, want 1", len(st.inserted))
	}
}

func TestRunStopsOnStoreUnavailable(t *testing.T) {
	st := newFakeStore()
	st.failWith = apierrors.ErrStoreUnavailable
	ev := []byte(`{"id":9,"type":"t","severity":"medium","title":"x","created_at":"2026-05-10T12:00:00Z"}`)
	err := runConsumer(t, st, nil, ev)
	if !errors.Is(err, apierrors.ErrStoreUnavailable) {
		t.Fatalf("got %v, want ErrStoreUnavailable", err)
	}
}

func TestClose(t *testing.T) {
	r := &fakeReader{}
	c := newConsumer(r, service.New(newFakeStore(), nil), nil, nil)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !r.closed {
		t.Error("reader not closed")
	}
}
