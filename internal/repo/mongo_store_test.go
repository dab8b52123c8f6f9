package repo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/tbourn/go-form-collector/internal/domain"
)

func newMockMongo(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestMongoStore_Append(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("insert ok", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		s := domain.NewSubmission("Ada", "ada@example.com", time.Now())
		if err := st.Append(context.Background(), s); err != nil {
			t.Fatalf("Append: %v", err)
		}
		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "insert" {
			t.Fatalf("expected insert command, got %+v", evt)
		}
	})

	mt.Run("insert error surfaces", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := st.Append(context.Background(), domain.NewSubmission("a", "b@c.io", time.Now()))
		if err == nil {
			t.Fatalf("expected write error to be returned")
		}
	})
}

func TestMongoStore_Append_MillisecondTimesStrictlyIncrease(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("same instant", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		at := time.Date(2024, 3, 1, 9, 0, 0, 123456789, time.UTC)
		want := []time.Time{
			time.Date(2024, 3, 1, 9, 0, 0, 123000000, time.UTC),
			time.Date(2024, 3, 1, 9, 0, 0, 124000000, time.UTC),
			time.Date(2024, 3, 1, 9, 0, 0, 125000000, time.UTC),
		}

		for i := range want {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
			s := domain.NewSubmission("Ada", "ada@example.com", at)
			if err := st.Append(context.Background(), s); err != nil {
				t.Fatalf("Append %d: %v", i, err)
			}
			if !s.Time.Equal(want[i]) {
				t.Fatalf("append %d: returned time %v; want %v", i, s.Time, want[i])
			}
			evt := mt.GetStartedEvent()
			if evt == nil || evt.CommandName != "insert" {
				t.Fatalf("expected insert command, got %+v", evt)
			}
			stored := evt.Command.Lookup("documents", "0", "time").Time()
			if !stored.Equal(want[i]) {
				t.Fatalf("append %d: stored time %v; want %v", i, stored, want[i])
			}
		}
	})

	mt.Run("failed insert does not advance", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "boom", Name: "BadValue"}))
		if err := st.Append(context.Background(), domain.NewSubmission("a", "a@x.io", at)); err == nil {
			t.Fatalf("expected insert error")
		}

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		s := domain.NewSubmission("b", "b@x.io", at)
		if err := st.Append(context.Background(), s); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if !s.Time.Equal(at) {
			t.Fatalf("time after failed insert = %v; want %v", s.Time, at)
		}
	})
}

func TestMongoStore_List_SortsByTimeDesc(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("newest first", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "c"}, {Key: "name", Value: "C"}, {Key: "email", Value: "c@x.io"}, {Key: "time", Value: base.Add(2 * time.Minute)}},
			bson.D{{Key: "_id", Value: "b"}, {Key: "name", Value: "B"}, {Key: "email", Value: "b@x.io"}, {Key: "time", Value: base.Add(time.Minute)}},
			bson.D{{Key: "_id", Value: "a"}, {Key: "name", Value: "A"}, {Key: "email", Value: "a@x.io"}, {Key: "time", Value: base}},
		))

		items, err := st.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(items) != 3 || items[0].Name != "C" || items[2].Name != "A" {
			t.Fatalf("unexpected items: %+v", items)
		}
		if items[0].ID != "c" || items[0].Time.Location() != time.UTC {
			t.Fatalf("decode mismatch: %+v", items[0])
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "find" {
			t.Fatalf("expected find command, got %+v", evt)
		}
		sort, ok := evt.Command.Lookup("sort").DocumentOK()
		if !ok {
			t.Fatalf("find command missing sort: %v", evt.Command)
		}
		if dir := sort.Lookup("time").AsInt64(); dir != -1 {
			t.Fatalf("expected time sort -1, got %d", dir)
		}
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		items, err := st.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", items)
		}
	})

	mt.Run("query error surfaces", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
			Name:    "BadValue",
		}))
		if _, err := st.List(context.Background()); err == nil {
			t.Fatalf("expected error from failed find")
		}
	})
}

func TestMongoStore_Stats(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("count and latest", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		latest := time.Date(2024, 3, 1, 9, 2, 0, 0, time.UTC)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "time", Value: latest}}),
		)

		n, got, err := st.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if n != 2 || got == nil || !got.Equal(latest) {
			t.Fatalf("Stats = (%d, %v)", n, got)
		}
	})

	mt.Run("empty", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		n, got, err := st.Stats(context.Background())
		if err != nil || n != 0 || got != nil {
			t.Fatalf("Stats on empty = (%d, %v, %v)", n, got, err)
		}
	})
}

func TestMongoStore_EnsureIndexes(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("creates time index", func(mt *mtest.T) {
		st := NewMongoStore(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := st.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("EnsureIndexes: %v", err)
		}
		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "createIndexes" {
			t.Fatalf("expected createIndexes, got %+v", evt)
		}
	})
}

func TestConnectMongo_EmptyURI(t *testing.T) {
	if _, err := ConnectMongo(context.Background(), "", time.Second); err != ErrMissingDSN {
		t.Fatalf("expected ErrMissingDSN, got %v", err)
	}
}
