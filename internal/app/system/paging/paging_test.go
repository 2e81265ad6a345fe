package paging

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type row struct {
	nameCI string
	id     primitive.ObjectID
}

func TestTrimPage_Window(t *testing.T) {
	// Pages of three; the store always fetches one extra row.
	tests := []struct {
		name          string
		fetched       []string
		before, after string
		want          []string
		prev, next    bool
	}{
		{"first page, more follow", []string{"ann", "bea", "cal", "dan"}, "", "", []string{"ann", "bea", "cal"}, false, true},
		{"first page, all of it", []string{"ann", "bea"}, "", "", []string{"ann", "bea"}, false, false},
		{"after cursor, last page", []string{"dan", "eve"}, "", "c", []string{"dan", "eve"}, true, false},
		// Backward pages are reversed before trimming, so the extra row is first.
		{"before cursor, more behind", []string{"aaron", "ann", "bea", "cal"}, "d", "", []string{"ann", "bea", "cal"}, true, true},
		{"before cursor, reached start", []string{"ann", "bea"}, "d", "", []string{"ann", "bea"}, false, true},
		{"nothing", []string{}, "", "", []string{}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := append([]string{}, tt.fetched...)
			got := trimPageWithSize(&rows, tt.before, tt.after, 3)
			if !reflect.DeepEqual(rows, tt.want) {
				t.Errorf("rows = %v, want %v", rows, tt.want)
			}
			if got.HasPrev != tt.prev || got.HasNext != tt.next {
				t.Errorf("HasPrev/HasNext = %v/%v, want %v/%v", got.HasPrev, got.HasNext, tt.prev, tt.next)
			}
		})
	}
}

func TestTrimPage_UsesPageSize(t *testing.T) {
	rows := make([]int, PageSize+1)
	res := TrimPage(&rows, "", "")
	if len(rows) != PageSize || !res.HasNext {
		t.Errorf("len = %d, HasNext = %v", len(rows), res.HasNext)
	}
	if LimitPlusOne() != int64(PageSize+1) {
		t.Errorf("LimitPlusOne() = %d", LimitPlusOne())
	}
}

func TestCursorRoundTrip(t *testing.T) {
	rows := []row{
		{"abby", primitive.NewObjectID()},
		{"carl", primitive.NewObjectID()},
	}
	prev, next := BuildCursors(rows,
		func(r row) string { return r.nameCI },
		func(r row) primitive.ObjectID { return r.id })

	fwd := ConfigureKeyset("", next)
	if fwd.Direction != Forward || fwd.SortOrder != 1 {
		t.Errorf("after: direction %v order %d", fwd.Direction, fwd.SortOrder)
	}
	if fwd.Cursor == nil || fwd.Cursor.CI != "carl" || fwd.Cursor.ID != rows[1].id {
		t.Fatalf("next cursor decoded to %+v", fwd.Cursor)
	}
	if fwd.KeysetWindow("name_ci") == nil {
		t.Error("expected a keyset window for a cursor")
	}

	back := ConfigureKeyset(prev, "ignored")
	if back.Direction != Backward || back.SortOrder != -1 {
		t.Errorf("before: direction %v order %d", back.Direction, back.SortOrder)
	}
	if back.Cursor == nil || back.Cursor.CI != "abby" {
		t.Fatalf("prev cursor decoded to %+v", back.Cursor)
	}

	if ConfigureKeyset("", "").KeysetWindow("name_ci") != nil {
		t.Error("first page must not filter")
	}
	if p, n := BuildCursors([]row{}, func(r row) string { return "" }, func(r row) primitive.ObjectID { return r.id }); p != "" || n != "" {
		t.Error("empty page must have no cursors")
	}
}

func TestReverse(t *testing.T) {
	got := []string{"cal", "bea", "ann"}
	Reverse(got)
	if !reflect.DeepEqual(got, []string{"ann", "bea", "cal"}) {
		t.Errorf("Reverse = %v", got)
	}
	Reverse([]string{})
}
