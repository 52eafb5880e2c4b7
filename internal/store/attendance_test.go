package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/rollcall/internal/model"
)

func setupAttendanceTestDB(t *testing.T) *AttendanceStore {
	t.Helper()
	return NewAttendanceStore(setupTestDB(t))
}

func day(s string) time.Time {
	d, err := time.Parse(model.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func present(id string) model.AttendanceRecord {
	return model.AttendanceRecord{MemberID: id, Status: model.StatusPresent}
}

func absent(id string) model.AttendanceRecord {
	return model.AttendanceRecord{MemberID: id, Status: model.StatusAbsent}
}

func TestAttendanceUpsertCreatesThenReplaces(t *testing.T) {
	as := setupAttendanceTestDB(t)
	ctx := context.Background()

	first, created, err := as.Upsert(ctx, day("2024-03-10"), []model.AttendanceRecord{present("m1"), absent("m2")})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Error("first upsert should create")
	}

	second, created, err := as.Upsert(ctx, day("2024-03-10"), []model.AttendanceRecord{absent("m3")})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("second upsert should replace, not create")
	}
	if second.ID != first.ID {
		t.Errorf("id = %s, want %s", second.ID, first.ID)
	}

	got, err := as.GetByDay(ctx, day("2024-03-10"))
	if err != nil {
		t.Fatalf("get by day: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0] != absent("m3") {
		t.Errorf("records = %+v, want only m3 absent", got.Records)
	}
	if !got.Date.Equal(day("2024-03-10")) {
		t.Errorf("date = %v", got.Date)
	}
}

func TestAttendanceUpsertEmptyRecords(t *testing.T) {
	as := setupAttendanceTestDB(t)
	ctx := context.Background()

	e, created, err := as.Upsert(ctx, day("2024-01-01"), nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Error("expected create")
	}
	if e.Records == nil || len(e.Records) != 0 {
		t.Errorf("records = %#v, want empty non-nil slice", e.Records)
	}
}

func TestAttendanceRecordOrderPreserved(t *testing.T) {
	as := setupAttendanceTestDB(t)
	ctx := context.Background()

	records := []model.AttendanceRecord{present("z"), absent("a"), present("m")}
	e, _, err := as.Upsert(ctx, day("2024-02-02"), records)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for i, r := range e.Records {
		if r != records[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, r, records[i])
		}
	}
}

func TestAttendanceGetByDayMissing(t *testing.T) {
	as := setupAttendanceTestDB(t)

	e, err := as.GetByDay(context.Background(), day("2030-01-01"))
	if err != nil {
		t.Fatalf("get by day: %v", err)
	}
	if e != nil {
		t.Errorf("expected nil, got %+v", e)
	}
}

func TestAttendanceListAndRange(t *testing.T) {
	as := setupAttendanceTestDB(t)
	ctx := context.Background()

	for _, d := range []string{"2024-03-03", "2024-03-17", "2024-03-10", "2024-03-24"} {
		if _, _, err := as.Upsert(ctx, day(d), []model.AttendanceRecord{present("m1")}); err != nil {
			t.Fatalf("upsert %s: %v", d, err)
		}
	}

	all, err := as.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantAll := []string{"2024-03-24", "2024-03-17", "2024-03-10", "2024-03-03"}
	if len(all) != len(wantAll) {
		t.Fatalf("len = %d, want %d", len(all), len(wantAll))
	}
	for i, e := range all {
		if got := e.Date.Format(model.DayLayout); got != wantAll[i] {
			t.Errorf("all[%d] = %s, want %s", i, got, wantAll[i])
		}
		if len(e.Records) != 1 {
			t.Errorf("all[%d] records = %d, want 1", i, len(e.Records))
		}
	}

	between, err := as.ListBetween(ctx, day("2024-03-10"), day("2024-03-17"))
	if err != nil {
		t.Fatalf("list between: %v", err)
	}
	if len(between) != 2 {
		t.Fatalf("between len = %d, want 2 (inclusive bounds)", len(between))
	}
	if between[0].Date.Format(model.DayLayout) != "2024-03-17" || between[1].Date.Format(model.DayLayout) != "2024-03-10" {
		t.Errorf("between = %s, %s", between[0].Date, between[1].Date)
	}

	recent, err := as.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Date.Format(model.DayLayout) != "2024-03-24" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestAttendancePresenceCounts(t *testing.T) {
	as := setupAttendanceTestDB(t)
	ctx := context.Background()

	as.Upsert(ctx, day("2024-03-03"), []model.AttendanceRecord{present("m1"), present("m2")})
	as.Upsert(ctx, day("2024-03-10"), []model.AttendanceRecord{present("m1"), absent("m2")})
	as.Upsert(ctx, day("2024-03-17"), []model.AttendanceRecord{present("m1"), absent("m2")})

	counts, err := as.PresenceCounts(ctx)
	if err != nil {
		t.Fatalf("presence counts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("len = %d, want 2", len(counts))
	}
	if counts[0] != (model.PresenceCount{MemberID: "m1", Count: 3}) {
		t.Errorf("counts[0] = %+v", counts[0])
	}
	if counts[1] != (model.PresenceCount{MemberID: "m2", Count: 1}) {
		t.Errorf("counts[1] = %+v", counts[1])
	}
}

func TestAttendanceConcurrentUpsertSameDay(t *testing.T) {
	as := NewAttendanceStore(setupFileTestDB(t))
	ctx := context.Background()

	const writers = 20
	type result struct {
		created bool
		err     error
	}
	results := make(chan result, writers)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := model.StatusPresent
			if i%2 == 0 {
				status = model.StatusAbsent
			}
			<-start
			_, created, err := as.Upsert(ctx, day("2024-04-01"), []model.AttendanceRecord{{MemberID: "m1", Status: status}})
			results <- result{created, err}
		}(i)
	}
	close(start)
	wg.Wait()
	close(results)

	creates := 0
	for r := range results {
		if r.err != nil {
			t.Fatalf("upsert: %v", r.err)
		}
		if r.created {
			creates++
		}
	}
	if creates != 1 {
		t.Errorf("created=true returned %d times, want exactly 1", creates)
	}

	all, err := as.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("entries = %d, want exactly 1", len(all))
	}
	if len(all[0].Records) != 1 {
		t.Errorf("records = %d, want 1 (no merge between writers)", len(all[0].Records))
	}
}

func TestAttendanceDeleteAll(t *testing.T) {
	as := setupAttendanceTestDB(t)
	ctx := context.Background()

	as.Upsert(ctx, day("2024-03-03"), []model.AttendanceRecord{present("m1")})
	if err := as.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	all, _ := as.List(ctx)
	if len(all) != 0 {
		t.Errorf("entries = %d, want 0", len(all))
	}
}
