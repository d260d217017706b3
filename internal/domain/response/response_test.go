package response

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/item"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
)

func makeItems(t *testing.T, kind source.Kind, titles ...string) []item.Item {
	t.Helper()
	items := make([]item.Item, 0, len(titles))
	for i, title := range titles {
		it, err := item.New(kind, title, fmt.Sprintf("https://example.com/%d", i), nil, nil)
		if err != nil {
			t.Fatalf("item.New: %v", err)
		}
		items = append(items, it)
	}
	return items
}

func notContaining(word string) Gate {
	return Gate{Reason: "irrelevant", Allow: func(it item.Item) bool {
		return !strings.Contains(it.Title(), word)
	}}
}

func TestCollect_CapsResults(t *testing.T) {
	items := makeItems(t, source.ExamBank, "a", "b", "c", "d", "e")
	res, drops := Collect(source.ExamBank, "", items, 3)
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(res.Items))
	}
	for i, want := range []string{"a", "b", "c"} {
		if res.Items[i].Title() != want {
			t.Errorf("item %d = %q, want %q", i, res.Items[i].Title(), want)
		}
	}
	if len(drops) != 0 {
		t.Errorf("expected no drops, got %v", drops)
	}
	if res.Label != source.ExamBank.Label() {
		t.Errorf("expected default label, got %q", res.Label)
	}
}

func TestCollect_DroppedItemsDoNotCount(t *testing.T) {
	items := makeItems(t, source.ExamBank, "x-bad", "a", "bad-y", "b", "c", "d")
	res, drops := Collect(source.ExamBank, "DzExams", items, 3, notContaining("bad"))
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(res.Items))
	}
	if res.Items[0].Title() != "a" || res.Items[2].Title() != "c" {
		t.Errorf("unexpected items: %q..%q", res.Items[0].Title(), res.Items[2].Title())
	}
	if drops["irrelevant"] != 2 {
		t.Errorf("expected 2 irrelevant drops, got %d", drops["irrelevant"])
	}
}

func TestCollect_StopsEvaluatingAtCap(t *testing.T) {
	calls := 0
	counting := Gate{Reason: "count", Allow: func(item.Item) bool { calls++; return true }}
	items := makeItems(t, source.LessonBank, "a", "b", "c", "d", "e")
	Collect(source.LessonBank, "", items, 2, counting)
	if calls != 2 {
		t.Errorf("expected gate evaluated 2 times, got %d", calls)
	}
}

func TestCollect_DefaultCap(t *testing.T) {
	items := makeItems(t, source.Video, "a", "b", "c", "d")
	res, _ := Collect(source.Video, "", items, 0)
	if len(res.Items) != DefaultCap {
		t.Errorf("expected %d items, got %d", DefaultCap, len(res.Items))
	}
}

func TestFailed_WrapsSourceUnavailable(t *testing.T) {
	o := Failed(source.ExamBank, errors.New("dial tcp: refused"))
	if !o.IsFailed() {
		t.Fatal("expected failed outcome")
	}
	if !errors.Is(o.Err(), domain.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", o.Err())
	}
	if o.Kind() != source.ExamBank {
		t.Errorf("expected exam_bank kind, got %q", o.Kind())
	}

	already := Failed(source.Video, domain.NewStatusError("youtube", 403))
	var se *domain.StatusError
	if !errors.As(already.Err(), &se) || se.StatusCode != 403 {
		t.Errorf("expected status error to be preserved, got %v", already.Err())
	}

	if !errors.Is(Failed(source.Video, nil).Err(), domain.ErrSourceUnavailable) {
		t.Error("nil error must still produce ErrSourceUnavailable")
	}
}

func TestMerge_PrecedenceOrder(t *testing.T) {
	video, _ := Collect(source.Video, "", makeItems(t, source.Video, "v"), 3)
	lesson, _ := Collect(source.LessonBank, "", makeItems(t, source.LessonBank, "l"), 3)
	exam, _ := Collect(source.ExamBank, "", makeItems(t, source.ExamBank, "e"), 3)

	agg := Merge(source.DefaultOrder(), []Outcome{Ok(video), Ok(lesson), Ok(exam)})
	if len(agg.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(agg.Results))
	}
	want := []source.Kind{source.ExamBank, source.LessonBank, source.Video}
	for i, k := range want {
		if agg.Results[i].Kind != k {
			t.Errorf("results[%d] = %q, want %q", i, agg.Results[i].Kind, k)
		}
	}
	if agg.ItemCount() != 3 {
		t.Errorf("expected 3 items, got %d", agg.ItemCount())
	}
}

func TestMerge_SkipsEmptyAndRecordsFailures(t *testing.T) {
	empty, _ := Collect(source.LessonBank, "", nil, 3)
	agg := Merge(source.DefaultOrder(), []Outcome{
		Failed(source.ExamBank, errors.New("timeout")),
		Ok(empty),
	})
	if !agg.Empty() {
		t.Fatalf("expected empty aggregate, got %d results", len(agg.Results))
	}
	if len(agg.Failed) != 1 || agg.Failed[0] != source.ExamBank {
		t.Errorf("expected exam_bank failure, got %v", agg.Failed)
	}
}

func TestMerge_UnknownKindsAppended(t *testing.T) {
	exam, _ := Collect(source.ExamBank, "", makeItems(t, source.ExamBank, "e"), 3)
	video, _ := Collect(source.Video, "", makeItems(t, source.Video, "v"), 3)
	agg := Merge([]source.Kind{source.Video}, []Outcome{Ok(exam), Ok(video)})
	if len(agg.Results) != 2 || agg.Results[0].Kind != source.Video || agg.Results[1].Kind != source.ExamBank {
		t.Errorf("unexpected order: %+v", agg.Results)
	}
}
