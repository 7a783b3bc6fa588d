package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pagemill/pagemill/internal/scan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestPages(t *testing.T, s *Store, n int) []int64 {
	t.Helper()
	sources := make([]string, n)
	for i := range sources {
		sources[i] = fmt.Sprintf("source-%d.png", i)
	}
	ids, err := s.InsertPages(context.Background(), sources, 0, true, PageDefaults{
		Paper: scan.PredefinedPaper(scan.PaperA4),
	})
	if err != nil {
		t.Fatalf("InsertPages() failed: %v", err)
	}
	return ids
}

// advanceTestPage walks a page forward through the commit chain from its
// current status to the target, creating file rows as needed.
func advanceTestPage(t *testing.T, s *Store, id int64, target scan.Status) []FileRow {
	t.Helper()
	ctx := context.Background()
	current := pageStatus(t, s, id)
	var files []FileRow

	newFile := func() FileRow {
		f, err := s.CreateFile(ctx, func(fid int64) string {
			return fmt.Sprintf("page-%08x/file-%d.png", id, fid)
		})
		if err != nil {
			t.Fatalf("CreateFile() failed: %v", err)
		}
		files = append(files, f)
		return f
	}

	if target.AtLeast(scan.StatusInput) && !current.AtLeast(scan.StatusInput) {
		err := s.CommitInput(ctx, InputRow{
			PageID:        id,
			ImageFileID:   newFile().ID,
			PreviewFileID: newFile().ID,
			Orientation:   scan.OrientationNormal,
		}, nil)
		if err != nil {
			t.Fatalf("CommitInput() failed: %v", err)
		}
	}
	if target.AtLeast(scan.StatusOriginal) && !current.AtLeast(scan.StatusOriginal) {
		err := s.CommitOriginal(ctx, StageRow{
			PageID:        id,
			ImageFileID:   newFile().ID,
			PreviewFileID: newFile().ID,
		}, "", true, nil)
		if err != nil {
			t.Fatalf("CommitOriginal() failed: %v", err)
		}
	}
	if target.AtLeast(scan.StatusPending) && !current.AtLeast(scan.StatusPending) {
		orig, err := s.OriginalFor(ctx, id)
		if err != nil {
			t.Fatalf("OriginalFor() failed: %v", err)
		}
		if err := s.CommitPending(ctx, orig); err != nil {
			t.Fatalf("CommitPending() failed: %v", err)
		}
	}
	if target.AtLeast(scan.StatusComplete) && !current.AtLeast(scan.StatusComplete) {
		err := s.CommitComplete(ctx, CompleteRow{
			StageRow: StageRow{
				PageID:        id,
				ImageFileID:   newFile().ID,
				PreviewFileID: newFile().ID,
			},
			ModifiedAt: 42,
		}, nil)
		if err != nil {
			t.Fatalf("CommitComplete() failed: %v", err)
		}
	}
	if target.AtLeast(scan.StatusOutput) && !current.AtLeast(scan.StatusOutput) {
		err := s.CommitOutput(ctx, OutputRow{
			PageID:        id,
			FileID:        newFile().ID,
			EstimatedSize: 1234,
		}, nil)
		if err != nil {
			t.Fatalf("CommitOutput() failed: %v", err)
		}
	}
	return files
}

func pageStatus(t *testing.T, s *Store, id int64) scan.Status {
	t.Helper()
	p, err := s.Page(context.Background(), id)
	if err != nil {
		t.Fatalf("Page(%d) failed: %v", id, err)
	}
	return p.Status
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestInsertPages_AppendsInOrder(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 3)

	pages, err := s.Pages(context.Background())
	if err != nil {
		t.Fatalf("Pages() failed: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	for i, p := range pages {
		if p.ID != ids[i] {
			t.Errorf("position %d: got page %d, want %d", i, p.ID, ids[i])
		}
		if p.OrderIndex != i {
			t.Errorf("page %d: orderIndex = %d, want %d", p.ID, p.OrderIndex, i)
		}
		if p.Status != scan.StatusInitial {
			t.Errorf("page %d: status = %v, want Initial", p.ID, p.Status)
		}
	}
}

func TestInsertPages_AnchorBefore(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 2)

	newIDs, err := s.InsertPages(context.Background(), []string{"x.png"}, ids[1], false, PageDefaults{})
	if err != nil {
		t.Fatalf("InsertPages() failed: %v", err)
	}

	pages, _ := s.Pages(context.Background())
	want := []int64{ids[0], newIDs[0], ids[1]}
	for i, p := range pages {
		if p.ID != want[i] {
			t.Errorf("position %d: got page %d, want %d", i, p.ID, want[i])
		}
		if p.OrderIndex != i {
			t.Errorf("page %d: orderIndex = %d, want %d", p.ID, p.OrderIndex, i)
		}
	}
}

func TestDeletePages_CompactsOrder(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 5)

	if err := s.DeletePages(context.Background(), ids[2]); err != nil {
		t.Fatalf("DeletePages() failed: %v", err)
	}

	pages, _ := s.Pages(context.Background())
	if len(pages) != 4 {
		t.Fatalf("got %d pages, want 4", len(pages))
	}
	want := []int64{ids[0], ids[1], ids[3], ids[4]}
	for i, p := range pages {
		if p.ID != want[i] || p.OrderIndex != i {
			t.Errorf("position %d: page %d orderIndex %d, want page %d orderIndex %d",
				i, p.ID, p.OrderIndex, want[i], i)
		}
	}
}

func TestMovePage(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 4)

	// Move the last page to the front.
	if err := s.MovePage(context.Background(), ids[3], ids[0]); err != nil {
		t.Fatalf("MovePage() failed: %v", err)
	}

	pages, _ := s.Pages(context.Background())
	want := []int64{ids[3], ids[0], ids[1], ids[2]}
	for i, p := range pages {
		if p.ID != want[i] {
			t.Errorf("position %d: got page %d, want %d", i, p.ID, want[i])
		}
	}
}

func TestCommitChain_AdvancesOneStageAtATime(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)

	steps := []scan.Status{
		scan.StatusInput, scan.StatusOriginal, scan.StatusPending,
		scan.StatusComplete, scan.StatusOutput,
	}
	for _, want := range steps {
		advanceTestPage(t, s, ids[0], want)
		if got := pageStatus(t, s, ids[0]); got != want {
			t.Fatalf("after advancing: status = %v, want %v", got, want)
		}
	}
}

func TestCommitInput_StaleWhenNotInitial(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	advanceTestPage(t, s, ids[0], scan.StatusInput)

	f, _ := s.CreateFile(context.Background(), func(int64) string { return "x" })
	err := s.CommitInput(context.Background(), InputRow{
		PageID: ids[0], ImageFileID: f.ID, PreviewFileID: f.ID,
	}, nil)
	if !errors.Is(err, ErrStale) {
		t.Errorf("CommitInput on advanced page: err = %v, want ErrStale", err)
	}
}

func TestCommit_PublishFailureAborts(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)

	f, _ := s.CreateFile(context.Background(), func(int64) string { return "x" })
	boom := errors.New("disk full")
	err := s.CommitInput(context.Background(), InputRow{
		PageID: ids[0], ImageFileID: f.ID, PreviewFileID: f.ID,
	}, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("CommitInput: err = %v, want publish error", err)
	}

	// The whole transition must have rolled back.
	if got := pageStatus(t, s, ids[0]); got != scan.StatusInitial {
		t.Errorf("status after failed publish = %v, want Initial", got)
	}
	if _, err := s.InputFor(context.Background(), ids[0]); !IsNotFound(err) {
		t.Errorf("InputFor after failed publish: err = %v, want not-found", err)
	}
}

func TestCommitComplete_ReseedsPending(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	advanceTestPage(t, s, ids[0], scan.StatusComplete)

	complete, err := s.CompleteFor(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("CompleteFor() failed: %v", err)
	}
	pending, err := s.PendingFor(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("PendingFor() failed: %v", err)
	}
	if pending.ImageFileID != complete.ImageFileID {
		t.Errorf("pending image %d, want complete image %d",
			pending.ImageFileID, complete.ImageFileID)
	}
}

func TestEnsureStatus_OnlyNarrows(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	// Initial page: downgrade to Input must not fire (Initial is before Input).
	if err := s.EnsureStatus(ctx, ids[0], scan.StatusInput); err != nil {
		t.Fatalf("EnsureStatus() failed: %v", err)
	}
	if got := pageStatus(t, s, ids[0]); got != scan.StatusInitial {
		t.Errorf("status = %v, want Initial (no upgrade)", got)
	}

	advanceTestPage(t, s, ids[0], scan.StatusOutput)

	if err := s.EnsureStatus(ctx, ids[0], scan.StatusPending); err != nil {
		t.Fatalf("EnsureStatus() failed: %v", err)
	}
	if got := pageStatus(t, s, ids[0]); got != scan.StatusPending {
		t.Errorf("status = %v, want Pending", got)
	}

	// A second downgrade to a later stage must not re-raise the status.
	if err := s.EnsureStatus(ctx, ids[0], scan.StatusComplete); err != nil {
		t.Fatalf("EnsureStatus() failed: %v", err)
	}
	if got := pageStatus(t, s, ids[0]); got != scan.StatusPending {
		t.Errorf("status = %v, want Pending (no upgrade)", got)
	}
}

func TestSetCutout_RegressesToInputWithSetupPolicy(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	advanceTestPage(t, s, ids[0], scan.StatusOutput)

	cut := scan.Cutout{X0: 0.1, Y0: 0.1, X1: 0.9, Y1: 0.9, Defined: true}
	if err := s.SetCutout(context.Background(), ids[0], cut); err != nil {
		t.Fatalf("SetCutout() failed: %v", err)
	}

	p, _ := s.Page(context.Background(), ids[0])
	if p.Status != scan.StatusInput {
		t.Errorf("status = %v, want Input", p.Status)
	}
	if p.CutoutPolicy != scan.CutoutSetup {
		t.Errorf("cutoutPolicy = %v, want Setup", p.CutoutPolicy)
	}
	if p.Cutout != scan.EncodeCutout(cut) {
		t.Errorf("cutout = %q, want %q", p.Cutout, scan.EncodeCutout(cut))
	}
}

func TestSetProfile_RegressesToPending(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	advanceTestPage(t, s, ids[0], scan.StatusComplete)

	if err := s.SetProfile(context.Background(), ids[0], scan.ProfileBitonal); err != nil {
		t.Fatalf("SetProfile() failed: %v", err)
	}

	p, _ := s.Page(context.Background(), ids[0])
	if p.Status != scan.StatusPending {
		t.Errorf("status = %v, want Pending", p.Status)
	}
	if p.Profile != scan.ProfileBitonal {
		t.Errorf("profile = %v, want Bitonal", p.Profile)
	}
}

func TestStartRecognition_BumpsCounterByTwo(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	if err := s.StartRecognition(ctx, ids[0], scan.JobRecognize, "eng", ""); err != nil {
		t.Fatalf("StartRecognition() failed: %v", err)
	}
	p, _ := s.Page(ctx, ids[0])
	if p.RecCounter != 2 {
		t.Errorf("counter = %d, want 2", p.RecCounter)
	}
	if p.RecJob != scan.JobRecognize {
		t.Errorf("job = %v, want Recognize", p.RecJob)
	}

	if err := s.StartRecognition(ctx, ids[0], scan.JobClear, "", ""); err != nil {
		t.Fatalf("StartRecognition() failed: %v", err)
	}
	p, _ = s.Page(ctx, ids[0])
	if p.RecCounter != 4 {
		t.Errorf("counter = %d, want 4", p.RecCounter)
	}
}

func TestSettleRecognition_WritesTextPair(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	s.StartRecognition(ctx, ids[0], scan.JobRecognize, "", "")
	err := s.SettleRecognition(ctx, ids[0], 2, TextResult{
		Job:      scan.JobRecognize,
		Original: "hello world",
		Modified: "hello world",
	})
	if err != nil {
		t.Fatalf("SettleRecognition() failed: %v", err)
	}

	p, _ := s.Page(ctx, ids[0])
	if p.RecCounter != scan.CounterReady {
		t.Errorf("counter = %d, want Ready", p.RecCounter)
	}
	text, ok, err := s.TextFor(ctx, ids[0])
	if err != nil || !ok {
		t.Fatalf("TextFor() = %v, %v", ok, err)
	}
	if text.Original != "hello world" || text.Modified != "hello world" {
		t.Errorf("text = %+v, want hello world pair", text)
	}
}

func TestSettleRecognition_StaleCounterDiscarded(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	s.StartRecognition(ctx, ids[0], scan.JobRecognize, "", "")
	// A second request supersedes the first before it settles.
	s.StartRecognition(ctx, ids[0], scan.JobRecognize, "", "")

	err := s.SettleRecognition(ctx, ids[0], 2, TextResult{
		Job:      scan.JobRecognize,
		Original: "stale",
		Modified: "stale",
	})
	if !errors.Is(err, ErrStale) {
		t.Fatalf("SettleRecognition with stale counter: err = %v, want ErrStale", err)
	}

	// Nothing may have been applied.
	p, _ := s.Page(ctx, ids[0])
	if p.RecCounter != 4 {
		t.Errorf("counter = %d, want 4 (untouched)", p.RecCounter)
	}
	if _, ok, _ := s.TextFor(ctx, ids[0]); ok {
		t.Error("text row written despite stale settle")
	}
}

func TestSettleRecognition_ClearWipesText(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	s.StartRecognition(ctx, ids[0], scan.JobRecognize, "", "")
	s.SettleRecognition(ctx, ids[0], 2, TextResult{
		Job: scan.JobRecognize, Original: "abc", Modified: "abc",
	})

	s.StartRecognition(ctx, ids[0], scan.JobClear, "", "")
	if err := s.SettleRecognition(ctx, ids[0], 3, TextResult{Job: scan.JobClear}); err != nil {
		t.Fatalf("SettleRecognition() failed: %v", err)
	}

	p, _ := s.Page(ctx, ids[0])
	if p.RecCounter != scan.CounterNothing {
		t.Errorf("counter = %d, want Nothing", p.RecCounter)
	}
	text, _, _ := s.TextFor(ctx, ids[0])
	if text.Original != "" || text.Modified != "" {
		t.Errorf("text = %+v, want empty pair", text)
	}
}

func TestEnsureRecognition_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	// No text yet, asking for none: no-op.
	if err := s.EnsureRecognition(ctx, ids[0], false); err != nil {
		t.Fatalf("EnsureRecognition() failed: %v", err)
	}
	p, _ := s.Page(ctx, ids[0])
	if p.RecCounter != 0 {
		t.Errorf("counter = %d, want 0", p.RecCounter)
	}

	// Asking for text queues a Recognize.
	if err := s.EnsureRecognition(ctx, ids[0], true); err != nil {
		t.Fatalf("EnsureRecognition() failed: %v", err)
	}
	p, _ = s.Page(ctx, ids[0])
	if p.RecCounter != 2 || p.RecJob != scan.JobRecognize {
		t.Errorf("task = %d/%v, want 2/Recognize", p.RecCounter, p.RecJob)
	}

	// Asking again is a no-op: the outstanding request counts as text.
	if err := s.EnsureRecognition(ctx, ids[0], true); err != nil {
		t.Fatalf("EnsureRecognition() failed: %v", err)
	}
	p, _ = s.Page(ctx, ids[0])
	if p.RecCounter != 2 {
		t.Errorf("counter = %d, want 2 (unchanged)", p.RecCounter)
	}
}

func TestUselessFiles_AfterPageDelete(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 2)
	ctx := context.Background()

	filesA := advanceTestPage(t, s, ids[0], scan.StatusOutput)
	advanceTestPage(t, s, ids[1], scan.StatusOutput)

	useless, err := s.UselessFiles(ctx)
	if err != nil {
		t.Fatalf("UselessFiles() failed: %v", err)
	}
	// Every created file is still referenced by its satellite row.
	if len(useless) != 0 {
		t.Fatalf("got %d useless files before delete, want 0", len(useless))
	}

	if err := s.DeletePages(ctx, ids[0]); err != nil {
		t.Fatalf("DeletePages() failed: %v", err)
	}

	paths, err := s.DeleteUselessFiles(ctx)
	if err != nil {
		t.Fatalf("DeleteUselessFiles() failed: %v", err)
	}
	if len(paths) != len(filesA) {
		t.Errorf("deleted %d file rows, want %d", len(paths), len(filesA))
	}

	// Page B's files survive.
	remaining, _ := s.Files(ctx)
	for _, f := range remaining {
		for _, deleted := range filesA {
			if f.ID == deleted.ID {
				t.Errorf("file %d of deleted page still present", f.ID)
			}
		}
	}
}

func TestShareSession_Readiness(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 2)
	ctx := context.Background()

	advanceTestPage(t, s, ids[0], scan.StatusOutput)
	advanceTestPage(t, s, ids[1], scan.StatusComplete)

	sessionID, err := s.CreateShareSession(ctx, scan.SharePDF, ids...)
	if err != nil {
		t.Fatalf("CreateShareSession() failed: %v", err)
	}

	count, err := s.PendingShareCount(ctx, sessionID)
	if err != nil {
		t.Fatalf("PendingShareCount() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("pending count = %d, want 1", count)
	}
	ready, _ := s.ReadyShareSessions(ctx)
	if len(ready) != 0 {
		t.Errorf("got %d ready sessions, want 0", len(ready))
	}

	advanceTestPage(t, s, ids[1], scan.StatusOutput)

	ready, err = s.ReadyShareSessions(ctx)
	if err != nil {
		t.Fatalf("ReadyShareSessions() failed: %v", err)
	}
	if len(ready) != 1 || ready[0].ID != sessionID || ready[0].Format != scan.SharePDF {
		t.Fatalf("ready = %+v, want session %d PDF", ready, sessionID)
	}

	items, _ := s.ShareItems(ctx, sessionID)
	if len(items) != 2 || items[0].PageID != ids[0] || items[1].PageID != ids[1] {
		t.Errorf("items = %+v, want pages in insertion order", items)
	}
}

func TestShareSession_PendingRecognitionBlocks(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	advanceTestPage(t, s, ids[0], scan.StatusOutput)
	sessionID, _ := s.CreateShareSession(ctx, scan.ShareText, ids...)

	s.StartRecognition(ctx, ids[0], scan.JobRecognize, "", "")
	count, _ := s.PendingShareCount(ctx, sessionID)
	if count != 1 {
		t.Errorf("pending count = %d, want 1 while recognition outstanding", count)
	}

	s.SettleRecognition(ctx, ids[0], 2, TextResult{
		Job: scan.JobRecognize, Original: "t", Modified: "t",
	})
	count, _ = s.PendingShareCount(ctx, sessionID)
	if count != 0 {
		t.Errorf("pending count = %d, want 0 after settle", count)
	}
}

func TestDeleteOrphanShareSessions(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	s.CreateShareSession(ctx, scan.SharePNG, ids...)
	if err := s.DeletePages(ctx, ids[0]); err != nil {
		t.Fatalf("DeletePages() failed: %v", err)
	}

	n, err := s.DeleteOrphanShareSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteOrphanShareSessions() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d sessions, want 1", n)
	}
}

func TestChecks(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 3)
	ctx := context.Background()

	if err := s.CheckPages(ctx, "list", true, ids[0], ids[2]); err != nil {
		t.Fatalf("CheckPages() failed: %v", err)
	}
	checked, err := s.CheckedPages(ctx, "list")
	if err != nil {
		t.Fatalf("CheckedPages() failed: %v", err)
	}
	if len(checked) != 2 || checked[0] != ids[0] || checked[1] != ids[2] {
		t.Errorf("checked = %v, want [%d %d]", checked, ids[0], ids[2])
	}

	// A different view sees nothing.
	other, _ := s.CheckedPages(ctx, "other")
	if len(other) != 0 {
		t.Errorf("other view checked = %v, want none", other)
	}

	if err := s.DeleteCheckedPages(ctx, "list"); err != nil {
		t.Fatalf("DeleteCheckedPages() failed: %v", err)
	}
	pages, _ := s.Pages(ctx)
	if len(pages) != 1 || pages[0].ID != ids[1] || pages[0].OrderIndex != 0 {
		t.Errorf("pages = %+v, want only page %d at index 0", pages, ids[1])
	}
}

func TestWatch_SignalsOnWrite(t *testing.T) {
	s := openTestStore(t)

	ch, cancel := s.Watch()
	defer cancel()

	insertTestPages(t, s, 1)

	select {
	case <-ch:
	default:
		t.Fatal("no signal after write")
	}

	// Burst of writes coalesces into at least one pending signal.
	insertTestPages(t, s, 1)
	insertTestPages(t, s, 1)
	select {
	case <-ch:
	default:
		t.Fatal("no signal after burst")
	}
}

func TestTelemetry_ResetOnSettle(t *testing.T) {
	s := openTestStore(t)
	ids := insertTestPages(t, s, 1)
	ctx := context.Background()

	s.StartRecognition(ctx, ids[0], scan.JobRecognize, "", "")
	s.UpdateTelemetry(ctx, Telemetry{PageID: ids[0], Progress: 50, Lookup: "box"})

	tele, _ := s.TelemetryFor(ctx, ids[0])
	if tele.Progress != 50 {
		t.Errorf("progress = %d, want 50", tele.Progress)
	}

	s.SettleRecognition(ctx, ids[0], 2, TextResult{
		Job: scan.JobRecognize, Original: "t", Modified: "t",
	})
	tele, _ = s.TelemetryFor(ctx, ids[0])
	if tele.Progress != -1 || tele.Lookup != "" {
		t.Errorf("telemetry = %+v, want reset", tele)
	}
}
