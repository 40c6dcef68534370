package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/normapipe/normapipe/internal/ingest"
	"github.com/normapipe/normapipe/internal/record"
	"github.com/normapipe/normapipe/internal/store"
)

const testEntity = "Agencia Nacional de Infraestructura"

const testRulesDoc = `{
  "Agencia Nacional de Infraestructura": {
    "title": {"type": "string", "required": true},
    "created_at": {"type": "date", "required": true},
    "rtype_id": {"type": "int"},
    "external_link": {"type": "string"}
  }
}`

// fakeExtractor returns a fixed frame, or an error.
type fakeExtractor struct {
	frame record.Frame
	err   error
	pages int
}

func (f *fakeExtractor) Extract(ctx context.Context, pages int) (record.Frame, error) {
	f.pages = pages
	return f.frame, f.err
}

func writeRules(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func listingFrame(rows ...record.Row) record.Frame {
	return record.Frame{
		Columns: []string{"title", "created_at", "rtype_id", "external_link", "entity"},
		Rows:    rows,
	}
}

func newTestService(t *testing.T, ext Extractor, mem *store.Memory, rulesDoc string) *Service {
	t.Helper()
	return New(ext, ingest.New(mem, 7, nil), Options{
		RulesPath:  writeRules(t, rulesDoc),
		Entity:     testEntity,
		PagesMax:   5,
		RunTimeout: time.Minute,
	}, nil, nil)
}

func TestRunOnceEndToEnd(t *testing.T) {
	mem := store.NewMemory()
	ext := &fakeExtractor{frame: listingFrame(
		record.Row{"title": "Decreto 100", "created_at": "2024-01-01", "rtype_id": "14", "external_link": "https://x/100", "entity": testEntity},
		record.Row{"title": "Decreto 101", "created_at": "bad-date", "rtype_id": "14", "external_link": "https://x/101", "entity": testEntity},
	)}
	svc := newTestService(t, ext, mem, testRulesDoc)

	result, err := svc.RunOnce(context.Background(), RunParams{Pages: 2})
	if err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	if ext.pages != 2 {
		t.Errorf("extractor got pages = %d, want 2", ext.pages)
	}
	if result.Extracted != 2 {
		t.Errorf("Extracted = %d, want 2", result.Extracted)
	}
	if result.Report.TotalValidRows != 1 || result.Report.TotalDroppedRows != 1 {
		t.Errorf("report = %+v, want 1 valid / 1 dropped", result.Report)
	}
	if result.Write.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", result.Write.Inserted)
	}
	if mem.Count() != 1 {
		t.Errorf("store holds %d rows, want 1", mem.Count())
	}
	if result.Error != "" {
		t.Errorf("Error = %q, want empty", result.Error)
	}
}

func TestRunOnceIsIdempotent(t *testing.T) {
	mem := store.NewMemory()
	ext := &fakeExtractor{frame: listingFrame(
		record.Row{"title": "Decreto 100", "created_at": "2024-01-01", "rtype_id": "14", "external_link": "https://x/100", "entity": testEntity},
	)}
	svc := newTestService(t, ext, mem, testRulesDoc)

	if _, err := svc.RunOnce(context.Background(), RunParams{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := svc.RunOnce(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if result.Write.Inserted != 0 || result.Write.DuplicateExisting != 1 {
		t.Errorf("second run write = %+v, want 0 inserted / 1 duplicate", result.Write)
	}
	if mem.Count() != 1 {
		t.Errorf("store holds %d rows, want 1", mem.Count())
	}
}

func TestStartRunAsync(t *testing.T) {
	mem := store.NewMemory()
	ext := &fakeExtractor{frame: listingFrame(
		record.Row{"title": "Decreto 100", "created_at": "2024-01-01", "rtype_id": "14", "external_link": "https://x/100", "entity": testEntity},
	)}
	svc := newTestService(t, ext, mem, testRulesDoc)

	runID, err := svc.StartRun(RunParams{})
	if err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := svc.WaitRun(ctx, runID)
	if err != nil {
		t.Fatalf("WaitRun() error: %v", err)
	}
	if result.Write.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", result.Write.Inserted)
	}

	snapshot, ok := svc.GetRun(runID)
	if !ok || snapshot.Status != StatusSucceeded {
		t.Errorf("snapshot = %+v, want succeeded", snapshot)
	}
}

func TestStartRunRejectsExcessivePages(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{}, store.NewMemory(), testRulesDoc)

	if _, err := svc.StartRun(RunParams{Pages: 6}); err == nil {
		t.Error("StartRun() accepted pages above the maximum")
	}
	if _, err := svc.RunOnce(context.Background(), RunParams{Pages: 100}); err == nil {
		t.Error("RunOnce() accepted pages above the maximum")
	}
}

func TestRunFailsOnExtractorError(t *testing.T) {
	mem := store.NewMemory()
	ext := &fakeExtractor{err: errors.New("listing unreachable")}
	svc := newTestService(t, ext, mem, testRulesDoc)

	result, err := svc.RunOnce(context.Background(), RunParams{})
	if err == nil {
		t.Fatal("RunOnce() succeeded, want extraction failure")
	}
	if result == nil || !strings.Contains(result.Error, "extraction") {
		t.Errorf("result.Error = %v, want extraction failure recorded", result)
	}
	if existing, inserts := mem.Calls(); existing != 0 || inserts != 0 {
		t.Errorf("store touched after extraction failure: %d reads, %d inserts", existing, inserts)
	}
}

func TestRunFailsOnBrokenRuleDocument(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{}, store.NewMemory(), `{"e": {"f": {"type": "text"}}}`)

	result, err := svc.RunOnce(context.Background(), RunParams{})
	if err == nil {
		t.Fatal("RunOnce() succeeded with a broken rule document")
	}
	if result.Error == "" {
		t.Error("result.Error empty, want the rule load failure recorded")
	}
}

func TestRulesReloadedPerRun(t *testing.T) {
	mem := store.NewMemory()
	ext := &fakeExtractor{frame: listingFrame(
		record.Row{"title": "Decreto 100", "created_at": "not-a-date", "rtype_id": "14", "external_link": "https://x/100", "entity": testEntity},
	)}
	svc := newTestService(t, ext, mem, testRulesDoc)

	result, err := svc.RunOnce(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if result.Report.TotalDroppedRows != 1 {
		t.Fatalf("first run dropped %d, want 1", result.Report.TotalDroppedRows)
	}

	// Relax the rule document on disk; the next run must pick it up.
	relaxed := `{"Agencia Nacional de Infraestructura": {"title": {"type": "string", "required": true}}}`
	if err := os.WriteFile(svc.opts.RulesPath, []byte(relaxed), 0o644); err != nil {
		t.Fatalf("rewrite rules: %v", err)
	}

	result, err = svc.RunOnce(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Report.TotalDroppedRows != 0 {
		t.Errorf("second run dropped %d, want 0 under the relaxed document", result.Report.TotalDroppedRows)
	}
}

func TestValidateOnlyDoesNotWrite(t *testing.T) {
	mem := store.NewMemory()
	svc := newTestService(t, &fakeExtractor{}, mem, testRulesDoc)

	frame := listingFrame(
		record.Row{"title": "Decreto 100", "created_at": "2024-01-01", "rtype_id": "14", "external_link": "https://x/100", "entity": testEntity},
	)

	clean, report, err := svc.ValidateOnly(frame, testEntity)
	if err != nil {
		t.Fatalf("ValidateOnly() error: %v", err)
	}
	if clean.Len() != 1 || report.TotalValidRows != 1 {
		t.Errorf("clean=%d report=%+v", clean.Len(), report)
	}
	if mem.Count() != 0 {
		t.Errorf("ValidateOnly wrote %d rows", mem.Count())
	}
	if existing, inserts := mem.Calls(); existing != 0 || inserts != 0 {
		t.Errorf("ValidateOnly touched the store: %d reads, %d inserts", existing, inserts)
	}
}

func TestGetRunUnknownID(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{}, store.NewMemory(), testRulesDoc)
	if _, ok := svc.GetRun("nope"); ok {
		t.Error("GetRun(nope) = ok, want not found")
	}
}
