package safety

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func Test_AuditLogger_Log_Cases(t *testing.T) {
	tests := []struct {
		name     string
		entry    AuditEntry
		validate func(t *testing.T, got map[string]any)
	}{
		{
			name: "full entry",
			entry: AuditEntry{
				Timestamp: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
				Operation: "product.update",
				Target:    "palm-royale",
				Params:    map[string]any{"category": "franchise-spa"},
				Result:    "ok",
				Duration:  150 * time.Millisecond,
			},
			validate: func(t *testing.T, got map[string]any) {
				t.Helper()
				if got["operation"] != "product.update" {
					t.Errorf("operation = %v", got["operation"])
				}
				if got["target"] != "palm-royale" {
					t.Errorf("target = %v", got["target"])
				}
				if got["duration_ns"] != float64(150*time.Millisecond) {
					t.Errorf("duration_ns = %v", got["duration_ns"])
				}
			},
		},
		{
			name: "empty target and params are omitted",
			entry: AuditEntry{
				Timestamp: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
				Operation: "migration_list",
				Result:    "ok",
			},
			validate: func(t *testing.T, got map[string]any) {
				t.Helper()
				if _, ok := got["target"]; ok {
					t.Error("target should be omitted when empty")
				}
				if _, ok := got["params"]; ok {
					t.Error("params should be omitted when nil")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewAuditLogger(&buf)
			if err := logger.Log(tt.entry); err != nil {
				t.Fatalf("Log() error: %v", err)
			}

			line := buf.String()
			if !strings.HasSuffix(line, "\n") {
				t.Error("entry should end with a newline")
			}
			var got map[string]any
			if err := json.Unmarshal([]byte(line), &got); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			tt.validate(t, got)
		})
	}
}

func Test_NewAuditLogger_NilWriter(t *testing.T) {
	logger := NewAuditLogger(nil)
	if logger != nil {
		t.Fatal("NewAuditLogger(nil) should return nil")
	}
	if err := logger.Log(AuditEntry{}); !errors.Is(err, ErrNilWriter) {
		t.Errorf("Log() on nil logger = %v, want ErrNilWriter", err)
	}
	// Record on a nil logger must not panic.
	logger.Record("product.update", "x", nil, time.Now(), nil)
}

func Test_AuditLogger_Record_Cases(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantResult string
	}{
		{name: "success", err: nil, wantResult: "ok"},
		{name: "failure", err: errors.New("boom"), wantResult: "error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewAuditLogger(&buf)
			logger.Record("attribute.delete", "franchise-category", map[string]any{"id": "A1"}, time.Now(), tt.err)

			var got AuditEntry
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Result != tt.wantResult {
				t.Errorf("Result = %q, want %q", got.Result, tt.wantResult)
			}
			if got.Operation != "attribute.delete" || got.Target != "franchise-category" {
				t.Errorf("entry = %+v", got)
			}
		})
	}
}

// failWriter always fails.
type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func Test_AuditLogger_WriteError(t *testing.T) {
	logger := NewAuditLogger(failWriter{})
	if err := logger.Log(AuditEntry{Operation: "x"}); err == nil {
		t.Error("expected write error")
	}
}

func Test_AuditLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Record("product.update", "slug", nil, time.Now(), nil)
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 50 {
		t.Fatalf("lines = %d, want 50", len(lines))
	}
	for i, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("line %d is not valid JSON: %q", i, line)
		}
	}
}
