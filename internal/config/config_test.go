package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "WORKER_COUNT", "JOB_TTL", "KEEP_REPEATS", "SENTENCE_CONCURRENCY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Fatalf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.SentenceConcurrency != 8 {
		t.Fatalf("expected sentence concurrency 8, got %d", cfg.SentenceConcurrency)
	}
	if cfg.JobTTL != time.Hour {
		t.Fatalf("expected job ttl 1h, got %v", cfg.JobTTL)
	}
	if cfg.KeepRepeats {
		t.Fatal("expected keep repeats off by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("MAX_QUEUE_SIZE", "7")
	t.Setenv("JOB_TTL", "90s")
	t.Setenv("KEEP_REPEATS", "true")
	t.Setenv("SENTENCE_CONCURRENCY", "notanumber")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Fatalf("expected invalid worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 7 {
		t.Fatalf("expected queue size 7, got %d", cfg.MaxQueueSize)
	}
	if cfg.JobTTL != 90*time.Second {
		t.Fatalf("expected 90s, got %v", cfg.JobTTL)
	}
	if !cfg.KeepRepeats {
		t.Fatal("expected keep repeats on")
	}
	if cfg.SentenceConcurrency != 8 {
		t.Fatalf("expected fallback concurrency 8, got %d", cfg.SentenceConcurrency)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("expected error without api key")
	}
	if err := (Config{APIKey: "k"}).Validate(); err == nil {
		t.Fatal("expected error without head rules")
	}
	if err := (Config{APIKey: "k", HeadRulesPath: "rules"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadPartition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partition.yaml")
	data := []byte("prefix: wsj\nparts:\n  - name: train\n    first: 2\n    last: 3\n  - name: dev\n    first: 4\n    last: 4\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPartition(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Prefix != "wsj" || len(p.Parts) != 2 {
		t.Fatalf("unexpected partition %+v", p)
	}
	if p.Parts[1] != (Part{Name: "dev", First: 4, Last: 4}) {
		t.Fatalf("unexpected dev part %+v", p.Parts[1])
	}
}

func TestParsePartition_Defaults(t *testing.T) {
	p, err := ParsePartition([]byte("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Prefix != "cptb" || len(p.Parts) != 3 {
		t.Fatalf("expected default partition, got %+v", p)
	}
}

func TestParsePartition_Invalid(t *testing.T) {
	for _, src := range []string{
		"parts:\n  - name: a\n    first: 5\n    last: 4\n",
		"parts:\n  - name: a\n  - name: a\n",
		"parts:\n  - first: 1\n",
		"parts: [",
	} {
		if _, err := ParsePartition([]byte(src)); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
}
