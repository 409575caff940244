package dryrun

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWithDryRun(t *testing.T) {
	ctx := context.Background()

	if IsEnabled(ctx) {
		t.Error("dry-run should default to disabled")
	}

	ctx = WithDryRun(ctx, true)
	if !IsEnabled(ctx) {
		t.Error("expected dry-run enabled")
	}

	ctx = WithDryRun(ctx, false)
	if IsEnabled(ctx) {
		t.Error("expected dry-run disabled after override")
	}
}

func TestPreviewWrite(t *testing.T) {
	p := &Preview{
		Operation:   "create",
		Resource:    "channel",
		Description: "Create a WhatsApp channel",
		Details: map[string]interface{}{
			"provider": "whatsapp",
		},
		Warnings: []string{"token will be stored server-side"},
	}

	var buf bytes.Buffer
	p.Write(&buf)
	got := buf.String()

	for _, want := range []string{
		"[DRY-RUN] Would create channel",
		"Create a WhatsApp channel",
		"provider: whatsapp",
		"! token will be stored server-side",
		"No changes made (dry-run mode)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("preview missing %q in output:\n%s", want, got)
		}
	}
}

func TestPreviewWrite_Minimal(t *testing.T) {
	p := &Preview{Operation: "delete", Resource: "cache"}

	var buf bytes.Buffer
	p.Write(&buf)
	got := buf.String()

	if !strings.Contains(got, "[DRY-RUN] Would delete cache") {
		t.Errorf("unexpected output:\n%s", got)
	}
	if strings.Contains(got, "Warnings:") {
		t.Error("no warnings section expected for minimal preview")
	}
}
