package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sensiblebit/certcheck/internal/inventory"
)

func TestFormatReportText(t *testing.T) {
	// WHY: The four headers and their order are an external contract; scripts
	// grep for them, so the exact bytes are pinned here.
	t.Parallel()

	tests := []struct {
		name   string
		report inventory.Report
		want   string
	}{
		{
			name: "scenario trusted and untrusted",
			report: inventory.Report{
				NonCertificates: []string{},
				Expired:         []string{},
				Trusted:         []string{"GTS_Root_R1.pem"},
				Untrusted:       []string{"sas.cert"},
			},
			want: "Non certificate items in directory:\n" +
				"Expired Certs:\n" +
				"No expired certs found.\n" +
				"Certs in the system keychain:\n" +
				"GTS_Root_R1.pem\n" +
				"Certs not in system keychain:\n" +
				"sas.cert\n",
		},
		{
			name: "scenario expired and non certificate",
			report: inventory.Report{
				NonCertificates: []string{"non-cert.txt"},
				Expired:         []string{"sas_expired.cert"},
				Trusted:         []string{},
				Untrusted:       []string{"sas_expired.cert"},
			},
			want: "Non certificate items in directory:\n" +
				"non-cert.txt\n" +
				"Expired Certs:\n" +
				"sas_expired.cert\n" +
				"Certs in the system keychain:\n" +
				"Certs not in system keychain:\n" +
				"sas_expired.cert\n",
		},
		{
			name:   "empty directory",
			report: inventory.Report{},
			want: "Non certificate items in directory:\n" +
				"Expired Certs:\n" +
				"No expired certs found.\n" +
				"Certs in the system keychain:\n" +
				"Certs not in system keychain:\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatReportText(tt.report); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestWriteReport_JSON(t *testing.T) {
	// WHY: JSON output carries the same four lists plus warnings as strings,
	// with empty lists rendered as [] rather than null.
	t.Parallel()
	res := &inventory.Result{
		TargetDir: "/certs",
		TrustDir:  "/trust",
		CheckedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Report: inventory.Report{
			NonCertificates: []string{"a.txt"},
			Expired:         []string{},
			Trusted:         []string{},
			Untrusted:       []string{"b.pem"},
		},
		Warnings: []inventory.Warning{{Path: "/trust", Err: errors.New("permission denied")}},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, res, "json"); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["checked_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("checked_at = %v", got["checked_at"])
	}
	if exp, ok := got["expired"].([]any); !ok || len(exp) != 0 {
		t.Errorf("expired = %#v, want []", got["expired"])
	}
	if ents, ok := got["entries"].([]any); !ok || len(ents) != 0 {
		t.Errorf("entries = %#v, want []", got["entries"])
	}
	warns, _ := got["warnings"].([]any)
	if len(warns) != 1 || warns[0] != "/trust: permission denied" {
		t.Errorf("warnings = %#v", got["warnings"])
	}
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	// WHY: An unsupported format must be an error, never silent text output.
	t.Parallel()
	err := WriteReport(&bytes.Buffer{}, &inventory.Result{}, "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("err = %v", err)
	}
}

func TestCertAnnotation(t *testing.T) {
	// WHY: CertAnnotation formats the parenthetical trust/expiry annotations
	// in the run summary. All four code paths must produce correct output.
	t.Parallel()

	tests := []struct {
		name      string
		expired   int
		untrusted int
		want      string
	}{
		{"both zero", 0, 0, ""},
		{"only expired", 3, 0, " (3 expired)"},
		{"only untrusted", 0, 2, " (2 untrusted)"},
		{"both non-zero", 1, 4, " (1 expired, 4 untrusted)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CertAnnotation(tt.expired, tt.untrusted)
			if got != tt.want {
				t.Errorf("CertAnnotation(%d, %d) = %q, want %q", tt.expired, tt.untrusted, got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	// WHY: The summary line counts certificates, not directory entries.
	t.Parallel()
	r := inventory.Report{
		NonCertificates: []string{"x"},
		Expired:         []string{"a"},
		Trusted:         []string{"a"},
		Untrusted:       []string{"b", "c"},
	}
	if got, want := Summary(r), "3 certificates (1 expired, 2 untrusted), 1 other entries"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
