package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sensiblebit/certcheck/internal/inventory"
)

// Section headers of the text report. Consumers match on these lines.
const (
	HeaderNonCertificates = "Non certificate items in directory:"
	HeaderExpired         = "Expired Certs:"
	HeaderTrusted         = "Certs in the system keychain:"
	HeaderUntrusted       = "Certs not in system keychain:"
	NoExpiredLine         = "No expired certs found."
)

// WriteReport renders a classification result as text or JSON.
func WriteReport(w io.Writer, res *inventory.Result, format string) error {
	switch format {
	case "", "text":
		_, err := io.WriteString(w, FormatReportText(res.Report))
		return err
	case "json":
		data, err := json.MarshalIndent(newReportJSON(res), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	default:
		return fmt.Errorf("unsupported output format %q (use text or json)", format)
	}
}

// FormatReportText renders the four report sections in order, one basename
// per line. An empty expired section prints NoExpiredLine.
func FormatReportText(r inventory.Report) string {
	var sb strings.Builder
	writeSection(&sb, HeaderNonCertificates, r.NonCertificates)
	sb.WriteString(HeaderExpired + "\n")
	if len(r.Expired) == 0 {
		sb.WriteString(NoExpiredLine + "\n")
	}
	for _, name := range r.Expired {
		sb.WriteString(name + "\n")
	}
	writeSection(&sb, HeaderTrusted, r.Trusted)
	writeSection(&sb, HeaderUntrusted, r.Untrusted)
	return sb.String()
}

func writeSection(sb *strings.Builder, header string, names []string) {
	sb.WriteString(header + "\n")
	for _, name := range names {
		sb.WriteString(name + "\n")
	}
}

type reportJSON struct {
	TargetDir       string            `json:"target_dir"`
	TrustDir        string            `json:"trust_dir"`
	CheckedAt       string            `json:"checked_at"`
	NonCertificates []string          `json:"non_certificates"`
	Expired         []string          `json:"expired"`
	Trusted         []string          `json:"trusted"`
	Untrusted       []string          `json:"untrusted"`
	Entries         []inventory.Entry `json:"entries"`
	Warnings        []string          `json:"warnings"`
}

func newReportJSON(res *inventory.Result) reportJSON {
	out := reportJSON{
		TargetDir:       res.TargetDir,
		TrustDir:        res.TrustDir,
		CheckedAt:       res.CheckedAt.UTC().Format(time.RFC3339),
		NonCertificates: orEmpty(res.Report.NonCertificates),
		Expired:         orEmpty(res.Report.Expired),
		Trusted:         orEmpty(res.Report.Trusted),
		Untrusted:       orEmpty(res.Report.Untrusted),
		Entries:         res.Entries,
		Warnings:        make([]string, 0, len(res.Warnings)),
	}
	if out.Entries == nil {
		out.Entries = []inventory.Entry{}
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CertAnnotation returns a parenthetical annotation like " (2 expired, 1 untrusted)"
// for non-zero counts, or an empty string if both are zero.
func CertAnnotation(expired, untrusted int) string {
	var parts []string
	if expired > 0 {
		parts = append(parts, fmt.Sprintf("%d expired", expired))
	}
	if untrusted > 0 {
		parts = append(parts, fmt.Sprintf("%d untrusted", untrusted))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// Summary returns a one-line description of a report for logs.
func Summary(r inventory.Report) string {
	return fmt.Sprintf("%d certificates%s, %d other entries",
		r.CertificateCount(), CertAnnotation(len(r.Expired), len(r.Untrusted)), len(r.NonCertificates))
}
