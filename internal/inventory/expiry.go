package inventory

import (
	"context"
	"crypto/x509"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sensiblebit/certcheck"
)

// ExpiryOptions configures CheckExpiry.
type ExpiryOptions struct {
	Now   time.Time
	Grace time.Duration
	// Lenient retries certificates the standard library rejects with the
	// certificate-transparency parser.
	Lenient bool
	// Workers bounds concurrent parsing. Zero selects GOMAXPROCS.
	Workers int
}

// CheckExpiry parses every certificate entry and sets NotAfter, Expired,
// Fingerprint and Subject. An entry is expired when its earliest NotAfter is
// at or before Now+Grace. Entries that looked like certificates but do not
// parse are returned as non-certificates of kind KindInvalidCertificate with a
// *certcheck.ParseError warning. The result has the same order as entries.
func CheckExpiry(ctx context.Context, entries []Entry, opts ExpiryOptions) ([]Entry, []Warning, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]Entry, len(entries))
	slots := make([]*Warning, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i], slots[i] = checkEntry(entries[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	for _, w := range slots {
		if w != nil {
			slog.Warn("file is not a usable certificate", "path", w.Path, "error", w.Err)
			warnings = append(warnings, *w)
		}
	}
	return out, warnings, nil
}

func checkEntry(e Entry, opts ExpiryOptions) (Entry, *Warning) {
	if !e.IsCertificate {
		return e, nil
	}

	var earliest time.Time
	for i, der := range e.ders {
		parsed, err := parseDER(der, opts.Lenient, e.Path)
		if err != nil {
			e.IsCertificate = false
			e.Kind = KindInvalidCertificate
			e.ders = nil
			return e, &Warning{Path: e.Path, Err: &certcheck.ParseError{Path: e.Path, Err: err}}
		}
		if i == 0 {
			e.Fingerprint = certcheck.Fingerprint(der)
			e.Subject = parsed.subject
			earliest = parsed.notAfter
		} else if parsed.notAfter.Before(earliest) {
			earliest = parsed.notAfter
		}
	}

	e.NotAfter = earliest
	e.Expired = certcheck.ExpiredAt(earliest, opts.Now, opts.Grace)
	return e, nil
}

type parsedCert struct {
	subject  string
	notAfter time.Time
}

func parseDER(der []byte, lenient bool, path string) (parsedCert, error) {
	cert, err := x509.ParseCertificate(der)
	if err == nil {
		return parsedCert{subject: cert.Subject.String(), notAfter: cert.NotAfter}, nil
	}
	if !lenient {
		return parsedCert{}, err
	}
	lc, lerr := certcheck.ParseCertificateLenient(der)
	if lerr != nil {
		return parsedCert{}, err
	}
	slog.Debug("accepted certificate with lenient parser", "path", path, "problems", lc.Problems)
	return parsedCert{subject: lc.Subject, notAfter: lc.NotAfter}, nil
}
