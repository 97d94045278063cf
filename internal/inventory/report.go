package inventory

// Report is the outcome of classifying one directory. Every list holds
// basenames. Expiry and trust are independent: an expired certificate also
// appears in exactly one of Trusted or Untrusted.
type Report struct {
	NonCertificates []string `json:"non_certificates"`
	Expired         []string `json:"expired"`
	Trusted         []string `json:"trusted"`
	Untrusted       []string `json:"untrusted"`
}

// Assemble builds the report from classified entries and a trust index. It
// performs no I/O. Lists keep scan order, except Trusted in MatchBasename mode,
// which follows trust directory order. A nil index behaves as an empty one.
func Assemble(entries []Entry, idx *TrustIndex, mode MatchMode) Report {
	r := Report{
		NonCertificates: []string{},
		Expired:         []string{},
		Trusted:         []string{},
		Untrusted:       []string{},
	}

	var certs []Entry
	certNames := make(map[string]struct{})
	for _, e := range entries {
		if !e.IsCertificate {
			r.NonCertificates = append(r.NonCertificates, e.Name)
			continue
		}
		if e.Expired {
			r.Expired = append(r.Expired, e.Name)
		}
		certs = append(certs, e)
		certNames[e.Name] = struct{}{}
	}

	switch mode {
	case MatchFingerprint:
		for _, c := range certs {
			if idx.HasFingerprint(c.Fingerprint) {
				r.Trusted = append(r.Trusted, c.Name)
			} else {
				r.Untrusted = append(r.Untrusted, c.Name)
			}
		}
	default:
		for _, name := range idx.Names() {
			if _, ok := certNames[name]; ok {
				r.Trusted = append(r.Trusted, name)
			}
		}
		for _, c := range certs {
			if !idx.HasName(c.Name) {
				r.Untrusted = append(r.Untrusted, c.Name)
			}
		}
	}
	return r
}

// CertificateCount returns the number of certificates in the report.
func (r Report) CertificateCount() int {
	return len(r.Trusted) + len(r.Untrusted)
}
