package edinet

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/phuslu/log"
)

// ExtractXBRLMember returns the XBRL instance held under PublicDoc in an
// EDINET document package. Audit reports and other members are ignored.
// A package without an instance falls back to its inline XBRL members,
// concatenated in name order so the header file with the contexts leads.
func ExtractXBRLMember(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DocumentUnavailableError{Reason: "package is not a valid ZIP archive", Err: err}
	}

	var members []*zip.File
	for _, f := range zr.File {
		if isPublicXBRL(f.Name) {
			members = append(members, f)
		}
	}
	if len(members) == 0 {
		return extractInline(zr)
	}
	// one instance per package in practice; sort so the choice is stable if not
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	content, err := readMember(members[0])
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func extractInline(zr *zip.Reader) (string, error) {
	var members []*zip.File
	for _, f := range zr.File {
		if isPublicInline(f.Name) {
			members = append(members, f)
		}
	}
	if len(members) == 0 {
		return "", &DocumentUnavailableError{Reason: "no PublicDoc XBRL member in package"}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	var b strings.Builder
	for _, m := range members {
		content, err := readMember(m)
		if err != nil {
			return "", err
		}
		b.Write(content)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, &DocumentUnavailableError{Reason: "failed to open " + f.Name, Err: err}
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, &DocumentUnavailableError{Reason: "failed to read " + f.Name, Err: err}
	}
	return content, nil
}

func isPublicXBRL(name string) bool {
	return strings.Contains(name, "PublicDoc") && strings.HasSuffix(strings.ToLower(name), ".xbrl")
}

func isPublicInline(name string) bool {
	return strings.Contains(name, "PublicDoc") && strings.HasSuffix(strings.ToLower(name), "_ixbrl.htm")
}

// PackageFetcher downloads a document package.
type PackageFetcher interface {
	FetchDocumentPackage(ctx context.Context, docID string) ([]byte, error)
}

// Retriever turns a document id into raw XBRL text.
type Retriever struct {
	fetcher PackageFetcher
	logger  *log.Logger
}

// NewRetriever wraps fetcher. A nil logger uses the package default.
func NewRetriever(fetcher PackageFetcher, logger *log.Logger) *Retriever {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Retriever{fetcher: fetcher, logger: logger}
}

// Retrieve fetches docID's package and extracts its XBRL instance.
func (r *Retriever) Retrieve(ctx context.Context, docID string) (string, error) {
	data, err := r.fetcher.FetchDocumentPackage(ctx, docID)
	if err != nil {
		var du *DocumentUnavailableError
		if errors.As(err, &du) {
			return "", err
		}
		return "", &DocumentUnavailableError{DocumentID: docID, Reason: "download failed", Err: err}
	}

	text, err := ExtractXBRLMember(data)
	if err != nil {
		var du *DocumentUnavailableError
		if errors.As(err, &du) && du.DocumentID == "" {
			du.DocumentID = docID
		}
		return "", err
	}

	r.logger.Info().Str("doc_id", docID).Int("xbrl_bytes", len(text)).Msg("retrieved XBRL instance")
	return text, nil
}
