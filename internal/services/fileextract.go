package services

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"vectortutor-backend/internal/models"
)

const DefaultPageChunkChars = 10000

// ErrNoText means the PDF parsed but none of its pages yielded any text,
// as with scanned documents.
var ErrNoText = errors.New("no extractable text found in pdf")

// FileExtractService pulls plain text and document properties out of
// uploaded files.
type FileExtractService struct{}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

// ExtractText returns the text of every page of a PDF, in page order.
func (s *FileExtractService) ExtractText(path string) (string, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return "", fmt.Errorf("unsupported file type for text extraction: %s", ext)
	}

	pages, err := s.pdfPages(path)
	if err != nil {
		return "", err
	}

	text := normalizeExtractedText(strings.Join(pages, "\n"))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// ExtractMetadata reads the PDF Info dictionary. Any failure is reported
// inside the record as {"error": reason}.
func (s *FileExtractService) ExtractMetadata(path string) map[string]interface{} {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	defer f.Close()

	info := reader.Trailer().Key("Info")
	return map[string]interface{}{
		"title":      info.Key("Title").Text(),
		"author":     info.Key("Author").Text(),
		"subject":    info.Key("Subject").Text(),
		"creator":    info.Key("Creator").Text(),
		"producer":   info.Key("Producer").Text(),
		"page_count": reader.NumPage(),
	}
}

// ExtractByPages splits a PDF into chunks of consecutive pages of at most
// maxChars characters each. A single oversized page still forms one chunk.
func (s *FileExtractService) ExtractByPages(path string, maxChars int) ([]models.PageChunk, error) {
	if maxChars <= 0 {
		maxChars = DefaultPageChunkChars
	}

	pages, err := s.pdfPages(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pdf pages: %w", err)
	}
	return chunkPages(pages, maxChars), nil
}

func chunkPages(pages []string, maxChars int) []models.PageChunk {
	chunks := []models.PageChunk{}
	var current strings.Builder
	currentLen := 0
	startPage := 1

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			chunks = append(chunks, models.PageChunk{Page: startPage, Text: text})
		}
		current.Reset()
		currentLen = 0
	}

	for i, page := range pages {
		pageLen := utf8.RuneCountInString(page)
		if currentLen > 0 && currentLen+pageLen > maxChars {
			flush()
		}
		if currentLen == 0 {
			startPage = i + 1
		}
		current.WriteString(page)
		current.WriteString("\n\n")
		currentLen += pageLen + 2
	}
	flush()

	return chunks
}

// pdfPages returns the plain text of every page in order. Unreadable pages
// come back empty so page numbers stay aligned.
func (s *FileExtractService) pdfPages(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	totalPage := reader.NumPage()
	pages := make([]string, 0, totalPage)
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, content)
	}

	return pages, nil
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}

