package sec

import (
	"bytes"
	"strings"
	"time"

	"github.com/seenimoa/filingsense/pkg/models"
	"github.com/seenimoa/filingsense/pkg/utils"
)

// Submission is a parsed full-text EDGAR submission.
type Submission struct {
	Metadata  map[string]any
	Documents []models.Document
}

// Header keys read back when building events.
const (
	MetaSubmissionType = "conformed-submission-type"
	MetaFiledAsOf      = "filed-as-of-date"
	MetaCompanyName    = "company-conformed-name"
	MetaAccession      = "accession-number"
)

var (
	tagDocument     = []byte("<DOCUMENT>")
	tagDocumentEnd  = []byte("</DOCUMENT>")
	tagText         = []byte("<TEXT>")
	tagTextEnd      = []byte("</TEXT>")
	tagHeaderEnd    = []byte("</SEC-HEADER>")
	skippedTagLines = map[string]bool{"sec-document": true, "sec-header": true}
)

// ParseSubmission splits a full submission text file into its SGML header
// metadata and its documents. It never fails: malformed sections are
// skipped.
//
// Header lines of the form "KEY:<tab>value" and "<KEY>value" become
// kebab-case keys; the first occurrence of a key wins, except
// item-information which collects every value as []string.
func ParseSubmission(raw []byte) *Submission {
	sub := &Submission{Metadata: make(map[string]any)}

	headerEnd := len(raw)
	if i := bytes.Index(raw, tagHeaderEnd); i >= 0 {
		headerEnd = i
	}
	if i := bytes.Index(raw, tagDocument); i >= 0 && i < headerEnd {
		headerEnd = i
	}
	parseHeader(string(raw[:headerEnd]), sub.Metadata)

	rest := raw[headerEnd:]
	for {
		start := bytes.Index(rest, tagDocument)
		if start < 0 {
			break
		}
		rest = rest[start+len(tagDocument):]
		end := bytes.Index(rest, tagDocumentEnd)
		block := rest
		if end >= 0 {
			block = rest[:end]
			rest = rest[end+len(tagDocumentEnd):]
		} else {
			rest = nil
		}
		sub.Documents = append(sub.Documents, parseDocument(block))
	}
	return sub
}

func parseHeader(header string, meta map[string]any) {
	var items []string
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var key, value string
		if strings.HasPrefix(line, "<") {
			end := strings.IndexByte(line, '>')
			if end < 0 || strings.HasPrefix(line, "</") {
				continue
			}
			key, value = line[1:end], line[end+1:]
		} else {
			var ok bool
			key, value, ok = strings.Cut(line, ":")
			if !ok {
				continue
			}
		}
		key = headerKey(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" || skippedTagLines[key] {
			continue
		}

		if key == models.MetaItemInformation {
			items = append(items, value)
			continue
		}
		if _, exists := meta[key]; !exists {
			meta[key] = value
		}
	}
	if len(items) > 0 {
		meta[models.MetaItemInformation] = items
	}
}

func headerKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), "-")
}

func parseDocument(block []byte) models.Document {
	var doc models.Document

	head := block
	if i := bytes.Index(block, tagText); i >= 0 {
		head = block[:i]
		body := block[i+len(tagText):]
		if j := bytes.LastIndex(body, tagTextEnd); j >= 0 {
			body = body[:j]
		}
		doc.Content = unwrapBody(body)
	}

	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "<") {
			continue
		}
		end := strings.IndexByte(line, '>')
		if end < 0 {
			continue
		}
		value := strings.TrimSpace(line[end+1:])
		switch strings.ToUpper(line[1:end]) {
		case "TYPE":
			doc.Type = value
		case "SEQUENCE":
			doc.Sequence = value
		case "FILENAME":
			doc.Filename = value
		case "DESCRIPTION":
			doc.Description = value
		}
	}
	return doc
}

// unwrapBody trims the line breaks around a <TEXT> body and removes the
// outer <XML> or <XBRL> wrapper EDGAR adds around structured documents.
func unwrapBody(body []byte) []byte {
	body = bytes.Trim(body, "\r\n")
	trimmed := bytes.TrimSpace(body)
	for _, w := range []string{"XML", "XBRL"} {
		open, closing := []byte("<"+w+">"), []byte("</"+w+">")
		if bytes.HasPrefix(trimmed, open) && bytes.HasSuffix(trimmed, closing) {
			inner := trimmed[len(open) : len(trimmed)-len(closing)]
			return bytes.Trim(inner, "\r\n")
		}
	}
	return body
}

// String returns a header value as a string, or "".
func (s *Submission) String(key string) string {
	v, _ := s.Metadata[key].(string)
	return v
}

// SubmissionType is the declared form type, falling back to the type of the
// first document.
func (s *Submission) SubmissionType() string {
	if t := s.String(MetaSubmissionType); t != "" {
		return t
	}
	if t := s.String("type"); t != "" {
		return t
	}
	if len(s.Documents) > 0 {
		return s.Documents[0].Type
	}
	return ""
}

// FilingDate returns the filed-as-of date as YYYY-MM-DD, the raw header
// value when it cannot be parsed, or "".
func (s *Submission) FilingDate() string {
	raw := s.String(MetaFiledAsOf)
	if t := utils.ParseSECDate(raw); !t.IsZero() {
		return t.Format("2006-01-02")
	}
	return raw
}

// Event builds the FilingEvent for the submission. When company is nil a
// minimal profile is derived from the header.
func (s *Submission) Event(cik, accession string, company *models.CompanyProfile, received time.Time) models.FilingEvent {
	if accession == "" {
		accession = s.String(MetaAccession)
	}
	if company == nil {
		if name := s.String(MetaCompanyName); name != "" {
			company = &models.CompanyProfile{CIK: utils.NormalizeCIK(cik), Name: name}
		}
	}
	return models.FilingEvent{
		Accession:      accession,
		CIK:            cik,
		SubmissionType: s.SubmissionType(),
		FilingDate:     s.FilingDate(),
		ReceivedAt:     received,
		Company:        company,
		Documents:      s.Documents,
		Metadata:       s.Metadata,
	}
}
