package server

import (
	"fmt"

	"github.com/samcharles93/hapi/pkg/hapi"
)

type HeaderInfo struct {
	Marker     string `json:"marker"`
	TOCOffset  uint32 `json:"toc_offset"`
	TOCSize    uint32 `json:"toc_size"`
	Enciphered bool   `json:"enciphered"`
}

type ArchiveInfo struct {
	ID     string     `json:"id"`
	Object string     `json:"object"`
	Name   string     `json:"name"`
	Header HeaderInfo `json:"header"`
	Files  int        `json:"files"`
	Root   EntryInfo  `json:"root"`
}

// EntryInfo describes a file or directory. Entries is only set for
// directories, and only as deep as the caller asked for.
type EntryInfo struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	Size        uint32      `json:"size,omitempty"`
	Compression string      `json:"compression,omitempty"`
	Entries     []EntryInfo `json:"entries,omitempty"`
}

type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewHeaderInfo(h hapi.Header) HeaderInfo {
	return HeaderInfo{
		Marker:     fmt.Sprintf("%x", h.Marker[:]),
		TOCOffset:  h.TOCOffset,
		TOCSize:    h.TOCSize,
		Enciphered: h.Enciphered(),
	}
}

// NewEntryInfo converts e, descending depth levels into directories.
// A negative depth means the whole subtree.
func NewEntryInfo(e hapi.Entry, depth int) EntryInfo {
	switch e := e.(type) {
	case *hapi.File:
		return EntryInfo{
			Type:        "file",
			Name:        e.Name(),
			Path:        e.Path(),
			Size:        e.Size,
			Compression: e.Compression.String(),
		}
	case *hapi.Directory:
		info := EntryInfo{
			Type: "directory",
			Name: e.Name(),
			Path: e.Path(),
		}
		if depth == 0 {
			return info
		}
		info.Entries = make([]EntryInfo, 0, len(e.Entries))
		for _, child := range e.Entries {
			info.Entries = append(info.Entries, NewEntryInfo(child, depth-1))
		}
		return info
	}
	return EntryInfo{}
}
