// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/booth/models"
)

// MaxDocumentSize bounds the election document inside a bundle
const MaxDocumentSize = 8 << 20

// Document names searched for in a bundle, in order of preference
var documentNames = []string{"election.json", "election.yaml", "election.yml"}

type bundleElection struct {
	ID    string       `json:"id" yaml:"id"`
	Name  string       `json:"name" yaml:"name"`
	Polls []bundlePoll `json:"polls" yaml:"polls"`
}

type bundlePoll struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	Show       bool              `json:"show" yaml:"show"`
	Candidates []bundleCandidate `json:"candidates" yaml:"candidates"`
}

type bundleCandidate struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	VoteCount int64  `json:"vote_count" yaml:"vote_count"`
}

// LoadBundle reads the zip archive at archivePath and returns the election
// it describes. Every failure is an ErrBundle.
func LoadBundle(archivePath string) (*models.Election, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, ErrBundle.Wrap(err)
	}
	defer zr.Close()

	f := findDocument(zr.File)
	if f == nil {
		return nil, ErrBundle.WithDetails("archive contains none of %s", strings.Join(documentNames, ", "))
	}
	if f.UncompressedSize64 > MaxDocumentSize {
		return nil, ErrBundle.WithDetails("%s exceeds %d bytes", f.Name, MaxDocumentSize)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, ErrBundle.Wrap(err)
	}
	defer rc.Close()

	// the header size can lie; read one byte past the limit to catch it
	raw, err := io.ReadAll(io.LimitReader(rc, MaxDocumentSize+1))
	if err != nil {
		return nil, ErrBundle.Wrap(err)
	}
	if len(raw) > MaxDocumentSize {
		return nil, ErrBundle.WithDetails("%s exceeds %d bytes", f.Name, MaxDocumentSize)
	}

	return ParseDocument(path.Base(f.Name), raw)
}

// findDocument picks the election document at the archive root or one
// directory deep
func findDocument(files []*zip.File) *zip.File {
	for _, name := range documentNames {
		for _, f := range files {
			if f.FileInfo().IsDir() || strings.Count(strings.Trim(f.Name, "/"), "/") > 1 {
				continue
			}
			if path.Base(f.Name) == name {
				return f
			}
		}
	}
	return nil
}

// ParseDocument decodes and validates an election document. The format
// follows the file extension of name.
func ParseDocument(name string, raw []byte) (*models.Election, error) {
	var doc bundleElection
	switch path.Ext(name) {
	case ".json":
		if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&doc); err != nil {
			return nil, ErrBundle.WithDetails("decode %s", name).Wrap(err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, ErrBundle.WithDetails("decode %s", name).Wrap(err)
		}
	default:
		return nil, ErrBundle.WithDetails("unsupported document %s", name)
	}
	return doc.toElection()
}

func (b bundleElection) toElection() (*models.Election, error) {
	if strings.TrimSpace(b.Name) == "" {
		return nil, ErrBundle.WithDetails("election name is required")
	}
	if len(b.Polls) == 0 {
		return nil, ErrBundle.WithDetails("election has no polls")
	}

	seen := make(map[string]bool)
	claim := func(id string) (string, error) {
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return "", ErrBundle.WithDetails("duplicate id %s", id)
		}
		seen[id] = true
		return id, nil
	}

	e := &models.Election{Name: b.Name, Polls: make([]models.Poll, 0, len(b.Polls))}
	var err error
	if e.ID, err = claim(b.ID); err != nil {
		return nil, err
	}

	for i, bp := range b.Polls {
		if strings.TrimSpace(bp.Name) == "" {
			return nil, ErrBundle.WithDetails("poll %d has no name", i+1)
		}
		if len(bp.Candidates) == 0 {
			return nil, ErrBundle.WithDetails("poll %q has no candidates", bp.Name)
		}

		p := models.Poll{Name: bp.Name, Show: bp.Show}
		if p.ID, err = claim(bp.ID); err != nil {
			return nil, err
		}

		for j, bc := range bp.Candidates {
			if strings.TrimSpace(bc.Name) == "" {
				return nil, ErrBundle.WithDetails("candidate %d of poll %q has no name", j+1, bp.Name)
			}
			if bc.VoteCount < 0 {
				return nil, ErrBundle.WithDetails("candidate %q has a negative vote count", bc.Name)
			}
			c := models.Candidate{ParentID: p.ID, Name: bc.Name, VoteCount: bc.VoteCount}
			if c.ID, err = claim(bc.ID); err != nil {
				return nil, err
			}
			p.Candidates = append(p.Candidates, c)
		}
		e.Polls = append(e.Polls, p)
	}
	return e, nil
}
