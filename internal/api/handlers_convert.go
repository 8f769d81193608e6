package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/spinebank/internal/pipeline"
	"github.com/dgallion1/spinebank/internal/render"
	"github.com/dgallion1/spinebank/internal/spine"
	"github.com/dgallion1/spinebank/internal/treebank"
)

// handleExtract converts a treebank body into spines. Sentences that fail
// are reported with 422 alongside the spines of the others.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	f, err := treebank.ForName(queryOr(r, "format", "bracket"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts := s.orchestrator.Options()
	if v := r.URL.Query().Get("keep_repeats"); v != "" {
		keep, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "keep_repeats must be a boolean", http.StatusBadRequest)
			return
		}
		opts = nil
		if keep {
			opts = []spine.Option{spine.KeepRepeats()}
		}
	}

	body, err := readLimited(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1), s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	trees, err := f.Read(bytes.NewReader(body))
	if err != nil {
		jsonError(w, "parse treebank: "+err.Error(), http.StatusBadRequest)
		return
	}

	results, err := pipeline.ExtractAll(r.Context(), trees, s.orchestrator.Oracle(), s.orchestrator.SentenceConcurrency(), opts...)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	var out bytes.Buffer
	sw := spine.NewWriter(&out)
	var errs []string
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Sprintf("sentence %s: %s", res.Key, res.Err))
			continue
		}
		sw.Write(res.Sentence)
	}
	sw.Flush()

	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": errs,
			"spines": out.String(),
		})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(out.Bytes())
}

// handleReconstruct converts a spine body into a treebank.
func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	f, err := treebank.ForName(queryOr(r, "format", "export"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sentences, ok := s.readSpines(w, r)
	if !ok {
		return
	}

	results, err := pipeline.ReconstructAll(r.Context(), sentences, s.orchestrator.SentenceConcurrency())
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	var out bytes.Buffer
	var errs []string
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Sprintf("sentence %d: %s", res.Index+1, res.Err))
			continue
		}
		if err := f.Write(&out, res.Tree); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": errs,
			"trees":  out.String(),
		})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(out.Bytes())
}

// handleRender returns an HTML page with one tree per input sentence. The
// body holds spines by default, or a treebank named by "from". With
// fragment=true only the tree lists are returned.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	from := queryOr(r, "from", "spines")

	var trees []*treebank.Tree
	if from == "spines" {
		sentences, ok := s.readSpines(w, r)
		if !ok {
			return
		}
		results, err := pipeline.ReconstructAll(r.Context(), sentences, s.orchestrator.SentenceConcurrency())
		if err != nil {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		for _, res := range results {
			if res.Err != nil {
				jsonError(w, fmt.Sprintf("sentence %d: %s", res.Index+1, res.Err), http.StatusUnprocessableEntity)
				return
			}
			trees = append(trees, res.Tree)
		}
	} else {
		f, err := treebank.ForName(from)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		body, err := readLimited(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1), s.cfg.MaxUploadBytes)
		if err != nil {
			jsonError(w, err.Error(), statusFor(err))
			return
		}
		trees, err = f.Read(bytes.NewReader(body))
		if err != nil {
			jsonError(w, "parse treebank: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Get("fragment") == "true" {
		// One bare tree list per sentence, for embedding into another page.
		var buf bytes.Buffer
		for _, t := range trees {
			frag, err := render.TreeHTML(t)
			if err != nil {
				jsonError(w, err.Error(), http.StatusInternalServerError)
				return
			}
			buf.Write(frag)
			buf.WriteByte('\n')
		}
		w.Write(buf.Bytes())
		return
	}

	page, err := render.Page(queryOr(r, "title", "spinebank"), trees)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(page)
}

func (s *Server) readSpines(w http.ResponseWriter, r *http.Request) ([]spine.Sentence, bool) {
	body, err := readLimited(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1), s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return nil, false
	}
	sentences, err := spine.ReadAll(bytes.NewReader(body))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return sentences, true
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}
