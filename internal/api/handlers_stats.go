package api

import (
	"net/http"
	"strings"

	"github.com/dgallion1/spinebank/internal/corpus"
	"github.com/dgallion1/spinebank/internal/render"
	"github.com/dgallion1/spinebank/internal/spine"
)

// handleStats computes template statistics of a train/dev pair of spine
// files. Clients accepting text/html get the rendered report.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var parts [2][]spine.Sentence
	for i, field := range []string{"train", "dev"} {
		file, _, err := r.FormFile(field)
		if err != nil {
			jsonError(w, field+" is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		data, err := readLimited(file, s.cfg.MaxUploadBytes)
		file.Close()
		if err != nil {
			jsonError(w, err.Error(), statusFor(err))
			return
		}
		parts[i], err = spine.ReadAll(strings.NewReader(string(data)))
		if err != nil {
			jsonError(w, field+": "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	st := corpus.ComputeStats(parts[0], parts[1])
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		page, err := render.MarkdownHTML([]byte(st.Markdown()))
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats":                st,
		"accessible_ratio":     st.AccessibleRatio(),
		"accessible_pos_ratio": st.AccessiblePOSRatio(),
	})
}
