package export

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/doctrack/internal/export"
	"github.com/MrJamesThe3rd/doctrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/doctrack/internal/http/render"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{no}", h.metadata)
	r.Get("/{no}/download", h.download)
}

type itemResponse struct {
	Kind       string `json:"kind"`
	FileName   string `json:"file_name"`
	Downloaded bool   `json:"downloaded"`
}

type archiveResponse struct {
	DocumentNo   string         `json:"document_no"`
	Transactions int            `json:"transactions"`
	Items        []itemResponse `json:"items"`
	RoutingSlip  string         `json:"routing_slip"`
}

// export builds the archive in a temporary directory that the caller removes.
func (h *Handler) export(r *http.Request) (*export.Archive, string, error) {
	tmpDir, err := os.MkdirTemp("", "doctrack-export-*")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp dir: %w", err)
	}

	archive, err := h.svc.Export(r.Context(), chi.URLParam(r, "no"), tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, "", err
	}

	return archive, tmpDir, nil
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	archive, tmpDir, err := h.export(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	items := make([]itemResponse, 0, len(archive.Items))
	for _, item := range archive.Items {
		items = append(items, itemResponse{
			Kind:       string(item.Attachment.Kind),
			FileName:   item.Attachment.FileName,
			Downloaded: item.FilePath != "",
		})
	}

	render.JSON(w, r, http.StatusOK, archiveResponse{
		DocumentNo:   archive.Document.No,
		Transactions: len(archive.Transactions),
		Items:        items,
		RoutingSlip:  export.RoutingSlip(archive),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	archive, tmpDir, err := h.export(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"%s.zip\"", archive.Document.No))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	err = filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(tmpDir, path)

		zf, err := zipWriter.Create(relPath)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		middleware.Logger(r.Context()).Error("failed to create zip", "error", err)
	}
}
