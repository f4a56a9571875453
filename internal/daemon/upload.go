package daemon

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"slidecast/internal/api"
	"slidecast/internal/logging"
	"slidecast/internal/media"
	"slidecast/internal/session"
)

const (
	// maxUploadMemory bounds how much of a multipart body is buffered in RAM.
	maxUploadMemory = 32 << 20
	// maxImageBytes caps one slide image.
	maxImageBytes = 20 << 20
)

type acceptedUpload struct {
	originalName string
	mimeType     string
	data         []byte
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["files[]"]
	if len(files) == 0 {
		s.writeError(w, http.StatusBadRequest, "no files provided; attach images as files[]")
		return
	}

	store := s.daemon.store
	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	var sess *session.Session
	var err error
	if sessionID == "" {
		sess, err = store.CreateSession(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		sess, err = store.GetSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown session %q", sessionID))
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		// The render stage pairs every image with a narration clip; letting
		// the asset list grow mid-run would break that pairing. The job table
		// covers the window before the first stage persists its status.
		_, busy := s.daemon.workflow.ActiveJob(sess.ID)
		if busy || sess.IsProcessing() {
			s.writeError(w, http.StatusConflict, "generation in progress; wait for it to finish before adding images")
			return
		}
	}

	accepted, rejected := s.validateUploads(files)
	if len(accepted) == 0 {
		payload := api.ErrorResponse{Status: "error", Error: "no valid image files; only JPEG and PNG are accepted"}
		s.writeJSON(w, http.StatusBadRequest, payload)
		return
	}

	assets, writeRejected, err := s.persistUploads(sess, accepted)
	rejected = append(rejected, writeRejected...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := store.AddAssets(r.Context(), sess.ID, assets)
	if err != nil && !errors.Is(err, session.ErrCapacity) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if errors.Is(err, session.ErrCapacity) {
		// The overflow files were written before the transactional count
		// check; remove them and report each one.
		for _, asset := range assets[stored:] {
			if removeErr := os.Remove(asset.Path); removeErr != nil {
				s.log().Warn("failed to remove overflow upload", logging.Error(removeErr))
			}
			rejected = append(rejected, api.RejectedFile{
				FileName: asset.OriginalName,
				Reason:   fmt.Sprintf("session image limit of %d reached", store.MaxAssets()),
			})
		}
		if stored == 0 {
			s.writeJSON(w, http.StatusConflict, api.ErrorResponse{
				Status: "error",
				Error:  fmt.Sprintf("session already holds the maximum of %d images", store.MaxAssets()),
			})
			return
		}
	}

	fileCount := sess.AssetCount + stored
	message := fmt.Sprintf("%d file(s) uploaded successfully", stored)
	s.log().Info("upload accepted",
		logging.String("session_id", sess.ID),
		logging.Int("stored", stored),
		logging.Int("rejected", len(rejected)))
	s.writeJSON(w, http.StatusOK, api.UploadResponse{
		Status:    "success",
		SessionID: sess.ID,
		FileCount: fileCount,
		Message:   message,
		Rejected:  rejected,
	})
}

// validateUploads reads and content-sniffs every part, splitting the batch
// into accepted images and per-file rejections.
func (s *apiServer) validateUploads(files []*multipart.FileHeader) ([]acceptedUpload, []api.RejectedFile) {
	accepted := make([]acceptedUpload, 0, len(files))
	rejected := make([]api.RejectedFile, 0)
	for _, header := range files {
		name := strings.TrimSpace(header.Filename)
		if name == "" {
			name = "unnamed"
		}
		if header.Size > maxImageBytes {
			rejected = append(rejected, api.RejectedFile{FileName: name, Reason: "file exceeds the 20MB limit"})
			continue
		}
		file, err := header.Open()
		if err != nil {
			rejected = append(rejected, api.RejectedFile{FileName: name, Reason: "unreadable upload"})
			continue
		}
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		file.Close()
		if err != nil {
			rejected = append(rejected, api.RejectedFile{FileName: name, Reason: "unreadable upload"})
			continue
		}
		if len(data) == 0 {
			rejected = append(rejected, api.RejectedFile{FileName: name, Reason: "empty file"})
			continue
		}
		if len(data) > maxImageBytes {
			rejected = append(rejected, api.RejectedFile{FileName: name, Reason: "file exceeds the 20MB limit"})
			continue
		}
		mimeType, ok := media.Sniff(data)
		if !ok {
			rejected = append(rejected, api.RejectedFile{FileName: name, Reason: "not a JPEG or PNG image"})
			continue
		}
		accepted = append(accepted, acceptedUpload{originalName: name, mimeType: mimeType, data: data})
	}
	return accepted, rejected
}

// persistUploads writes accepted images into the session directory, named by
// their eventual slide position so a directory listing matches upload order.
func (s *apiServer) persistUploads(sess *session.Session, uploads []acceptedUpload) ([]session.Asset, []api.RejectedFile, error) {
	dir := s.cfg.SessionDir(sess.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create session directory: %w", err)
	}

	assets := make([]session.Asset, 0, len(uploads))
	rejected := make([]api.RejectedFile, 0)
	position := sess.AssetCount
	for _, upload := range uploads {
		fileName := media.SafeFileName(upload.originalName, position, upload.mimeType)
		path := filepath.Join(dir, fileName)
		if err := os.WriteFile(path, upload.data, 0o644); err != nil {
			s.log().Warn("failed to store upload", logging.Error(err))
			rejected = append(rejected, api.RejectedFile{FileName: upload.originalName, Reason: "failed to store file"})
			continue
		}
		assets = append(assets, session.Asset{
			FileName:     fileName,
			OriginalName: upload.originalName,
			Path:         path,
			MIMEType:     upload.mimeType,
			SizeBytes:    int64(len(upload.data)),
		})
		position++
	}
	return assets, rejected, nil
}
