// Package media serves chat image attachments over HTTP. Clients upload
// here first, then put the returned URL in the image field of a send.
package media

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"palchat/internal/common"
	"palchat/internal/dbmongo"
)

// maxUploadBytes caps one attachment at 10MB.
const maxUploadBytes = 10 << 20

type HTTPServer struct {
	storage *dbmongo.AttachmentStorage
}

func NewHTTPServer(mongoClient *dbmongo.MongoClient) *HTTPServer {
	return &HTTPServer{
		storage: dbmongo.NewAttachmentStorage(mongoClient),
	}
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router := mux.NewRouter()

	router.Handle("/upload", common.AuthMiddleware(http.HandlerFunc(s.upload))).Methods("POST")
	router.HandleFunc("/media/{fileId}", s.serveFile).Methods("GET")
	router.HandleFunc("/health", s.health).Methods("GET")

	router.ServeHTTP(w, r)
}

// POST /upload — multipart image upload, returns the URL a send references.
func (s *HTTPServer) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "file too large or malformed form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		http.Error(w, "only image uploads are accepted", http.StatusBadRequest)
		return
	}

	uploader := common.CallerID(r.Context())
	attachment, err := s.storage.Upload(r.Context(), header.Filename, mimeType, uploader, file)
	if err != nil {
		log.Printf("media: upload failed: %v", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":  true,
		"url": "/media/" + attachment.ID,
	})
}

// GET /media/{fileId} — stream the stored attachment.
func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileId := vars["fileId"]

	fileReader, attachment, err := s.storage.Download(r.Context(), fileId)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	contentType := attachment.MimeType
	if contentType == "" {
		contentType = s.getContentType(attachment.Filename)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", attachment.Size))

	if _, err := io.Copy(w, fileReader); err != nil {
		log.Printf("media: error streaming file: %v", err)
	}
}

func (s *HTTPServer) getContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("media server is healthy"))
}
